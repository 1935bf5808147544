package ticket

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	fields map[string]string
	itemID string
	err    error
}

func (f *fakeAPI) AddItem(ctx context.Context, fields map[string]string) (string, error) {
	f.fields = fields
	return f.itemID, f.err
}

type fakeArchive struct {
	recs []SubmissionRecord
	err  error
}

func (f *fakeArchive) Record(ctx context.Context, rec SubmissionRecord) error {
	f.recs = append(f.recs, rec)
	return f.err
}

func submitterSession(t *testing.T, schema *Schema, store *Store, userID int64) *Session {
	t.Helper()
	sess := store.Create(userID)
	sess.SetAnswer("name", "Алиса")
	sess.SetAnswer("priority", "Высокий")
	sess.AppendFile("files", "f1")
	sess.AppendFile("files", "f2")
	sess.Index = schema.Len()
	return sess
}

func TestSubmitterTitle(t *testing.T) {
	s := NewSubmitter(nil, testSchema(t), NewStore(), nil, "Заявка из Telegram от")

	assert.Equal(t, "Заявка из Telegram от @alice", s.Title(User{ID: 42, Username: "alice"}))
	assert.Equal(t, "Заявка из Telegram от 42", s.Title(User{ID: 42}))
}

func TestSubmitterBuildFields(t *testing.T) {
	schema := testSchema(t)
	store := NewStore()
	s := NewSubmitter(nil, schema, store, nil, "Заявка из Telegram от")
	sess := submitterSession(t, schema, store, 42)

	fields := s.BuildFields(User{ID: 42, Username: "alice"}, sess)
	assert.Equal(t, "Заявка из Telegram от @alice", fields["TITLE"])
	assert.Equal(t, "Алиса", fields["UF_NAME"])
	assert.Equal(t, "Высокий", fields["UF_PRIORITY"])
	assert.Equal(t, "f1\nf2", fields["UF_FILES"])
}

func TestSubmitterBuildFieldsEmptyFileSet(t *testing.T) {
	schema := testSchema(t)
	store := NewStore()
	s := NewSubmitter(nil, schema, store, nil, "Заявка")
	sess := store.Create(1)
	sess.SetAnswer("name", "Боб")
	sess.SetAnswer("priority", "Низкий")

	fields := s.BuildFields(User{ID: 1}, sess)
	assert.Equal(t, "", fields["UF_FILES"])
}

func TestSubmitterFinalizeSuccess(t *testing.T) {
	schema := testSchema(t)
	store := NewStore()
	api := &fakeAPI{itemID: "123"}
	arch := &fakeArchive{}
	s := NewSubmitter(api, schema, store, arch, "Заявка из Telegram от")
	sess := submitterSession(t, schema, store, 42)

	out := &recordingReplier{}
	require.NoError(t, s.Finalize(context.Background(), User{ID: 42, Username: "alice"}, sess, out))

	assert.Equal(t, "Заявка создана в Bitrix24.\nID элемента смарт-процесса: 123", out.last())
	assert.Nil(t, store.Get(42))

	require.Len(t, arch.recs, 1)
	rec := arch.recs[0]
	assert.True(t, rec.OK)
	assert.Equal(t, "123", rec.ItemID)
	assert.Equal(t, int64(42), rec.UserID)
	assert.Equal(t, api.fields, rec.Fields)
}

func TestSubmitterFinalizeFailureClearsSession(t *testing.T) {
	schema := testSchema(t)
	store := NewStore()
	api := &fakeAPI{err: errors.New("boom")}
	arch := &fakeArchive{}
	s := NewSubmitter(api, schema, store, arch, "Заявка")
	sess := submitterSession(t, schema, store, 42)

	out := &recordingReplier{}
	require.NoError(t, s.Finalize(context.Background(), User{ID: 42}, sess, out))

	assert.Equal(t, MsgSubmitFail, out.last())
	assert.Nil(t, store.Get(42))

	require.Len(t, arch.recs, 1)
	assert.False(t, arch.recs[0].OK)
	assert.Equal(t, "boom", arch.recs[0].Error)
}

func TestSubmitterArchiveErrorDoesNotAffectReply(t *testing.T) {
	schema := testSchema(t)
	store := NewStore()
	api := &fakeAPI{itemID: "7"}
	arch := &fakeArchive{err: errors.New("db down")}
	s := NewSubmitter(api, schema, store, arch, "Заявка")
	sess := submitterSession(t, schema, store, 1)

	out := &recordingReplier{}
	require.NoError(t, s.Finalize(context.Background(), User{ID: 1}, sess, out))
	assert.Contains(t, out.last(), "Заявка создана")
}
