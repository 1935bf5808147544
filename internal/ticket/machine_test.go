package ticket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReplier struct {
	msgs    []string
	choices [][]string
}

func (r *recordingReplier) Text(msg string) error {
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recordingReplier) Choices(msg string, options []string) error {
	r.msgs = append(r.msgs, msg)
	r.choices = append(r.choices, options)
	return nil
}

func (r *recordingReplier) last() string {
	if len(r.msgs) == 0 {
		return ""
	}
	return r.msgs[len(r.msgs)-1]
}

type fakeFinalizer struct {
	store   *Store
	calls   int
	user    User
	answers map[string][]string
}

func (f *fakeFinalizer) Finalize(ctx context.Context, user User, sess *Session, out Replier) error {
	f.calls++
	f.user = user
	f.answers = sess.Answers()
	f.store.Clear(user.ID)
	return out.Text("submitted")
}

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewSchema([]Field{
		{Key: "name", Kind: KindText, Prompt: "Как вас зовут?", BitrixField: "UF_NAME"},
		{Key: "priority", Kind: KindChoice, Prompt: "Выберите приоритет.", Choices: []string{"Низкий", "Высокий"}, BitrixField: "UF_PRIORITY"},
		{Key: "files", Kind: KindFileSet, Prompt: "Пришлите файлы.", BitrixField: "UF_FILES"},
	}, nil)
	require.NoError(t, err)
	return s
}

func newTestMachine(t *testing.T) (*Machine, *Store, *fakeFinalizer) {
	t.Helper()
	store := NewStore()
	final := &fakeFinalizer{store: store}
	return NewMachine(testSchema(t), store, final), store, final
}

func TestMachineFullFlow(t *testing.T) {
	m, store, final := newTestMachine(t)
	ctx := context.Background()
	user := User{ID: 42, Username: "alice"}
	out := &recordingReplier{}

	require.NoError(t, m.Begin(ctx, user, out))
	assert.Equal(t, "Как вас зовут?", out.last())
	assert.True(t, m.Active(user.ID))

	require.NoError(t, m.HandleAnswer(ctx, user, TextMessage{Text: "Алиса"}, out))
	assert.Equal(t, "Выберите приоритет.", out.last())
	assert.Equal(t, [][]string{{"Низкий", "Высокий"}}, out.choices)

	require.NoError(t, m.HandleAnswer(ctx, user, TextMessage{Text: "Высокий"}, out))
	assert.Equal(t, "Пришлите файлы.", out.last())

	require.NoError(t, m.HandleAnswer(ctx, user, DocumentAttachment{Ref: "doc-1"}, out))
	assert.Equal(t, "Файл получен (1). Пришлите ещё или напишите «готово».", out.last())

	require.NoError(t, m.HandleAnswer(ctx, user, DocumentAttachment{Ref: "doc-2"}, out))
	assert.Equal(t, "Файл получен (2). Пришлите ещё или напишите «готово».", out.last())

	require.NoError(t, m.HandleAnswer(ctx, user, TextMessage{Text: "готово"}, out))
	assert.Equal(t, "submitted", out.last())

	require.Equal(t, 1, final.calls)
	assert.Equal(t, user, final.user)
	assert.Equal(t, []string{"Алиса"}, final.answers["name"])
	assert.Equal(t, []string{"Высокий"}, final.answers["priority"])
	assert.Equal(t, []string{"doc-1", "doc-2"}, final.answers["files"])

	assert.Nil(t, store.Get(user.ID))
	assert.False(t, m.Active(user.ID))
}

func TestMachineTextRepromptsOnAttachment(t *testing.T) {
	m, store, _ := newTestMachine(t)
	ctx := context.Background()
	user := User{ID: 1}
	out := &recordingReplier{}

	require.NoError(t, m.Begin(ctx, user, out))
	require.NoError(t, m.HandleAnswer(ctx, user, DocumentAttachment{Ref: "doc"}, out))

	assert.Equal(t, "Как вас зовут?", out.last())
	assert.Equal(t, 0, store.Get(user.ID).Index)
}

func TestMachineChoiceRejectsUnknownOption(t *testing.T) {
	m, store, _ := newTestMachine(t)
	ctx := context.Background()
	user := User{ID: 1}
	out := &recordingReplier{}

	require.NoError(t, m.Begin(ctx, user, out))
	require.NoError(t, m.HandleAnswer(ctx, user, TextMessage{Text: "Алиса"}, out))

	require.NoError(t, m.HandleAnswer(ctx, user, TextMessage{Text: "средний"}, out))
	assert.Equal(t, MsgChooseOption, out.last())
	assert.Equal(t, 1, store.Get(user.ID).Index)

	// Keyboard is offered again with the rejection.
	assert.Equal(t, [][]string{{"Низкий", "Высокий"}, {"Низкий", "Высокий"}}, out.choices)
}

func TestMachineFileSetGuidanceAndTerminatorCase(t *testing.T) {
	m, _, final := newTestMachine(t)
	ctx := context.Background()
	user := User{ID: 1}
	out := &recordingReplier{}

	require.NoError(t, m.Begin(ctx, user, out))
	require.NoError(t, m.HandleAnswer(ctx, user, TextMessage{Text: "Алиса"}, out))
	require.NoError(t, m.HandleAnswer(ctx, user, TextMessage{Text: "Низкий"}, out))

	require.NoError(t, m.HandleAnswer(ctx, user, TextMessage{Text: "вот файл"}, out))
	assert.Equal(t, MsgSendFileOrDone, out.last())
	assert.Equal(t, 0, final.calls)

	require.NoError(t, m.HandleAnswer(ctx, user, TextMessage{Text: "ГОТОВО"}, out))
	require.Equal(t, 1, final.calls)
	assert.Empty(t, final.answers["files"])
}

func TestMachinePhotoPicksLargestVariant(t *testing.T) {
	m, _, final := newTestMachine(t)
	ctx := context.Background()
	user := User{ID: 1}
	out := &recordingReplier{}

	require.NoError(t, m.Begin(ctx, user, out))
	require.NoError(t, m.HandleAnswer(ctx, user, TextMessage{Text: "Алиса"}, out))
	require.NoError(t, m.HandleAnswer(ctx, user, TextMessage{Text: "Низкий"}, out))

	photo := PhotoAttachment{Sizes: []PhotoSize{
		{Ref: "small", FileSize: 100},
		{Ref: "large", FileSize: 9000},
		{Ref: "medium", FileSize: 500},
	}}
	require.NoError(t, m.HandleAnswer(ctx, user, photo, out))
	require.NoError(t, m.HandleAnswer(ctx, user, TextMessage{Text: "всё"}, out))

	assert.Equal(t, []string{"large"}, final.answers["files"])
}

func TestMachineWithoutSession(t *testing.T) {
	m, _, _ := newTestMachine(t)
	out := &recordingReplier{}

	require.NoError(t, m.HandleAnswer(context.Background(), User{ID: 7}, TextMessage{Text: "привет"}, out))
	assert.Equal(t, MsgNoSession, out.last())
}

func TestMachineAlreadyCollected(t *testing.T) {
	m, store, _ := newTestMachine(t)
	user := User{ID: 7}
	out := &recordingReplier{}

	sess := store.Create(user.ID)
	sess.Index = m.Schema().Len()

	require.NoError(t, m.HandleAnswer(context.Background(), user, TextMessage{Text: "ещё"}, out))
	assert.Equal(t, MsgAlreadyCollected, out.last())
}

func TestMachineBeginRestartsCollection(t *testing.T) {
	m, store, _ := newTestMachine(t)
	ctx := context.Background()
	user := User{ID: 9}
	out := &recordingReplier{}

	require.NoError(t, m.Begin(ctx, user, out))
	require.NoError(t, m.HandleAnswer(ctx, user, TextMessage{Text: "Алиса"}, out))
	require.Equal(t, 1, store.Get(user.ID).Index)

	require.NoError(t, m.Begin(ctx, user, out))
	assert.Equal(t, 0, store.Get(user.ID).Index)
	assert.Empty(t, store.Get(user.ID).Answer("name"))
	assert.Equal(t, "Как вас зовут?", out.last())
}

func TestPhotoBestOnEmpty(t *testing.T) {
	_, ok := PhotoAttachment{}.Best()
	assert.False(t, ok)
}
