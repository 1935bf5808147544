package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maxkalashnikow/telegramtobitrixsupportbot/core/logger"
)

// BitrixAPI creates CRM items from collected field values.
type BitrixAPI interface {
	AddItem(ctx context.Context, fields map[string]string) (string, error)
}

// Archive persists submission outcomes. Implementations must tolerate
// being called for failed submissions too.
type Archive interface {
	Record(ctx context.Context, rec SubmissionRecord) error
}

// SubmissionRecord is one archived submission attempt.
type SubmissionRecord struct {
	UserID   int64
	Username string
	Title    string
	Fields   map[string]string
	ItemID   string
	OK       bool
	Error    string
}

// Submission outcome messages.
const (
	MsgSubmitOK   = "Заявка создана в Bitrix24.\nID элемента смарт-процесса: %s"
	MsgSubmitFail = "Ошибка при создании заявки в Bitrix24. Сообщите администратору."
)

// Submitter maps a finished session to CRM fields and sends it.
// The session is cleared whether the CRM call succeeds or fails, so
// the user always returns to a clean state.
type Submitter struct {
	api         BitrixAPI
	schema      *Schema
	store       *Store
	archive     Archive
	titlePrefix string
}

// NewSubmitter wires a Submitter. The archive may be nil.
func NewSubmitter(api BitrixAPI, schema *Schema, store *Store, archive Archive, titlePrefix string) *Submitter {
	return &Submitter{
		api:         api,
		schema:      schema,
		store:       store,
		archive:     archive,
		titlePrefix: titlePrefix,
	}
}

// Title builds the CRM item title from the requester identity,
// preferring the @username and falling back to the numeric ID.
func (s *Submitter) Title(user User) string {
	who := strings.TrimSpace(user.Username)
	if who != "" {
		return fmt.Sprintf("%s @%s", s.titlePrefix, who)
	}
	return fmt.Sprintf("%s %d", s.titlePrefix, user.ID)
}

// BuildFields flattens collected answers into the CRM field map.
// FileSet answers join into one newline-separated value.
func (s *Submitter) BuildFields(user User, sess *Session) map[string]string {
	fields := map[string]string{
		"TITLE": s.Title(user),
	}
	for _, f := range s.schema.Fields() {
		values := sess.Answer(f.Key)
		switch f.Kind {
		case KindFileSet:
			fields[f.BitrixField] = strings.Join(values, "\n")
		default:
			if len(values) > 0 {
				fields[f.BitrixField] = values[0]
			} else {
				fields[f.BitrixField] = ""
			}
		}
	}
	return fields
}

// Finalize submits the collected ticket and reports the outcome to the
// user. The session is cleared before replying in both branches.
func (s *Submitter) Finalize(ctx context.Context, user User, sess *Session, out Replier) error {
	fields := s.BuildFields(user, sess)

	itemID, err := s.api.AddItem(ctx, fields)
	s.store.Clear(user.ID)

	rec := SubmissionRecord{
		UserID:   user.ID,
		Username: user.Username,
		Title:    fields["TITLE"],
		Fields:   fields,
		ItemID:   itemID,
		OK:       err == nil,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	s.record(ctx, rec)

	if err != nil {
		logger.Error(ctx, "service.tickets", "submit.fail",
			slog.Int64("user_id", user.ID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return out.Text(MsgSubmitFail)
	}

	logger.Info(ctx, "service.tickets", "submit.ok",
		slog.Int64("user_id", user.ID),
		slog.String("item_id", itemID),
	)
	return out.Text(fmt.Sprintf(MsgSubmitOK, itemID))
}

func (s *Submitter) record(ctx context.Context, rec SubmissionRecord) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Record(ctx, rec); err != nil {
		logger.Warn(ctx, "service.tickets", "archive.fail",
			slog.Int64("user_id", rec.UserID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}
