package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maxkalashnikow/telegramtobitrixsupportbot/core/logger"
)

// User identifies the Telegram user driving a conversation.
type User struct {
	ID       int64
	Username string
}

// Replier delivers bot replies without binding the flow to a transport.
// Text replaces any open reply keyboard; Choices shows a one-time
// keyboard with the given options.
type Replier interface {
	Text(msg string) error
	Choices(msg string, options []string) error
}

// Finalizer receives a fully collected session for submission.
// It owns the success/failure reply and must clear the session in
// both outcomes.
type Finalizer interface {
	Finalize(ctx context.Context, user User, sess *Session, out Replier) error
}

// User-facing flow messages.
const (
	MsgNoSession        = "Наберите /new, чтобы создать новую заявку."
	MsgAlreadyCollected = "Данные уже собраны, подождите."
	MsgChooseOption     = "Пожалуйста, выберите один из вариантов на клавиатуре."
	MsgSendFileOrDone   = "Пришлите файл (документ/фото) или напишите «готово», когда закончите."
)

// Machine walks a user through the field schema one answer at a time.
// All methods must be called under the store's per-user lock.
type Machine struct {
	schema *Schema
	store  *Store
	final  Finalizer
}

// NewMachine wires the collection flow.
func NewMachine(schema *Schema, store *Store, final Finalizer) *Machine {
	return &Machine{schema: schema, store: store, final: final}
}

// Schema exposes the field schema the machine runs on.
func (m *Machine) Schema() *Schema {
	return m.schema
}

// Active reports whether the user has an open session.
func (m *Machine) Active(userID int64) bool {
	return m.store.Active(userID)
}

// Begin opens a fresh session and asks the first question.
// A /new during an open session restarts collection from scratch.
func (m *Machine) Begin(ctx context.Context, user User, out Replier) error {
	sess := m.store.Create(user.ID)
	logger.Info(ctx, "service.tickets", "collect.start",
		slog.Int64("user_id", user.ID),
		slog.Int("fields", m.schema.Len()),
	)
	return m.prompt(sess, out)
}

// prompt sends the question for the session's current field.
// Asking again for the same index repeats the identical question.
func (m *Machine) prompt(sess *Session, out Replier) error {
	f := m.schema.Field(sess.Index)
	if f.Kind == KindChoice {
		return out.Choices(f.Prompt, f.Choices)
	}
	return out.Text(f.Prompt)
}

// HandleAnswer applies one incoming event to the user's session.
func (m *Machine) HandleAnswer(ctx context.Context, user User, ev Event, out Replier) error {
	sess := m.store.Get(user.ID)
	if sess == nil {
		return out.Text(MsgNoSession)
	}
	if sess.Index >= m.schema.Len() {
		return out.Text(MsgAlreadyCollected)
	}

	f := m.schema.Field(sess.Index)
	switch f.Kind {
	case KindText:
		return m.handleText(ctx, user, sess, f, ev, out)
	case KindChoice:
		return m.handleChoice(ctx, user, sess, f, ev, out)
	case KindFileSet:
		return m.handleFileSet(ctx, user, sess, f, ev, out)
	}
	return fmt.Errorf("ticket machine: field %q has invalid kind", f.Key)
}

func (m *Machine) handleText(ctx context.Context, user User, sess *Session, f Field, ev Event, out Replier) error {
	msg, ok := ev.(TextMessage)
	if !ok || strings.TrimSpace(msg.Text) == "" {
		return m.prompt(sess, out)
	}
	sess.SetAnswer(f.Key, msg.Text)
	m.logAnswered(ctx, user, sess, f)
	return m.advance(ctx, user, sess, out)
}

func (m *Machine) handleChoice(ctx context.Context, user User, sess *Session, f Field, ev Event, out Replier) error {
	msg, ok := ev.(TextMessage)
	if ok {
		for _, opt := range f.Choices {
			if msg.Text == opt {
				sess.SetAnswer(f.Key, opt)
				m.logAnswered(ctx, user, sess, f)
				return m.advance(ctx, user, sess, out)
			}
		}
	}
	return out.Choices(MsgChooseOption, f.Choices)
}

func (m *Machine) handleFileSet(ctx context.Context, user User, sess *Session, f Field, ev Event, out Replier) error {
	switch e := ev.(type) {
	case DocumentAttachment:
		sess.AppendFile(f.Key, e.Ref)
	case PhotoAttachment:
		best, ok := e.Best()
		if !ok {
			return out.Text(MsgSendFileOrDone)
		}
		sess.AppendFile(f.Key, best.Ref)
	case TextMessage:
		if m.schema.IsTerminator(e.Text) {
			m.logAnswered(ctx, user, sess, f)
			return m.advance(ctx, user, sess, out)
		}
		return out.Text(MsgSendFileOrDone)
	default:
		return out.Text(MsgSendFileOrDone)
	}

	n := sess.FileCount(f.Key)
	logger.Debug(ctx, "service.tickets", "file.received",
		slog.Int64("user_id", user.ID),
		slog.String("field", f.Key),
		slog.Int("files", n),
	)
	return out.Text(fmt.Sprintf("Файл получен (%d). Пришлите ещё или напишите «готово».", n))
}

// advance moves the cursor forward and either asks the next question
// or hands the finished session to the finalizer.
func (m *Machine) advance(ctx context.Context, user User, sess *Session, out Replier) error {
	sess.Index++
	if sess.Index < m.schema.Len() {
		return m.prompt(sess, out)
	}

	logger.Info(ctx, "service.tickets", "collect.complete",
		slog.Int64("user_id", user.ID),
		slog.Int("fields", m.schema.Len()),
	)
	if m.final == nil {
		m.store.Clear(user.ID)
		return nil
	}
	return m.final.Finalize(ctx, user, sess, out)
}

func (m *Machine) logAnswered(ctx context.Context, user User, sess *Session, f Field) {
	logger.Debug(ctx, "service.tickets", "field.answered",
		slog.Int64("user_id", user.ID),
		slog.String("field", f.Key),
		slog.String("field_kind", f.Kind.String()),
		slog.Int("index", sess.Index),
	)
}
