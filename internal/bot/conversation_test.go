package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxkalashnikow/telegramtobitrixsupportbot/internal/ticket"

	tele "gopkg.in/telebot.v4"
)

func TestEventFromDocument(t *testing.T) {
	msg := &tele.Message{
		Document: &tele.Document{
			File:     tele.File{FileID: "doc-id"},
			FileName: "report.pdf",
		},
		Caption: "вложение",
	}

	ev := eventFrom(msg)
	doc, ok := ev.(ticket.DocumentAttachment)
	require.True(t, ok)
	assert.Equal(t, "doc-id", doc.Ref)
	assert.Equal(t, "report.pdf", doc.Name)
}

func TestEventFromPhoto(t *testing.T) {
	msg := &tele.Message{
		Photo: &tele.Photo{
			File: tele.File{FileID: "photo-id", FileSize: 1024},
		},
	}

	ev := eventFrom(msg)
	photo, ok := ev.(ticket.PhotoAttachment)
	require.True(t, ok)

	best, ok := photo.Best()
	require.True(t, ok)
	assert.Equal(t, "photo-id", best.Ref)
}

func TestEventFromText(t *testing.T) {
	ev := eventFrom(&tele.Message{Text: "готово"})
	text, ok := ev.(ticket.TextMessage)
	require.True(t, ok)
	assert.Equal(t, "готово", text.Text)
}

func TestEventFromNil(t *testing.T) {
	assert.Nil(t, eventFrom(nil))
}

func TestConversationActive(t *testing.T) {
	store := ticket.NewStore()
	machine := ticket.NewMachine(ticket.DefaultSchema(), store, nil)
	conv := &conversation{machine: machine, store: store}

	assert.False(t, conv.Active(5))
	store.Create(5)
	assert.True(t, conv.Active(5))
}
