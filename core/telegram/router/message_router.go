package router

import (
	"time"

	tg "github.com/maxkalashnikow/telegramtobitrixsupportbot/core/telegram"
	"github.com/maxkalashnikow/telegramtobitrixsupportbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Conversation is the minimal interface for an in-progress dialog flow.
// Active reports whether the user currently has an open conversation;
// Handle forwards the update into the flow.
type Conversation interface {
	Active(userID int64) bool
	Handle(c tele.Context) error
}

// MessageOptions controls fallback behaviour for text/attachment updates.
type MessageOptions struct {
	UnknownText       tele.HandlerFunc
	UnknownAttachment tele.HandlerFunc
}

// MessageRoutes builds handlers routing text, document and photo updates.
// Text goes to the conversation first, then to registered commands, then to
// the registry fallback; attachments only make sense inside a conversation.
func MessageRoutes(conv Conversation, reg *tg.Registry, opts MessageOptions) []tg.Route {
	textHandler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if conv != nil && conv.Active(c.Sender().ID) {
			return handleWithSummary(c, "conversation", start, "", "", func() error {
				return conv.Handle(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	attachmentHandler := func(name string) tele.HandlerFunc {
		return func(c tele.Context) error {
			start := time.Now()
			if conv != nil && conv.Active(c.Sender().ID) {
				return handleWithSummary(c, name, start, "", "", func() error {
					return conv.Handle(c)
				})
			}
			if opts.UnknownAttachment != nil {
				return handleWithSummary(c, "unexpected_"+name, start, "", "", func() error {
					return opts.UnknownAttachment(c)
				})
			}
			logHandlerSummary(c, "unexpected_"+name, start, "skip", "ok", nil)
			return nil
		}
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(textHandler)),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(attachmentHandler("document"))),
		},
		{
			Endpoint: tele.OnPhoto,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(attachmentHandler("photo"))),
		},
	}
}
