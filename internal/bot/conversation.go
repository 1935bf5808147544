package bot

import (
	"github.com/maxkalashnikow/telegramtobitrixsupportbot/internal/ticket"

	tghelpers "github.com/maxkalashnikow/telegramtobitrixsupportbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// conversation adapts incoming Telegram updates into ticket flow events.
// It serializes processing per user via the store lock, since the bot
// runs handlers concurrently.
type conversation struct {
	machine *ticket.Machine
	store   *ticket.Store
}

func (cv *conversation) Active(userID int64) bool {
	return cv.machine.Active(userID)
}

func (cv *conversation) Handle(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	ev := eventFrom(c.Message())
	if ev == nil {
		return nil
	}

	unlock := cv.store.Lock(sender.ID)
	defer unlock()

	user := ticket.User{ID: sender.ID, Username: sender.Username}
	return cv.machine.HandleAnswer(tghelpers.BuildContext(c), user, ev, replier{c})
}

// eventFrom maps a Telegram message to a flow event. Attachments take
// precedence over caption text; file answers keep the Telegram file ID.
func eventFrom(msg *tele.Message) ticket.Event {
	if msg == nil {
		return nil
	}
	switch {
	case msg.Document != nil:
		return ticket.DocumentAttachment{
			Ref:  msg.Document.FileID,
			Name: msg.Document.FileName,
		}
	case msg.Photo != nil:
		return ticket.PhotoAttachment{
			Sizes: []ticket.PhotoSize{{
				Ref:      msg.Photo.FileID,
				FileSize: msg.Photo.FileSize,
			}},
		}
	default:
		return ticket.TextMessage{Text: msg.Text}
	}
}
