package bot

import (
	tghelpers "github.com/maxkalashnikow/telegramtobitrixsupportbot/core/telegram/helpers"
	"github.com/maxkalashnikow/telegramtobitrixsupportbot/internal/ticket"

	tele "gopkg.in/telebot.v4"
)

const msgGreeting = "Привет! Я бот для создания заявки в Bitrix24.\n" +
	"Напишите /new, чтобы создать новую заявку."

func (a *App) handleStart(c tele.Context) error {
	return tghelpers.SendText(c, msgGreeting)
}

// handleNew starts ticket collection. Calling /new during an open
// session discards the old answers and restarts from the first field.
func (a *App) handleNew(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	unlock := a.store.Lock(sender.ID)
	defer unlock()

	user := ticket.User{ID: sender.ID, Username: sender.Username}
	return a.machine.Begin(tghelpers.BuildContext(c), user, replier{c})
}

// handleUnknownText answers free-form text outside any open session.
func (a *App) handleUnknownText(c tele.Context) error {
	return tghelpers.SendText(c, ticket.MsgNoSession)
}
