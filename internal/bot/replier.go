package bot

import (
	tghelpers "github.com/maxkalashnikow/telegramtobitrixsupportbot/core/telegram/helpers"
	"github.com/maxkalashnikow/telegramtobitrixsupportbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// replier delivers flow replies over the current Telegram context.
// Plain text always clears any open reply keyboard so a stale choice
// keyboard never outlives its question.
type replier struct {
	c tele.Context
}

func (r replier) Text(msg string) error {
	return tghelpers.SendKeyboard(r.c, msg, keyboard.RemoveKeyboard())
}

func (r replier) Choices(msg string, options []string) error {
	return tghelpers.SendKeyboard(r.c, msg, keyboard.OneTimeChoices(options))
}
