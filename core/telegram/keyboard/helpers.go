package keyboard

import tele "gopkg.in/telebot.v4"

// RemoveKeyboard returns a markup that hides the reply keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons builds a reply keyboard from rows of text.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	var kb []tele.Row
	for _, row := range rows {
		var buttons []tele.Btn
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		kb = append(kb, markup.Row(buttons...))
	}
	markup.Reply(kb...)
	return markup
}

// OneTimeChoices builds a one-time reply keyboard with each option on its own
// row, in the given order. The keyboard disappears once the user taps a button.
func OneTimeChoices(options []string) *tele.ReplyMarkup {
	rows := make([][]string, 0, len(options))
	for _, opt := range options {
		rows = append(rows, []string{opt})
	}
	markup := ReplyButtons(rows...)
	markup.OneTimeKeyboard = true
	return markup
}
