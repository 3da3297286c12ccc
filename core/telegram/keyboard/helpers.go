package keyboard

import (
	"github.com/samber/lo"
	tele "gopkg.in/telebot.v4"
)

// InlineBtn is an inline button whose callback data is sent back verbatim.
type InlineBtn struct {
	Text string
	Data string
}

// RemoveKeyboard returns a markup that hides the keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// InlineButtons builds an inline keyboard where each provided button is placed on its own row.
func InlineButtons(buttons []InlineBtn) *tele.ReplyMarkup {
	return InlineButtonsNPerRow(buttons, 1)
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn. Empty rows are dropped;
// nil is returned when no button is left.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		inline = append(inline, lo.Map(row, func(b InlineBtn, _ int) tele.InlineButton {
			return tele.InlineButton{Text: b.Text, Data: b.Data}
		}))
	}
	if len(inline) == 0 {
		return nil
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}

// InlineButtonsNPerRow splits a flat list of buttons into rows with up to n buttons per row.
func InlineButtonsNPerRow(buttons []InlineBtn, n int) *tele.ReplyMarkup {
	if n < 1 {
		n = 1
	}
	return InlineButtonsRows(lo.Chunk(buttons, n)...)
}
