package middleware

import (
	"github.com/samber/lo"

	tghelpers "github.com/m3rciful/wordbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// countingContext counts replies sent through tele.Context.Send. Quiz replies go through
// tghelpers.SendTextTo, which counts on its own.
type countingContext struct{ tele.Context }

func (c countingContext) Send(what interface{}, opts ...interface{}) error {
	err := c.Context.Send(what, opts...)
	if err == nil {
		tghelpers.CountMessage(c.Context, lo.ContainsBy(opts, hasMarkup))
	}
	return err
}

func hasMarkup(opt interface{}) bool {
	switch v := opt.(type) {
	case *tele.SendOptions:
		return v != nil && v.ReplyMarkup != nil
	case *tele.ReplyMarkup:
		return v != nil
	}
	return false
}

// MessageMetricsMiddleware resets the per-update reply counters read by the handler summary.
// Nested routes share the counters of the outermost call.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if _, counting := c.Get(tghelpers.MessagesKey).(int); counting {
			return next(c)
		}
		c.Set(tghelpers.MessagesKey, 0)
		c.Set(tghelpers.KeyboardKey, false)
		return next(countingContext{Context: c})
	}
}
