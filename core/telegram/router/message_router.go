package router

import (
	"time"

	tg "github.com/m3rciful/wordbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// TextRoutes builds the text and document endpoints. Text is matched against command
// aliases first, then handed to the registry's text fallback.
func TextRoutes(reg *tg.Registry) []tg.Route {
	textHandler := func(c tele.Context) error {
		if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
			return handleWithSummary(c, normalizeHandlerName(key), func() error {
				return cmd.Handler(c)
			})
		}
		if fb := reg.TextFallback(); fb != nil {
			return handleWithSummary(c, "text", func() error { return fb(c) })
		}
		logHandlerSummary(c, "unknown_text", time.Now(), "skip", nil)
		return nil
	}

	docHandler := func(c tele.Context) error {
		if h := reg.DocumentHandler(); h != nil {
			return handleWithSummary(c, "document", func() error { return h(c) })
		}
		logHandlerSummary(c, "unexpected_document", time.Now(), "skip", nil)
		return nil
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(textHandler)},
		{Endpoint: tele.OnDocument, Handler: wrap(docHandler)},
	}
}
