package router

import (
	"log/slog"

	tg "github.com/m3rciful/wordbot/core/telegram"
	"github.com/m3rciful/wordbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute routes every button press through the registry by its raw token.
// The press is acknowledged before the handler runs so the client spinner stops.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		token := callbacks.ContextToken(c)
		name := "callback." + callbacks.HandlerName(token)
		extras := []slog.Attr{slog.String("cb_key", token)}

		_ = c.Respond()

		h, ok := reg.GetCallback(token)
		if !ok {
			h = reg.CallbackNotFound()
			extras = append(extras, slog.String("reason", "not_found"))
		}
		return handleWithSummary(c, name, func() error {
			if h == nil {
				return nil
			}
			return h(c)
		}, extras...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: wrap(handler)}
}
