package router

import (
	"log/slog"

	"github.com/m3rciful/wordbot/core/logger"
	tg "github.com/m3rciful/wordbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes exposes every registered command as its own bot endpoint.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}
	routes := make([]tg.Route, 0, len(reg.Commands()))
	for name, def := range reg.Commands() {
		h := def.Handler
		handlerName := normalizeHandlerName(name)
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler: wrap(func(c tele.Context) error {
				return handleWithSummary(c, handlerName, func() error { return h(c) })
			}),
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
