package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/wordbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// recentUpdates remembers processed update ids so a receipt is logged once even when the
// middleware wraps several routes.
type recentUpdates struct {
	mu   sync.Mutex
	seen map[int]time.Time
	ttl  time.Duration
}

var received = &recentUpdates{seen: make(map[int]time.Time), ttl: 10 * time.Second}

func (r *recentUpdates) firstTime(updateID int, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ts := range r.seen {
		if now.Sub(ts) > r.ttl {
			delete(r.seen, id)
		}
	}
	if _, ok := r.seen[updateID]; ok {
		return false
	}
	r.seen[updateID] = now
	return true
}

// LoggerMiddleware assigns the request id, stores the logging context on c and logs a
// sampled receipt line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if _, ok := tghelpers.ContextFrom(c); ok {
			return next(c)
		}

		upd := c.Update()
		var userID int64
		user := c.Sender()
		if user != nil {
			userID = user.ID
		}
		chatID := tghelpers.ChatID(c)

		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set(tghelpers.RIDKey, rid)
		ctx := tghelpers.BuildContext(c)

		if logger.ShouldSampleDebug() && received.firstTime(upd.ID, time.Now()) {
			logReceipt(ctx, c, user)
		}
		return next(c)
	}
}

func logReceipt(ctx context.Context, c tele.Context, user *tele.User) {
	upd := c.Update()
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user != nil {
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}

	switch {
	case upd.Callback != nil:
		attrs = append(attrs, slog.String("kind", "callback"),
			slog.String("cb_key", logger.SanitizeLimit(callbacks.Token(upd.Callback), 128)))
	case upd.Message != nil && upd.Message.Document != nil:
		doc := upd.Message.Document
		attrs = append(attrs, slog.String("kind", "document"),
			slog.String("file_name", logger.SanitizeLimit(doc.FileName, 128)),
			slog.Int64("file_size", doc.FileSize))
	case upd.Message != nil:
		attrs = append(attrs, slog.String("kind", "message"))
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
	}
	logger.LogEvent(ctx, logger.Component(logger.CompTG), slog.LevelDebug, "update.received", attrs...)
}
