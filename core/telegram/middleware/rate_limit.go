package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/wordbot/core/logger"
	tghelpers "github.com/m3rciful/wordbot/core/telegram/helpers"
	"golang.org/x/time/rate"

	tele "gopkg.in/telebot.v4"
)

// Update kinds accepted in RateLimitOptions.Exclude.
const (
	KindCallback = "callback"
	KindMessage  = "message"
	KindDocument = "document"
	KindOther    = "other"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	// Interval is the steady-state spacing between updates of one chat.
	Interval time.Duration
	// Burst is the number of updates accepted back to back; 0 means 1.
	Burst     int
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// IdleTTL drops limiters of chats silent for this long; 0 means ten minutes.
	IdleTTL time.Duration
}

type chatLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// chatLimiters keeps one token bucket per chat.
type chatLimiters struct {
	mu     sync.Mutex
	opts   RateLimitOptions
	byChat map[int64]*chatLimiter
	lastGC time.Time
}

func newChatLimiters(opts RateLimitOptions) *chatLimiters {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 10 * time.Minute
	}
	return &chatLimiters{opts: opts, byChat: make(map[int64]*chatLimiter)}
}

func (l *chatLimiters) allow(chatID int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastGC) > l.opts.IdleTTL {
		for id, cl := range l.byChat {
			if now.Sub(cl.lastSeen) > l.opts.IdleTTL {
				delete(l.byChat, id)
			}
		}
		l.lastGC = now
	}

	cl, ok := l.byChat[chatID]
	if !ok {
		cl = &chatLimiter{lim: rate.NewLimiter(rate.Every(l.opts.Interval), l.opts.Burst)}
		l.byChat[chatID] = cl
	}
	cl.lastSeen = now
	return cl.lim.AllowN(now, 1)
}

// UpdateKind classifies an update for exclusion matching.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return KindCallback
	case upd.Message != nil && upd.Message.Document != nil:
		return KindDocument
	case upd.Message != nil:
		return KindMessage
	default:
		return KindOther
	}
}

// RateLimitMiddleware drops updates of a chat that arrive faster than the configured rate.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	limiters := newChatLimiters(opts)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chatID := tghelpers.ChatID(c)
			if chatID == 0 || opts.Interval <= 0 {
				return next(c)
			}
			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if limiters.allow(chatID, time.Now()) {
				return next(c)
			}

			logger.Warn(tghelpers.BuildContext(c), logger.CompTG, "tg.rate_limit",
				slog.String("kind", kind),
			)
			if kind == KindCallback {
				_ = c.Respond()
			}
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
