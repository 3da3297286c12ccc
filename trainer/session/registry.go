package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/trainer/store"
)

// Registry owns one Session per chat. Sessions are created on first use and live for the
// life of the process.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	store    store.Store
	opts     Options
}

// NewRegistry returns an empty registry whose sessions persist through st.
func NewRegistry(st store.Store, opts Options) *Registry {
	return &Registry{
		sessions: make(map[int64]*Session),
		store:    st,
		opts:     opts.withDefaults(),
	}
}

// GetOrCreate returns the session of chatID and makes sure its dictionary is loaded. The
// registry lock only covers the map; loading happens under the session's own lock.
func (r *Registry) GetOrCreate(ctx context.Context, chatID int64) (*Session, error) {
	r.mu.Lock()
	sess, ok := r.sessions[chatID]
	if !ok {
		sess = New(chatID, r.store, r.opts)
		r.sessions[chatID] = sess
	}
	r.mu.Unlock()

	if !ok {
		logger.Debug(ctx, logger.CompTrainer, "session.created",
			slog.Int("sessions", r.Len()),
		)
	}
	if err := sess.Do(ctx, func() error { return nil }); err != nil {
		return nil, err
	}
	return sess, nil
}

// Len returns the number of sessions created so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
