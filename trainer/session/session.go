// Package session keeps the per-chat quiz state: the loaded dictionary and the question
// waiting for an answer. Every operation that mutates the dictionary persists it before
// returning and undoes the in-memory change when persisting fails.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/trainer"
	"github.com/m3rciful/wordbot/trainer/store"
)

var (
	// ErrNoPendingQuestion is returned when an answer arrives before any question was asked.
	ErrNoPendingQuestion = errors.New("no pending question")
	// ErrAnswerOutOfRange is returned for an answer index outside the pending variants.
	ErrAnswerOutOfRange = errors.New("answer index out of range")
)

// Options tune the quiz.
type Options struct {
	LearnedThreshold int
	VariantCount     int
	// NewRand returns the random source of a new session. Nil uses a randomly seeded PCG.
	NewRand func(chatID int64) *rand.Rand
}

func (o Options) withDefaults() Options {
	if o.LearnedThreshold <= 0 {
		o.LearnedThreshold = 3
	}
	if o.VariantCount <= 0 {
		o.VariantCount = 4
	}
	if o.NewRand == nil {
		o.NewRand = func(int64) *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}
	return o
}

// Session is the quiz state of one chat. Its methods are not safe for concurrent use;
// callers go through Do, which serializes events of the chat.
type Session struct {
	mu     sync.Mutex
	chatID int64
	store  store.Store
	opts   Options
	rnd    *rand.Rand

	loaded  bool
	dict    trainer.Dictionary
	pending *trainer.Question
}

// New returns an unloaded session; the dictionary is read on first Do.
func New(chatID int64, st store.Store, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		chatID: chatID,
		store:  st,
		opts:   opts,
		rnd:    opts.NewRand(chatID),
	}
}

// ChatID returns the chat the session belongs to.
func (s *Session) ChatID() int64 { return s.chatID }

// Do runs fn while holding the session lock, loading the dictionary first if needed.
func (s *Session) Do(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	return fn()
}

// ensureLoaded reads the dictionary once. A failed load leaves the session unloaded so the
// next event retries. Callers hold s.mu.
func (s *Session) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	d, err := s.store.Load(ctx, s.chatID)
	if err != nil {
		return fmt.Errorf("session %d: %w", s.chatID, err)
	}
	s.dict = d
	s.loaded = true
	logger.Info(ctx, logger.CompTrainer, "session.loaded",
		slog.Int("words", len(d)),
	)
	return nil
}

// NextQuestion draws a question from unlearned words and makes it the pending one. When
// every word is learned the pending question is cleared and ok is false.
func (s *Session) NextQuestion() (*trainer.Question, bool) {
	q, ok := trainer.NextQuestion(s.rnd, s.dict, s.opts.LearnedThreshold, s.opts.VariantCount)
	s.pending = q
	return q, ok
}

// PendingQuestion returns the last question asked, or nil.
func (s *Session) PendingQuestion() *trainer.Question {
	return s.pending
}

// CheckAnswer verifies index against the pending question. A correct answer increments the
// word and is persisted; the pending question stays in place either way.
func (s *Session) CheckAnswer(ctx context.Context, index int) (bool, error) {
	q := s.pending
	if q == nil {
		return false, ErrNoPendingQuestion
	}
	if index < 0 || index >= len(q.Variants) {
		return false, ErrAnswerOutOfRange
	}
	snapshot := s.dict.Counts()
	if !trainer.CheckAnswer(q, index) {
		return false, nil
	}
	if err := s.store.Save(ctx, s.chatID, s.dict); err != nil {
		s.dict.RestoreCounts(snapshot)
		return false, fmt.Errorf("persist answer: %w", err)
	}
	return true, nil
}

// ImportWords merges the word list read from r and returns how many words were added.
// The input is parsed completely before the dictionary changes.
func (s *Session) ImportWords(ctx context.Context, r io.Reader) (int, error) {
	incoming, err := trainer.ParseImport(r)
	if err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}
	merged, added := trainer.MergeWords(s.dict, incoming)
	if added == 0 {
		return 0, nil
	}
	if err := s.store.Save(ctx, s.chatID, merged); err != nil {
		// s.dict still has its old length; appended words are only visible through merged.
		return 0, fmt.Errorf("persist import: %w", err)
	}
	s.dict = merged
	return added, nil
}

// ResetProgress zeroes every counter and persists the result.
func (s *Session) ResetProgress(ctx context.Context) error {
	snapshot := s.dict.Counts()
	s.dict.ResetProgress()
	if err := s.store.Save(ctx, s.chatID, s.dict); err != nil {
		s.dict.RestoreCounts(snapshot)
		return fmt.Errorf("persist reset: %w", err)
	}
	return nil
}

// Statistics reports progress; ok is false for an empty dictionary.
func (s *Session) Statistics() (trainer.Statistics, bool) {
	return s.dict.Statistics(s.opts.LearnedThreshold)
}

// Len returns the number of words in the dictionary.
func (s *Session) Len() int {
	return len(s.dict)
}
