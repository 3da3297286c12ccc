package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/trainer/session"
)

var (
	// ErrImportTooLarge is returned for uploads above the configured limit.
	ErrImportTooLarge = errors.New("import file too large")
	// ErrNoFetcher is returned for file events when downloads are not configured.
	ErrNoFetcher = errors.New("file fetcher not configured")
)

// Options tune the dispatcher.
type Options struct {
	// MaxImportBytes caps uploaded word lists; 0 means 1 MiB.
	MaxImportBytes int64
}

// Dispatcher maps events onto sessions from its registry.
type Dispatcher struct {
	registry *session.Registry
	fetcher  Fetcher
	opts     Options
}

// New returns a dispatcher. fetcher may be nil when file imports are not supported.
func New(registry *session.Registry, fetcher Fetcher, opts Options) *Dispatcher {
	if opts.MaxImportBytes <= 0 {
		opts.MaxImportBytes = 1 << 20
	}
	return &Dispatcher{registry: registry, fetcher: fetcher, opts: opts}
}

// Dispatch handles ev and returns the replies to send, in order. A non-nil error is meant
// for logging; the replies already tell the user what went wrong.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) ([]Reply, error) {
	switch ev.Kind {
	case KindText, KindButton, KindFile:
	default:
		return nil, nil
	}
	// Every handled event resolves the chat first, so the chat record exists from /start on.
	if _, err := d.registry.GetOrCreate(ctx, ev.ChatID); err != nil {
		return []Reply{{ChatID: ev.ChatID, Text: msgLoadFailed}}, err
	}

	switch ev.Kind {
	case KindText:
		return d.handleText(ev), nil
	case KindButton:
		return d.handleButton(ctx, ev)
	default:
		return d.handleFile(ctx, ev)
	}
}

func (d *Dispatcher) handleText(ev Event) []Reply {
	if IsStartCommand(ev.Text) {
		return []Reply{menu(ev.ChatID)}
	}
	return []Reply{{ChatID: ev.ChatID, Text: truncate(msgEchoPrefix + ev.Text)}}
}

func (d *Dispatcher) handleButton(ctx context.Context, ev Event) ([]Reply, error) {
	if ev.Token == TokenMainMenu {
		return []Reply{menu(ev.ChatID)}, nil
	}
	if !IsKnownToken(ev.Token) {
		logger.Debug(ctx, logger.CompTrainer, "token.unknown",
			slog.String("token", logger.SanitizeLimit(ev.Token, 64)),
		)
		return nil, nil
	}

	var replies []Reply
	err := d.withSession(ctx, ev.ChatID, func(sess *session.Session) error {
		var err error
		switch ev.Token {
		case TokenLearn:
			replies = learn(ctx, sess)
		case TokenStatistics:
			replies = statistics(sess)
		case TokenReset:
			replies, err = reset(ctx, sess)
		default:
			replies, err = answer(ctx, sess, ev.Token)
		}
		return err
	})
	if err != nil && replies == nil {
		replies = []Reply{{ChatID: ev.ChatID, Text: msgLoadFailed}}
	}
	return replies, err
}

func (d *Dispatcher) handleFile(ctx context.Context, ev Event) ([]Reply, error) {
	fail := func(text string, err error) ([]Reply, error) {
		return []Reply{{ChatID: ev.ChatID, Text: truncate(text)}}, err
	}
	if ev.File.Size > d.opts.MaxImportBytes {
		return fail(fmt.Sprintf(msgImportTooBig, d.opts.MaxImportBytes), ErrImportTooLarge)
	}
	if d.fetcher == nil {
		return fail(msgFetchFailed, ErrNoFetcher)
	}

	data, err := d.fetch(ctx, ev.File)
	if errors.Is(err, ErrImportTooLarge) {
		return fail(fmt.Sprintf(msgImportTooBig, d.opts.MaxImportBytes), err)
	}
	if err != nil {
		return fail(msgFetchFailed, err)
	}

	var added int
	err = d.withSession(ctx, ev.ChatID, func(sess *session.Session) error {
		var err error
		added, err = sess.ImportWords(ctx, bytes.NewReader(data))
		return err
	})
	if err != nil {
		return fail(fmt.Sprintf(msgImportFailed, err), err)
	}
	logger.Info(ctx, logger.CompTrainer, "import.done",
		slog.String("path", logger.SanitizeLimit(ev.File.Name, 64)),
		slog.Int("size", len(data)),
		slog.Int("added", added),
	)
	if added == 0 {
		return []Reply{{ChatID: ev.ChatID, Text: msgImportNothing}}, nil
	}
	return []Reply{{ChatID: ev.ChatID, Text: fmt.Sprintf(msgImportDone, added)}}, nil
}

// fetch reads the whole upload so parsing completes before the dictionary is touched.
func (d *Dispatcher) fetch(ctx context.Context, ref FileRef) ([]byte, error) {
	rc, err := d.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref.ID, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, d.opts.MaxImportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref.ID, err)
	}
	if int64(len(data)) > d.opts.MaxImportBytes {
		return nil, ErrImportTooLarge
	}
	return data, nil
}

func (d *Dispatcher) withSession(ctx context.Context, chatID int64, fn func(*session.Session) error) error {
	sess, err := d.registry.GetOrCreate(ctx, chatID)
	if err != nil {
		return err
	}
	return sess.Do(ctx, func() error { return fn(sess) })
}

func menu(chatID int64) Reply {
	return Reply{ChatID: chatID, Text: msgMenu, Choices: menuChoices()}
}

func learn(ctx context.Context, sess *session.Session) []Reply {
	q, ok := sess.NextQuestion()
	if !ok {
		return []Reply{{ChatID: sess.ChatID(), Text: msgAllLearned}}
	}
	logger.Debug(ctx, logger.CompTrainer, "question.issued",
		slog.Int("variants", len(q.Variants)),
	)
	return []Reply{{ChatID: sess.ChatID(), Text: q.CorrectAnswer.Text, Choices: questionChoices(q)}}
}

func statistics(sess *session.Session) []Reply {
	stats, ok := sess.Statistics()
	if !ok {
		return []Reply{{ChatID: sess.ChatID(), Text: msgEmpty}}
	}
	return []Reply{{ChatID: sess.ChatID(), Text: statisticsText(stats)}}
}

func reset(ctx context.Context, sess *session.Session) ([]Reply, error) {
	if err := sess.ResetProgress(ctx); err != nil {
		return []Reply{{ChatID: sess.ChatID(), Text: msgSaveFailed}}, err
	}
	logger.Info(ctx, logger.CompTrainer, "progress.reset",
		slog.Int("words", sess.Len()),
	)
	return []Reply{{ChatID: sess.ChatID(), Text: msgResetDone}}, nil
}

func answer(ctx context.Context, sess *session.Session, token string) ([]Reply, error) {
	chatID := sess.ChatID()
	stale := []Reply{{ChatID: chatID, Text: msgStale}, menu(chatID)}

	index, _, err := ParseAnswerToken(token)
	if err != nil {
		return stale, nil
	}
	q := sess.PendingQuestion()
	correct, err := sess.CheckAnswer(ctx, index)
	switch {
	case errors.Is(err, session.ErrNoPendingQuestion), errors.Is(err, session.ErrAnswerOutOfRange):
		logger.Debug(ctx, logger.CompTrainer, "answer.stale",
			slog.String("token", token),
			slog.String("reason", err.Error()),
		)
		return stale, nil
	case err != nil:
		return []Reply{{ChatID: chatID, Text: msgSaveFailed}}, err
	}

	logger.Debug(ctx, logger.CompTrainer, "answer.checked",
		slog.Bool("correct", correct),
	)
	verdict := Reply{ChatID: chatID, Text: msgCorrect}
	if !correct {
		verdict.Text = incorrectText(q.CorrectAnswer)
	}
	return append([]Reply{verdict}, learn(ctx, sess)...), nil
}
