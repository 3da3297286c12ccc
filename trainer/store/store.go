// Package store persists dictionaries. FileStore keeps one text record per chat; SQLStore
// keeps the same rows in PostgreSQL or SQLite. Both seed a chat from the shared default
// dictionary the first time it is loaded.
package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/trainer"
)

// Store loads and saves the dictionary of one chat.
type Store interface {
	Load(ctx context.Context, chatID int64) (trainer.Dictionary, error)
	Save(ctx context.Context, chatID int64, d trainer.Dictionary) error
}

// parseLogged parses a stored record and logs every skipped line.
func parseLogged(ctx context.Context, r io.Reader, source string) (trainer.Dictionary, error) {
	d, err := trainer.ParseRecord(r, trainer.ParseOptions{
		OnSkip: func(e *trainer.LineError) {
			logger.Warn(ctx, logger.CompStore, "record.skip",
				slog.String("path", source),
				slog.Int("line", e.Line),
				slog.String("reason", e.Err.Error()),
				slog.String("raw", logger.SanitizeLimit(e.Raw, 120)),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	return d, nil
}
