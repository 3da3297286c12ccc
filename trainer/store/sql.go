package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/trainer"
)

// TemplateChatID holds the default dictionary copied into every new chat.
const TemplateChatID int64 = 0

// SQLStore keeps dictionaries in the dictionaries/dictionary_words tables. Queries use
// "?" placeholders rebound for the connection's driver.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open, migrated database.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

type wordRow struct {
	Position            int    `db:"position"`
	Text                string `db:"text"`
	Translate           string `db:"translate"`
	CorrectAnswersCount int    `db:"correct_answers_count"`
}

const (
	insertMarkerSQL = `INSERT INTO dictionaries (chat_id) VALUES (?) ON CONFLICT (chat_id) DO NOTHING`
	countMarkerSQL  = `SELECT COUNT(*) FROM dictionaries WHERE chat_id = ?`
	copyWordsSQL    = `INSERT INTO dictionary_words (chat_id, position, text, translate, correct_answers_count)
SELECT ?, position, text, translate, correct_answers_count FROM dictionary_words WHERE chat_id = ?`
	selectWordsSQL = `SELECT position, text, translate, correct_answers_count
FROM dictionary_words WHERE chat_id = ? ORDER BY position`
	deleteWordsSQL = `DELETE FROM dictionary_words WHERE chat_id = ?`
	insertWordSQL  = `INSERT INTO dictionary_words (chat_id, position, text, translate, correct_answers_count)
VALUES (?, ?, ?, ?, ?)`
)

func (s *SQLStore) Load(ctx context.Context, chatID int64) (trainer.Dictionary, error) {
	var rows []wordRow
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		created, err := insertMarker(ctx, tx, chatID)
		if err != nil {
			return err
		}
		if created && chatID != TemplateChatID {
			if err := copyTemplate(ctx, tx, chatID); err != nil {
				return err
			}
		}
		return tx.SelectContext(ctx, &rows, tx.Rebind(selectWordsSQL), chatID)
	})
	if err != nil {
		return nil, fmt.Errorf("load chat %d: %w", chatID, err)
	}

	d := make(trainer.Dictionary, 0, len(rows))
	for _, r := range rows {
		if r.Text == "" || r.Translate == "" || r.CorrectAnswersCount < 0 {
			logger.Warn(ctx, logger.CompStore, "record.skip",
				slog.String("path", "dictionary_words"),
				slog.Int("line", r.Position),
				slog.String("reason", "invalid row"),
			)
			continue
		}
		d = append(d, &trainer.Word{Text: r.Text, Translate: r.Translate, CorrectAnswersCount: r.CorrectAnswersCount})
	}
	return d, nil
}

func (s *SQLStore) Save(ctx context.Context, chatID int64, d trainer.Dictionary) error {
	if err := trainer.Validate(d); err != nil {
		return fmt.Errorf("save chat %d: %w", chatID, err)
	}
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := insertMarker(ctx, tx, chatID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(deleteWordsSQL), chatID); err != nil {
			return fmt.Errorf("clear words: %w", err)
		}
		stmt, err := tx.PreparexContext(ctx, tx.Rebind(insertWordSQL))
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()
		for i, w := range d {
			if _, err := stmt.ExecContext(ctx, chatID, i, w.Text, w.Translate, w.CorrectAnswersCount); err != nil {
				return fmt.Errorf("insert word %q: %w", w.Text, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save chat %d: %w", chatID, err)
	}
	logger.Debug(ctx, logger.CompStore, "record.saved",
		slog.String("path", "dictionary_words"),
		slog.Int("words", len(d)),
	)
	return nil
}

// SeedTemplate fills the template dictionary from the record at path unless it already
// exists. A missing file leaves an empty template.
func (s *SQLStore) SeedTemplate(ctx context.Context, path string) error {
	var exists int
	if err := s.db.GetContext(ctx, &exists, s.db.Rebind(countMarkerSQL), TemplateChatID); err != nil {
		return fmt.Errorf("seed template: %w", err)
	}
	if exists > 0 {
		logger.SEED.Debug("template present",
			slog.String("event", "seed.skip"),
			slog.String("status", "skip"),
		)
		return nil
	}

	var d trainer.Dictionary
	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.SEED.Warn("default dictionary missing",
			slog.String("event", "record.default_missing"),
			slog.String("path", path),
		)
	case err != nil:
		return fmt.Errorf("seed template: %w", err)
	default:
		d, err = parseLogged(ctx, f, path)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("seed template: %w", err)
		}
	}

	if err := s.Save(ctx, TemplateChatID, d); err != nil {
		return fmt.Errorf("seed template: %w", err)
	}
	logger.SEED.Info("template seeded",
		slog.String("event", "seed.done"),
		slog.String("path", path),
		slog.Int("words", len(d)),
	)
	return nil
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// insertMarker records that chatID owns a dictionary and reports whether it is new.
func insertMarker(ctx context.Context, tx *sqlx.Tx, chatID int64) (bool, error) {
	res, err := tx.ExecContext(ctx, tx.Rebind(insertMarkerSQL), chatID)
	if err != nil {
		return false, fmt.Errorf("insert marker: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert marker: %w", err)
	}
	return n > 0, nil
}

func copyTemplate(ctx context.Context, tx *sqlx.Tx, chatID int64) error {
	var templates int
	if err := tx.GetContext(ctx, &templates, tx.Rebind(countMarkerSQL), TemplateChatID); err != nil {
		return fmt.Errorf("check template: %w", err)
	}
	if templates == 0 {
		logger.Warn(ctx, logger.CompStore, "record.default_missing",
			slog.String("path", "dictionary_words"),
		)
		return nil
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(copyWordsSQL), chatID, TemplateChatID)
	if err != nil {
		return fmt.Errorf("copy template: %w", err)
	}
	n, _ := res.RowsAffected()
	logger.Info(ctx, logger.CompStore, "record.seeded",
		slog.String("path", "dictionary_words"),
		slog.Int64("words", n),
	)
	return nil
}
