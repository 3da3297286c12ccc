package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/trainer"
)

// FileStore keeps the record of chat N in <dir>/N.txt.
type FileStore struct {
	dir         string
	defaultPath string
}

// NewFileStore returns a store rooted at dir that seeds new chats from defaultPath.
func NewFileStore(dir, defaultPath string) *FileStore {
	return &FileStore{dir: dir, defaultPath: defaultPath}
}

// Path returns the record path of chatID.
func (s *FileStore) Path(chatID int64) string {
	return filepath.Join(s.dir, strconv.FormatInt(chatID, 10)+".txt")
}

func (s *FileStore) Load(ctx context.Context, chatID int64) (trainer.Dictionary, error) {
	path := s.Path(chatID)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		data, err = s.seed(ctx, path)
	}
	if err != nil {
		return nil, fmt.Errorf("load chat %d: %w", chatID, err)
	}
	return parseLogged(ctx, bytes.NewReader(data), path)
}

// seed copies the default record to path and returns its content.
func (s *FileStore) seed(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(s.defaultPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn(ctx, logger.CompStore, "record.default_missing",
			slog.String("path", s.defaultPath),
		)
		data = nil
	case err != nil:
		return nil, fmt.Errorf("read default dictionary: %w", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return nil, err
	}
	logger.Info(ctx, logger.CompStore, "record.seeded",
		slog.String("path", path),
		slog.Int("size", len(data)),
	)
	return data, nil
}

func (s *FileStore) Save(ctx context.Context, chatID int64, d trainer.Dictionary) error {
	var buf bytes.Buffer
	if err := trainer.EncodeRecord(&buf, d); err != nil {
		return fmt.Errorf("save chat %d: %w", chatID, err)
	}
	path := s.Path(chatID)
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("save chat %d: %w", chatID, err)
	}
	logger.Debug(ctx, logger.CompStore, "record.saved",
		slog.String("path", path),
		slog.Int("words", len(d)),
	)
	return nil
}

// writeAtomic replaces path with data through a temp file in the same directory.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp record: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp record: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace record: %w", err)
	}
	return nil
}
