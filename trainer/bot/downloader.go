package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/trainer/dispatch"

	tele "gopkg.in/telebot.v4"
)

// ErrBotNotReady is returned by Fetch before the bot API is attached.
var ErrBotNotReady = errors.New("bot api not attached")

// FileAPI is the part of *tele.Bot used to download documents.
type FileAPI interface {
	FileByID(fileID string) (tele.File, error)
	Download(file *tele.File, localFilename string) error
}

// Downloader fetches uploaded documents into temporary files. It implements dispatch.Fetcher.
type Downloader struct {
	api atomic.Pointer[FileAPI]
	dir string
}

var _ dispatch.Fetcher = (*Downloader)(nil)

// NewDownloader stores temporary files under dir; an empty dir means os.TempDir().
func NewDownloader(dir string) *Downloader {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Downloader{dir: dir}
}

// Attach sets the API used for downloads. The bot only exists once the transport started.
func (d *Downloader) Attach(api FileAPI) {
	d.api.Store(&api)
}

// Fetch downloads ref. Closing the returned reader deletes the temporary file.
func (d *Downloader) Fetch(ctx context.Context, ref dispatch.FileRef) (io.ReadCloser, error) {
	api := d.api.Load()
	if api == nil || *api == nil {
		return nil, ErrBotNotReady
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := (*api).FileByID(ref.ID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	path := filepath.Join(d.dir, "upload-"+uuid.NewString()+".txt")
	if err := (*api).Download(&file, path); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("download file: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("open download: %w", err)
	}
	logger.Debug(ctx, logger.CompTG, "file.downloaded",
		slog.String("file_name", logger.SanitizeLimit(ref.Name, 64)),
		slog.String("path", path),
	)
	return &tempFile{File: f}, nil
}

type tempFile struct {
	*os.File
}

func (t *tempFile) Close() error {
	return errors.Join(t.File.Close(), os.Remove(t.File.Name()))
}
