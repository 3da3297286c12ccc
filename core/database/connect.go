package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	coreconfig "github.com/m3rciful/wordbot/core/config"
	"github.com/m3rciful/wordbot/core/logger"
)

const (
	readyTimeout = 30 * time.Second
	readyBackoff = 2 * time.Second
)

// Connect opens the SQL database behind storage, configures the pool and waits until it
// answers pings.
func Connect(ctx context.Context, storage coreconfig.StorageConfig) (*sqlx.DB, error) {
	sqlDriver, err := DriverName(storage.Driver)
	if err != nil {
		return nil, err
	}
	cfg := storage.Database
	if sqlDriver == "sqlite3" {
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("db connect: create %s: %w", dir, err)
			}
		}
	}

	start := time.Now()
	db, err := sqlx.Open(sqlDriver, DSN(storage.Driver, cfg))
	if err == nil {
		err = waitForDB(ctx, db, readyTimeout)
		if err != nil {
			_ = db.Close()
		}
	}
	took := time.Since(start)
	if err != nil {
		logger.DB.Error("db connect failed",
			slog.String("event", "db.connect"),
			slog.String("driver", sqlDriver),
			slog.String("host", cfg.Host),
			slog.String("db", target(sqlDriver, cfg)),
			slog.Duration("duration", took),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	pool := cfg.MaxConnections
	if sqlDriver == "sqlite3" {
		// One writer at a time; extra connections only produce SQLITE_BUSY.
		pool = 1
	}
	db.SetMaxOpenConns(pool)
	db.SetMaxIdleConns(pool)

	logger.DB.Info("db connected",
		slog.String("event", "db.connect"),
		slog.String("driver", sqlDriver),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", target(sqlDriver, cfg)),
		slog.Int("pool_open", pool),
		slog.Duration("duration", took),
	)
	return db, nil
}

// waitForDB pings until the server accepts connections, the timeout passes or ctx ends.
func waitForDB(ctx context.Context, db *sqlx.DB, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	attempt := 0
	for {
		attempt++
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		logger.DB.Debug("db not ready",
			slog.String("event", "db.ping"),
			slog.Int("attempts", attempt),
			slog.String("err", err.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout reached waiting for database: %w", err)
		case <-time.After(readyBackoff):
		}
	}
}

func target(sqlDriver string, cfg coreconfig.DatabaseConfig) string {
	if sqlDriver == "sqlite3" {
		return cfg.SQLitePath
	}
	return cfg.Name
}
