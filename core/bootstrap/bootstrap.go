package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/wordbot/core/config"
	coredatabase "github.com/m3rciful/wordbot/core/database"
	"github.com/m3rciful/wordbot/core/logger"
)

// Options control the bootstrap pipeline. Nil hooks use the core implementations.
type Options struct {
	Config  *coreconfig.Config
	Modules Modules

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coreconfig.StorageConfig) (*sqlx.DB, error)
	Migrate    func(coreconfig.StorageConfig) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	// DB is nil for the file storage driver.
	DB *sqlx.DB
}

// Close releases the database handle, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger and, for SQL storage drivers, connects to the database,
// applies migrations and runs the seeders.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	storage := opts.Config.Storage
	if storage.Driver == coreconfig.DriverFile {
		logger.Info(ctx, logger.CompApp, "storage.ready",
			slog.String("driver", storage.Driver),
			slog.String("data_dir", storage.DataDir),
		)
		return &Result{}, nil
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}

	db, err := connect(ctx, storage)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	res := &Result{DB: db}
	if err := migrate(storage); err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	for i, seeder := range opts.Modules.Seeders {
		start := time.Now()
		if err := seeder.Seed(ctx, db); err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: seeder %d failed: %w", i, err)
		}
		logger.SEED.LogAttrs(ctx, slog.LevelDebug, "seed",
			slog.String("event", "seed.done"),
			slog.Int("seeder", i),
			slog.Duration("duration", time.Since(start)),
		)
	}

	logger.Info(ctx, logger.CompApp, "storage.ready",
		slog.String("driver", storage.Driver),
		slog.Int("seeders", len(opts.Modules.Seeders)),
	)
	return res, nil
}
