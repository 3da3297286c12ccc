package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/wordbot/core/bootstrap"
	coreconfig "github.com/m3rciful/wordbot/core/config"
	"github.com/m3rciful/wordbot/core/logger"
	tg "github.com/m3rciful/wordbot/core/telegram"
	"github.com/m3rciful/wordbot/core/telegram/router"
	"github.com/m3rciful/wordbot/trainer/dispatch"
	"github.com/m3rciful/wordbot/trainer/session"
	"github.com/m3rciful/wordbot/trainer/store"
)

// App holds the quiz services built from one configuration.
type App struct {
	cfg        *coreconfig.Config
	infra      *bootstrap.Result
	Store      store.Store
	Sessions   *session.Registry
	Dispatcher *dispatch.Dispatcher
	downloader *Downloader
}

// New bootstraps logging and storage and wires the quiz services. SQL storage gets the
// default dictionary seeded as its template.
func New(ctx context.Context, cfg *coreconfig.Config) (*App, error) {
	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config: cfg,
		Modules: bootstrap.Modules{Seeders: []bootstrap.Seeder{
			bootstrap.SeederFunc(func(ctx context.Context, db *sqlx.DB) error {
				return store.NewSQLStore(db).SeedTemplate(ctx, cfg.Storage.DefaultDictionary)
			}),
		}},
	})
	if err != nil {
		return nil, err
	}

	var st store.Store
	if infra.DB != nil {
		st = store.NewSQLStore(infra.DB)
	} else {
		st = store.NewFileStore(cfg.Storage.DataDir, cfg.Storage.DefaultDictionary)
	}
	return NewWithStore(cfg, st, infra), nil
}

// NewWithStore wires the quiz services on top of st. infra may be nil.
func NewWithStore(cfg *coreconfig.Config, st store.Store, infra *bootstrap.Result) *App {
	sessions := session.NewRegistry(st, session.Options{
		LearnedThreshold: cfg.Trainer.LearnedThreshold,
		VariantCount:     cfg.Trainer.VariantCount,
	})
	downloader := NewDownloader("")
	return &App{
		cfg:      cfg,
		infra:    infra,
		Store:    st,
		Sessions: sessions,
		Dispatcher: dispatch.New(sessions, downloader, dispatch.Options{
			MaxImportBytes: cfg.Trainer.MaxImportBytes,
		}),
		downloader: downloader,
	}
}

// TelegramRunOptions registers the quiz routes and lifecycle hooks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	if err := NewAdapter(a.Dispatcher).Register(reg); err != nil {
		return tg.RunOptions{}, fmt.Errorf("register quiz handlers: %w", err)
	}

	routes := router.CommandRoutes(reg)
	routes = append(routes, router.TextRoutes(reg)...)
	routes = append(routes, router.CallbackRoute(reg))

	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			a.downloader.Attach(rt.Bot)
			logger.Info(ctx, logger.CompTrainer, "quiz.ready",
				slog.String("storage", a.cfg.Storage.Driver),
				slog.Int("learned_threshold", a.cfg.Trainer.LearnedThreshold),
				slog.Int("variant_count", a.cfg.Trainer.VariantCount),
			)
			return nil
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			logger.Info(ctx, logger.CompTrainer, "quiz.stopped",
				slog.Int("sessions", a.Sessions.Len()),
			)
			return nil
		},
	}, nil
}

// Close releases the storage infrastructure.
func (a *App) Close() error {
	return a.infra.Close()
}
