package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/wordbot/core/config"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunFileDriverSkipsDatabase(t *testing.T) {
	cfg := &coreconfig.Config{Storage: coreconfig.StorageConfig{Driver: coreconfig.DriverFile}}
	res, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: noLogger,
		Connect: func(context.Context, coreconfig.StorageConfig) (*sqlx.DB, error) {
			t.Fatal("connect called for file driver")
			return nil, nil
		},
		Modules: Modules{Seeders: []Seeder{SeederFunc(func(context.Context, *sqlx.DB) error {
			t.Fatal("seeder called for file driver")
			return nil
		})}},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.DB != nil {
		t.Fatal("expected no database")
	}
	if err := res.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRunStopsOnFailures(t *testing.T) {
	boom := errors.New("boom")
	cfg := &coreconfig.Config{Storage: coreconfig.StorageConfig{Driver: coreconfig.DriverPostgres}}

	tests := []struct {
		name string
		opts Options
	}{
		{
			name: "nil config",
			opts: Options{LoggerInit: noLogger},
		},
		{
			name: "logger",
			opts: Options{Config: cfg, LoggerInit: func(*coreconfig.Config) error { return boom }},
		},
		{
			name: "connect",
			opts: Options{
				Config:     cfg,
				LoggerInit: noLogger,
				Connect: func(context.Context, coreconfig.StorageConfig) (*sqlx.DB, error) {
					return nil, boom
				},
				Migrate: func(coreconfig.StorageConfig) error {
					t.Fatal("migrate called after failed connect")
					return nil
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Run(context.Background(), tt.opts); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
