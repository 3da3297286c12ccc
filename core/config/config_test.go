package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("run mode = %q", cfg.Telegram.RunMode)
	}
	if cfg.Trainer.LearnedThreshold != 3 || cfg.Trainer.VariantCount != 4 || cfg.Trainer.MaxImportBytes != 1<<20 {
		t.Errorf("trainer defaults = %+v", cfg.Trainer)
	}
	if cfg.Storage.Driver != DriverFile || cfg.Storage.DataDir != "data" || cfg.Storage.DefaultDictionary != "words.txt" {
		t.Errorf("storage defaults = %+v", cfg.Storage)
	}
	if cfg.RateLimit.Burst != 1 {
		t.Errorf("burst = %d", cfg.RateLimit.Burst)
	}
	if err := RequireTelegram(cfg); err == nil {
		t.Error("expected missing token error")
	}
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "run mode", cfg: Config{Telegram: TelegramConfig{RunMode: "carrier-pigeon"}}},
		{name: "webhook without url", cfg: Config{Telegram: TelegramConfig{RunMode: "webhook"}}},
		{name: "exclude update", cfg: Config{RateLimit: RateLimitConfig{ExcludeUpdates: []string{"inline_query"}}}},
		{name: "threshold", cfg: Config{Trainer: TrainerConfig{LearnedThreshold: -1}}},
		{name: "driver", cfg: Config{Storage: StorageConfig{Driver: "mongo"}}},
		{name: "postgres without host", cfg: Config{Storage: StorageConfig{Driver: "postgres"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if err := Normalize(&cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadOverlaysEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
telegram:
  token: from-file
  run_mode: polling
rate_limit:
  exclude_updates: [" Callback "]
trainer:
  variant_count: 6
storage:
  driver: sqlite
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("TRAINER_LEARNED_THRESHOLD", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("run mode = %q", cfg.Telegram.RunMode)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != UpdateCallback {
		t.Errorf("exclude = %v", cfg.RateLimit.ExcludeUpdates)
	}
	if cfg.Trainer.VariantCount != 6 || cfg.Trainer.LearnedThreshold != 5 {
		t.Errorf("trainer = %+v", cfg.Trainer)
	}
	if cfg.Storage.Driver != DriverSQLite || cfg.Storage.Database.SQLitePath != "wordbot.db" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
}
