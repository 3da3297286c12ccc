package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot transport settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateDocument identifies document uploads for rate limit exclusions.
	UpdateDocument = "document"
)

// RateLimitConfig holds settings for per-chat rate limiting.
// IntervalMS is the minimum spacing between updates of one chat, Burst the number of updates
// allowed back to back. ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "document": file uploads
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	Burst          int      `yaml:"burst" envconfig:"RATE_LIMIT_BURST"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// TrainerConfig tunes the quiz engine.
type TrainerConfig struct {
	LearnedThreshold int   `yaml:"learned_threshold" envconfig:"TRAINER_LEARNED_THRESHOLD"`
	VariantCount     int   `yaml:"variant_count" envconfig:"TRAINER_VARIANT_COUNT"`
	MaxImportBytes   int64 `yaml:"max_import_bytes" envconfig:"TRAINER_MAX_IMPORT_BYTES"`
}

const (
	// DriverFile keeps one text record per chat on disk.
	DriverFile = "file"
	// DriverPostgres stores dictionaries in PostgreSQL.
	DriverPostgres = "postgres"
	// DriverSQLite stores dictionaries in a SQLite database file.
	DriverSQLite = "sqlite3"
)

// DatabaseConfig holds SQL connection settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// SQLitePath is the database file used by the sqlite3 driver.
	SQLitePath string `yaml:"sqlite_path" envconfig:"DB_SQLITE_PATH"`
}

// StorageConfig selects where dictionaries are persisted.
type StorageConfig struct {
	Driver            string         `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	DataDir           string         `yaml:"data_dir" envconfig:"STORAGE_DATA_DIR"`
	DefaultDictionary string         `yaml:"default_dictionary" envconfig:"STORAGE_DEFAULT_DICTIONARY"`
	Database          DatabaseConfig `yaml:"database"`
}

// Config aggregates the application configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Trainer   TrainerConfig   `yaml:"trainer"`
	Storage   StorageConfig   `yaml:"storage"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the configuration and fills defaults. The Telegram token is checked
// separately by RequireTelegram because offline commands do not need it.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
		UpdateDocument: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, document", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	if cfg.RateLimit.IntervalMS < 0 {
		return fmt.Errorf("rate_limit.interval_ms must be >= 0")
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 1
	}

	if err := normalizeTrainer(&cfg.Trainer); err != nil {
		return err
	}
	return normalizeStorage(&cfg.Storage)
}

func normalizeTrainer(t *TrainerConfig) error {
	if t.LearnedThreshold == 0 {
		t.LearnedThreshold = 3
	}
	if t.VariantCount == 0 {
		t.VariantCount = 4
	}
	if t.MaxImportBytes == 0 {
		t.MaxImportBytes = 1 << 20
	}
	if t.LearnedThreshold < 1 {
		return fmt.Errorf("trainer.learned_threshold must be >= 1")
	}
	if t.VariantCount < 1 {
		return fmt.Errorf("trainer.variant_count must be >= 1")
	}
	if t.MaxImportBytes < 1 {
		return fmt.Errorf("trainer.max_import_bytes must be >= 1")
	}
	return nil
}

func normalizeStorage(s *StorageConfig) error {
	driver := strings.ToLower(strings.TrimSpace(s.Driver))
	switch driver {
	case "":
		driver = DriverFile
	case "postgresql", "pg":
		driver = DriverPostgres
	case "sqlite":
		driver = DriverSQLite
	}
	s.Driver = driver

	if strings.TrimSpace(s.DataDir) == "" {
		s.DataDir = "data"
	}
	if strings.TrimSpace(s.DefaultDictionary) == "" {
		s.DefaultDictionary = "words.txt"
	}

	switch driver {
	case DriverFile:
	case DriverPostgres:
		if strings.TrimSpace(s.Database.Host) == "" || strings.TrimSpace(s.Database.Name) == "" {
			return fmt.Errorf("storage.database.host and storage.database.name are required for driver %q", driver)
		}
		if s.Database.Port == "" {
			s.Database.Port = "5432"
		}
		if s.Database.SSLMode == "" {
			s.Database.SSLMode = "disable"
		}
	case DriverSQLite:
		if strings.TrimSpace(s.Database.SQLitePath) == "" {
			s.Database.SQLitePath = "wordbot.db"
		}
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: file, postgres, sqlite3", s.Driver)
	}
	if s.Database.MaxConnections <= 0 {
		s.Database.MaxConnections = 4
	}
	return nil
}

// RequireTelegram reports whether the bot transport can be started.
func RequireTelegram(cfg *Config) error {
	if cfg == nil || strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram token is required")
	}
	return nil
}
