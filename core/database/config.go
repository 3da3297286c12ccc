package database

import (
	"fmt"
	"net/url"

	coreconfig "github.com/m3rciful/wordbot/core/config"
)

// DriverName maps a storage driver onto the database/sql driver it opens.
func DriverName(driver string) (string, error) {
	switch driver {
	case coreconfig.DriverPostgres:
		return "postgres", nil
	case coreconfig.DriverSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("database: driver %q has no SQL backend", driver)
	}
}

// DSN returns the connection string passed to sqlx for driver.
func DSN(driver string, cfg coreconfig.DatabaseConfig) string {
	if driver == coreconfig.DriverSQLite {
		return "file:" + cfg.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000"
	}
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode,
	)
}

// MigrateURL returns the database URL understood by golang-migrate for driver.
func MigrateURL(driver string, cfg coreconfig.DatabaseConfig) string {
	if driver == coreconfig.DriverSQLite {
		return "sqlite3://" + cfg.SQLitePath + "?_foreign_keys=on"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + cfg.Port,
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=" + url.QueryEscape(cfg.SSLMode),
	}
	return u.String()
}
