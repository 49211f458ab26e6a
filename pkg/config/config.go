package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	AppEnv   string
	HTTPAddr string

	// StoreDriver selects the persistence backend: "sqlite" or "postgres".
	StoreDriver string
	SQLitePath  string
	DatabaseURL string

	LogLevel string

	// OverdueSweepSchedule is a cron spec (robfig/cron syntax, e.g. "@daily").
	// Empty disables the sweep.
	OverdueSweepSchedule string

	ShutdownTimeout time.Duration

	// SMTP settings for the overdue digest. The digest is sent only when
	// both SMTPHost and OverdueReportEmail are set.
	SMTPHost           string
	SMTPPort           string
	SMTPUsername       string
	SMTPPassword       string
	SenderEmail        string
	OverdueReportEmail string
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	_ = godotenv.Load()

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8080"
		}
	}

	return Config{
		AppEnv:               env("APP_ENV", "dev"),
		HTTPAddr:             httpAddr,
		StoreDriver:          strings.ToLower(env("STORE_DRIVER", DriverSQLite)),
		SQLitePath:           env("SQLITE_PATH", "loans.db"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		LogLevel:             env("LOG_LEVEL", "info"),
		OverdueSweepSchedule: envAllowEmpty("OVERDUE_SWEEP_SCHEDULE", "@daily"),
		ShutdownTimeout:      envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		SMTPHost:             os.Getenv("SMTP_HOST"),
		SMTPPort:             env("SMTP_PORT", "587"),
		SMTPUsername:         os.Getenv("SMTP_USERNAME"),
		SMTPPassword:         os.Getenv("SMTP_PASSWORD"),
		SenderEmail:          env("SENDER_EMAIL", "loans@localhost"),
		OverdueReportEmail:   os.Getenv("OVERDUE_REPORT_EMAIL"),
	}
}

// Validate reports configuration that cannot start the service.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// DigestEnabled reports whether overdue digests can be mailed.
func (c Config) DigestEnabled() bool {
	return c.SMTPHost != "" && c.OverdueReportEmail != ""
}

func (c Config) IsProd() bool {
	return c.AppEnv == "prod" || c.AppEnv == "production"
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envAllowEmpty(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return fallback
}
