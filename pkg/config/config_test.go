package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "HTTP_ADDR", "PORT", "STORE_DRIVER", "SQLITE_PATH", "DATABASE_URL", "LOG_LEVEL", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected :8080, got %q", cfg.HTTPAddr)
	}
	if cfg.StoreDriver != DriverSQLite {
		t.Errorf("expected sqlite driver, got %q", cfg.StoreDriver)
	}
	if cfg.SQLitePath != "loans.db" {
		t.Errorf("expected loans.db, got %q", cfg.SQLitePath)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected 10s shutdown timeout, got %s", cfg.ShutdownTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_PortFallback(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("PORT", "9090")

	if got := Load().HTTPAddr; got != ":9090" {
		t.Fatalf("expected :9090, got %q", got)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/loans?sslmode=disable")
	t.Setenv("OVERDUE_SWEEP_SCHEDULE", "")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg := Load()
	if cfg.StoreDriver != DriverPostgres {
		t.Errorf("expected postgres driver, got %q", cfg.StoreDriver)
	}
	if cfg.OverdueSweepSchedule != "" {
		t.Errorf("expected sweep disabled, got %q", cfg.OverdueSweepSchedule)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Errorf("expected 3s, got %s", cfg.ShutdownTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"sqlite ok", Config{StoreDriver: DriverSQLite, SQLitePath: "x.db"}, false},
		{"sqlite no path", Config{StoreDriver: DriverSQLite}, true},
		{"postgres no url", Config{StoreDriver: DriverPostgres}, true},
		{"unknown driver", Config{StoreDriver: "mysql"}, true},
	}
	for _, c := range cases {
		err := c.cfg.Validate()
		if (err != nil) != c.wantErr {
			t.Errorf("%s: got err %v, wantErr %v", c.name, err, c.wantErr)
		}
	}
}

func TestDigestEnabled(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("OVERDUE_REPORT_EMAIL", "")
	t.Setenv("SMTP_PORT", "")

	cfg := Load()
	if cfg.DigestEnabled() {
		t.Error("expected digest disabled without a recipient")
	}
	if cfg.SMTPPort != "587" {
		t.Errorf("expected default SMTP port 587, got %q", cfg.SMTPPort)
	}

	cfg.OverdueReportEmail = "ops@example.com"
	if !cfg.DigestEnabled() {
		t.Error("expected digest enabled with host and recipient")
	}
}
