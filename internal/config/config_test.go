package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvConfigPath, "APP_ENV", "PORT", "DB_PATH", "ADMIN_EMAIL", "ADMIN_PASSWORD",
		"SESSION_SECRET", "SESSION_TTL", "DEMO_ENABLED", "LOG_LEVEL", "REPORT_FIXED_COSTS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DBPath != "./dev.db" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.SessionTTL.Duration != 12*time.Hour || !cfg.DemoEnabled || cfg.ReportFixedCosts != "all" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if !cfg.IsDev() {
		t.Fatalf("expected development mode by default")
	}
	if len(cfg.Warnings()) != 3 {
		t.Fatalf("expected 3 warnings, got %v", cfg.Warnings())
	}
}

func TestLoad_FileThenEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "buffet.toml")
	content := []byte(`
app_env = "production"
port = "9090"
db_path = "/var/lib/buffet/buffet.db"
session_ttl = "30m"
demo_enabled = false
report_fixed_costs = "month"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORT", "7070")
	t.Setenv("ADMIN_EMAIL", "admin@buffet.test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IsDev() {
		t.Fatalf("expected production mode")
	}
	if cfg.Port != "7070" {
		t.Fatalf("Port=%q, want env override 7070", cfg.Port)
	}
	if cfg.DBPath != "/var/lib/buffet/buffet.db" || cfg.SessionTTL.Duration != 30*time.Minute {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.DemoEnabled || cfg.ReportFixedCosts != "month" || cfg.AdminEmail != "admin@buffet.test" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte(`log_level = "debug"`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel=%q, want debug", cfg.LogLevel)
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}

	t.Setenv("SESSION_TTL", "soon")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for invalid SESSION_TTL")
	}

	t.Setenv("SESSION_TTL", "")
	t.Setenv("DEMO_ENABLED", "maybe")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for invalid DEMO_ENABLED")
	}
}
