package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultDBPath     = "./dev.db"
	defaultPort       = "8080"
	defaultConfigFile = "buffet.toml"
	defaultSessionTTL = 12 * time.Hour
	dotEnvFile        = ".env"

	// EnvConfigPath names the variable that points at the TOML file.
	EnvConfigPath = "BUFFET_CONFIG"
)

// Duration lets TOML files spell durations as "12h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds application configuration. Values come from defaults, an
// optional TOML file, a .env file and the environment, later sources winning.
type Config struct {
	Env              string   `toml:"app_env"`
	Port             string   `toml:"port"`
	DBPath           string   `toml:"db_path"`
	AdminEmail       string   `toml:"admin_email"`
	AdminPassword    string   `toml:"admin_password"`
	SessionSecret    string   `toml:"session_secret"`
	SessionTTL       Duration `toml:"session_ttl"`
	DemoEnabled      bool     `toml:"demo_enabled"`
	LogLevel         string   `toml:"log_level"`
	ReportFixedCosts string   `toml:"report_fixed_costs"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Env:              "development",
		Port:             defaultPort,
		DBPath:           defaultDBPath,
		SessionTTL:       Duration{defaultSessionTTL},
		DemoEnabled:      true,
		LogLevel:         "info",
		ReportFixedCosts: "all",
	}
}

// IsDev reports whether the app runs in development mode.
func (c Config) IsDev() bool {
	return c.Env == "" || strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "dev")
}

// Warnings lists settings that are missing but not fatal.
func (c Config) Warnings() []string {
	var out []string
	if c.AdminEmail == "" {
		out = append(out, "ADMIN_EMAIL is not set")
	}
	if c.AdminPassword == "" {
		out = append(out, "ADMIN_PASSWORD is not set")
	}
	if c.SessionSecret == "" {
		out = append(out, "SESSION_SECRET is not set")
	}
	return out
}

// Load builds the configuration. path names a TOML file; when empty,
// BUFFET_CONFIG is consulted and then buffet.toml in the working directory.
// An explicitly named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if !explicit {
		path = defaultConfigFile
	}
	if err := loadFile(path, explicit, &cfg); err != nil {
		return cfg, err
	}

	// Best-effort: load local dev environment variables.
	// We don't fail if the file is missing; production should use real env injection.
	if err := loadDotEnv(dotEnvFile); err != nil {
		return cfg, fmt.Errorf("load %s: %w", dotEnvFile, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, required bool, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"APP_ENV":            &cfg.Env,
		"PORT":               &cfg.Port,
		"DB_PATH":            &cfg.DBPath,
		"ADMIN_EMAIL":        &cfg.AdminEmail,
		"ADMIN_PASSWORD":     &cfg.AdminPassword,
		"SESSION_SECRET":     &cfg.SessionSecret,
		"LOG_LEVEL":          &cfg.LogLevel,
		"REPORT_FIXED_COSTS": &cfg.ReportFixedCosts,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = Duration{ttl}
	}
	if v := os.Getenv("DEMO_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse DEMO_ENABLED: %w", err)
		}
		cfg.DemoEnabled = enabled
	}
	return nil
}
