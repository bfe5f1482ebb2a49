/*
Package config loads runtime configuration from the environment.

PURPOSE:
  One place that knows every knob the server reads. A .env file in the
  working directory is loaded first (ignored when absent), then real
  environment variables override it, then command-line flags override
  both in main.

VARIABLES:
  PORT             HTTP port (default 8080)
  STORE_BACKEND    memory | jsonfile | sqlite | postgres (default sqlite)
  STORE_PATH       File path for jsonfile/sqlite backends
  DATABASE_URL     DSN for the postgres backend
  JWT_SECRET       HMAC key for session tokens
  ADMIN_USERNAME   Bootstrap admin account (default admin)
  ADMIN_PASSWORD   Bootstrap admin credential (default admin)
  ENV              dev | prod, controls log format (default dev)
  LOG_LEVEL        zerolog level name (default info)

SEE ALSO:
  - cmd/server/main.go: Flag overrides and wiring
*/
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Store backend selectors.
const (
	BackendMemory   = "memory"
	BackendJSONFile = "jsonfile"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config is the resolved server configuration.
type Config struct {
	Port         int
	StoreBackend string
	StorePath    string
	DatabaseURL  string
	JWTSecret    string
	AdminUser    string
	AdminPass    string
	Env          string
	LogLevel     string
}

// Load reads .env (if present) and the environment into a Config.
func Load() (*Config, error) {
	// Absence of a .env file is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		Port:         8080,
		StoreBackend: getenv("STORE_BACKEND", BackendSQLite),
		StorePath:    getenv("STORE_PATH", "slotkeeper.db"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		JWTSecret:    getenv("JWT_SECRET", "dev-only-secret"),
		AdminUser:    getenv("ADMIN_USERNAME", "admin"),
		AdminPass:    getenv("ADMIN_PASSWORD", "admin"),
		Env:          getenv("ENV", "dev"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
	}

	if raw := os.Getenv("PORT"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &cfg.Port); err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", raw, err)
		}
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendJSONFile, BackendSQLite, BackendPostgres:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	if cfg.StoreBackend == BackendPostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
	}

	return cfg, nil
}

// IsProd reports whether the server runs with production settings.
func (c *Config) IsProd() bool { return c.Env == "prod" }

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
