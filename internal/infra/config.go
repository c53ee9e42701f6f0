package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Snapshot store backends selectable via SNAPSHOT_STORE.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	SnapshotStore    string
	DatabaseURL      string
	SQLitePath       string
	AutosaveInterval time.Duration
	HistoryLimit     int
	AllowedOrigins   []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		SnapshotStore:    getEnv("SNAPSHOT_STORE", StoreSQLite),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SQLitePath:       getEnv("SQLITE_PATH", "canvasd.db"),
		AutosaveInterval: time.Second * time.Duration(getEnvInt("AUTOSAVE_INTERVAL_SECONDS", 30)),
		HistoryLimit:     getEnvInt("HISTORY_LIMIT", 50),
		AllowedOrigins:   splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
	}

	switch cfg.SnapshotStore {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when SNAPSHOT_STORE=%s", StorePostgres)
		}
	case StoreSQLite:
		// SQLITE_PATH has a default; nothing to validate.
	default:
		return nil, fmt.Errorf("unsupported SNAPSHOT_STORE %q", cfg.SnapshotStore)
	}

	if cfg.HistoryLimit <= 0 {
		return nil, fmt.Errorf("HISTORY_LIMIT must be positive")
	}
	if cfg.AutosaveInterval <= 0 {
		return nil, fmt.Errorf("AUTOSAVE_INTERVAL_SECONDS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
