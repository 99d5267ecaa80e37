// Package config loads server configuration the way
// akella44-iam-service/cmd/api/main.go does: a best-effort .env load
// followed by a typed Load() that reads environment variables with
// defaults (spec §4.8.3).
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// PersistenceDriver selects the storage.Store backend.
type PersistenceDriver string

const (
	DriverNone     PersistenceDriver = "none"
	DriverPostgres PersistenceDriver = "postgres"
	DriverRedis    PersistenceDriver = "redis"
)

// Config is the full server configuration surface (spec §4.8.3).
type Config struct {
	Host                string
	Port                int
	SessionID           string
	DefaultGamePack     string
	IdempotencyCapacity int
	PersistenceDriver   PersistenceDriver
	PostgresDSN         string
	RedisAddr           string
	RulesSeed           *int64
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid int for %s: %w", key, err)
	}
	return v, nil
}

// Load reads a .env file if present (missing is not an error) and then
// environment variables, applying the defaults from spec §4.8.3.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getEnvInt("BOARDGO_PORT", 0)
	if err != nil {
		return nil, err
	}
	idempotencyCapacity, err := getEnvInt("BOARDGO_IDEMPOTENCY_CAPACITY", 1000)
	if err != nil {
		return nil, err
	}
	var seed *int64
	if raw, ok := os.LookupEnv("BOARDGO_RULES_SEED"); ok && raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: invalid int64 for BOARDGO_RULES_SEED: %w", err)
		}
		seed = &parsed
	}

	cfg := &Config{
		Host:                getEnv("BOARDGO_HOST", "0.0.0.0"),
		Port:                port,
		SessionID:           getEnv("BOARDGO_SESSION_ID", "default-session"),
		DefaultGamePack:     getEnv("BOARDGO_GAME_PACK", "simple-card"),
		IdempotencyCapacity: idempotencyCapacity,
		PersistenceDriver:   PersistenceDriver(getEnv("BOARDGO_PERSISTENCE_DRIVER", string(DriverNone))),
		PostgresDSN:         getEnv("BOARDGO_POSTGRES_DSN", ""),
		RedisAddr:           getEnv("BOARDGO_REDIS_ADDR", ""),
		RulesSeed:           seed,
	}
	return cfg, nil
}
