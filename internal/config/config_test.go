package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearBoardgoEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BOARDGO_HOST", "BOARDGO_PORT", "BOARDGO_SESSION_ID", "BOARDGO_GAME_PACK",
		"BOARDGO_IDEMPOTENCY_CAPACITY",
		"BOARDGO_PERSISTENCE_DRIVER", "BOARDGO_POSTGRES_DSN",
		"BOARDGO_REDIS_ADDR", "BOARDGO_RULES_SEED",
	} {
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearBoardgoEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 0, cfg.Port)
	assert.Equal(t, "default-session", cfg.SessionID)
	assert.Equal(t, "simple-card", cfg.DefaultGamePack)
	assert.Equal(t, 1000, cfg.IdempotencyCapacity)
	assert.Equal(t, DriverNone, cfg.PersistenceDriver)
	assert.Nil(t, cfg.RulesSeed)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	clearBoardgoEnv(t)
	t.Setenv("BOARDGO_PORT", "9000")
	t.Setenv("BOARDGO_PERSISTENCE_DRIVER", "postgres")
	t.Setenv("BOARDGO_RULES_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.PersistenceDriver)
	require.NotNil(t, cfg.RulesSeed)
	assert.EqualValues(t, 42, *cfg.RulesSeed)
}

func TestLoadRejectsInvalidInt(t *testing.T) {
	clearBoardgoEnv(t)
	t.Setenv("BOARDGO_PORT", "not-a-number")
	_, err := Load()
	assert.Error(t, err)
}
