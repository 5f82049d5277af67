package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		APIFootballKey: "key",
		LookBackDays:   1,
		LookAheadDays:  1,
		BackfillHour:   2,
	}
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	missingKey := validConfig()
	missingKey.APIFootballKey = ""
	assert.Error(t, missingKey.Validate())

	negativeWindow := validConfig()
	negativeWindow.LookBackDays = -1
	assert.Error(t, negativeWindow.Validate())

	badHour := validConfig()
	badHour.BackfillHour = 24
	assert.Error(t, badHour.Validate())
}

func TestConfig_PersistenceEnabled(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.PersistenceEnabled())

	cfg.PostgresHost = "localhost"
	cfg.PostgresPort = 5432
	cfg.PostgresUser = "user"
	cfg.PostgresPassword = "secret"
	assert.False(t, cfg.PersistenceEnabled(), "database name still missing")

	cfg.PostgresDB = "fixtures"
	assert.True(t, cfg.PersistenceEnabled())
}

func TestConfig_RedisAddr(t *testing.T) {
	cfg := &Config{RedisHost: "cache.internal", RedisPort: 6380}
	assert.Equal(t, "cache.internal:6380", cfg.RedisAddr())
}
