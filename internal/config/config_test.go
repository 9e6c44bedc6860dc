package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "s3cret")
	t.Setenv("DEDUCTION_BOT_TOKEN", "tok")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 16, cfg.SessionLimit)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("DEDUCTION_BOT_TOKEN", "tok")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresSomeBotToken(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "s3cret")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no bot token")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "s3cret")
	t.Setenv("COUNCIL_BOT_TOKEN", "tok2")
	t.Setenv("SESSION_LIMIT", "3")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.SessionLimit)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, "tok2", cfg.CouncilBotToken)
}
