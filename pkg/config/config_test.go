package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("LITE_WORKERS", "")
	t.Setenv("TOP_N", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 6, cfg.Scan.LiteWorkers)
	assert.Equal(t, 10, cfg.Scan.FullWorkers)
	assert.Equal(t, 200, cfg.Scan.TopN)
	assert.Equal(t, 7, cfg.Scan.FinalMinScore)
	assert.Equal(t, 20, cfg.Scan.CheckpointInterval)
	assert.Equal(t, 30*time.Second, cfg.Scan.TaskTimeout)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("LITE_WORKERS", "15")
	t.Setenv("TOP_N", "30")
	t.Setenv("FINAL_MIN_SCORE", "6")
	t.Setenv("TASK_TIMEOUT", "45s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 15, cfg.Scan.LiteWorkers)
	assert.Equal(t, 30, cfg.Scan.TopN)
	assert.Equal(t, 6, cfg.Scan.FinalMinScore)
	assert.Equal(t, 45*time.Second, cfg.Scan.TaskTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"invalid env", "ENV", "invalid"},
		{"zero workers", "FULL_WORKERS", "0"},
		{"score out of range", "FINAL_MIN_SCORE", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))
		})
	}
}

func TestRequireDART(t *testing.T) {
	cfg := &Config{}
	err := cfg.RequireDART()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)

	cfg.DART.APIKey = "key"
	assert.NoError(t, cfg.RequireDART())
}

func TestTelegramEnabled(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.TelegramEnabled())

	cfg.Telegram.BotToken = "token"
	assert.False(t, cfg.TelegramEnabled())

	cfg.Telegram.ChatID = "123"
	assert.True(t, cfg.TelegramEnabled())
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_DURATION", "2h")
	t.Setenv("TEST_INT", "100")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BAD_INT", "abc")

	assert.Equal(t, 2*time.Hour, getEnvAsDuration("TEST_DURATION", "1h"))
	assert.Equal(t, time.Hour, getEnvAsDuration("TEST_MISSING_DURATION", "1h"))
	assert.Equal(t, 100, getEnvAsInt("TEST_INT", 50))
	assert.Equal(t, 50, getEnvAsInt("TEST_BAD_INT", 50))
	assert.True(t, getEnvAsBool("TEST_BOOL", false))
}
