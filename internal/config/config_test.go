package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.OpenRouterBaseURL)
	assert.Equal(t, "openai/gpt-4o", cfg.PrimaryModel)
	assert.Equal(t, 2048, cfg.PrimaryMaxTokens)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.SecondaryModel)
	assert.Equal(t, 1024, cfg.SecondaryMaxTokens)
	assert.Equal(t, "mistralai/Mistral-7B-Instruct-v0.3", cfg.HFModel)
	assert.Equal(t, 30*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 10.0, cfg.DailyBudgetUSD)
	assert.Equal(t, 0.7, cfg.BudgetWarnRatio)
	assert.Equal(t, 0.9, cfg.BudgetCritRatio)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 30, cfg.RateLimitPerMin)
	assert.Equal(t, 110*time.Second, cfg.RequestTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PORT", "9090")
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("DAILY_BUDGET_USD", "25.5")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "sk-test", cfg.OpenRouterAPIKey)
	assert.Equal(t, 25.5, cfg.DailyBudgetUSD)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.True(t, cfg.IsProd())
	assert.False(t, cfg.IsDev())
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
}

func TestConfig_EnvPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, Config{AppEnv: "dev"}.IsDev())
	assert.True(t, Config{AppEnv: "DEV"}.IsDev())
	assert.True(t, Config{AppEnv: "test"}.IsTest())
	assert.True(t, Config{AppEnv: "prod"}.IsProd())
	assert.False(t, Config{AppEnv: "prod"}.IsDev())
}

func TestConfig_AIBackoffConfig(t *testing.T) {
	t.Parallel()

	cfg := Config{
		AppEnv:                   "prod",
		AIBackoffMaxElapsedTime:  20 * time.Second,
		AIBackoffInitialInterval: time.Second,
		AIBackoffMaxInterval:     8 * time.Second,
		AIBackoffMultiplier:      1.5,
	}
	maxElapsed, initial, maxInt, mult := cfg.AIBackoffConfig()
	assert.Equal(t, 20*time.Second, maxElapsed)
	assert.Equal(t, time.Second, initial)
	assert.Equal(t, 8*time.Second, maxInt)
	assert.Equal(t, 1.5, mult)

	cfg.AppEnv = "test"
	maxElapsed, initial, _, _ = cfg.AIBackoffConfig()
	assert.Equal(t, 2*time.Second, maxElapsed, "tests must retry on short intervals")
	assert.Equal(t, 50*time.Millisecond, initial)
}
