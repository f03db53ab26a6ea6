// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration parsed from environment
// variables. A missing provider API key disables that provider's attempt;
// it never crashes the process.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"8080"`

	// Provider A: OpenRouter (OpenAI-compatible chat completions).
	// The primary model is the higher-tier path; the secondary is the
	// cheaper degradation step with a smaller output-token cap.
	OpenRouterAPIKey   string `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL  string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	PrimaryModel       string `env:"PRIMARY_MODEL" envDefault:"openai/gpt-4o"`
	PrimaryMaxTokens   int    `env:"PRIMARY_MAX_TOKENS" envDefault:"2048"`
	SecondaryModel     string `env:"SECONDARY_MODEL" envDefault:"openai/gpt-4o-mini"`
	SecondaryMaxTokens int    `env:"SECONDARY_MAX_TOKENS" envDefault:"1024"`

	// Provider B: Hugging Face inference. Works anonymously when no key
	// is set; the key only lifts rate limits.
	HFAPIKey       string `env:"HF_API_KEY"`
	HFBaseURL      string `env:"HF_BASE_URL" envDefault:"https://api-inference.huggingface.co"`
	HFModel        string `env:"HF_MODEL" envDefault:"mistralai/Mistral-7B-Instruct-v0.3"`
	HFMaxNewTokens int    `env:"HF_MAX_NEW_TOKENS" envDefault:"1024"`

	// ProviderTimeout bounds each individual provider call; the chain is
	// walked sequentially so total latency is the sum of failed attempts.
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"30s"`

	// Backoff tuning for transient provider failures (429/5xx) within a
	// single chain entry.
	AIBackoffMaxElapsedTime  time.Duration `env:"AI_BACKOFF_MAX_ELAPSED_TIME" envDefault:"20s"`
	AIBackoffInitialInterval time.Duration `env:"AI_BACKOFF_INITIAL_INTERVAL" envDefault:"1s"`
	AIBackoffMaxInterval     time.Duration `env:"AI_BACKOFF_MAX_INTERVAL" envDefault:"8s"`
	AIBackoffMultiplier      float64       `env:"AI_BACKOFF_MULTIPLIER" envDefault:"1.5"`

	// Advisory cost accounting.
	DailyBudgetUSD  float64 `env:"DAILY_BUDGET_USD" envDefault:"10"`
	BudgetWarnRatio float64 `env:"BUDGET_WARN_RATIO" envDefault:"0.7"`
	BudgetCritRatio float64 `env:"BUDGET_CRIT_RATIO" envDefault:"0.9"`

	// RedisURL selects the redis-backed usage store; empty falls back to
	// the in-memory store.
	RedisURL string `env:"REDIS_URL"`

	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin       int           `env:"RATE_LIMIT_PER_MIN" envDefault:"30"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"120s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	RequestTimeout        time.Duration `env:"REQUEST_TIMEOUT" envDefault:"110s"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"opportunity-analyzer"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// AIBackoffConfig returns backoff tuning appropriate for the current
// environment. Tests get short intervals so failures resolve quickly.
func (c Config) AIBackoffConfig() (maxElapsedTime, initialInterval, maxInterval time.Duration, multiplier float64) {
	if c.IsTest() {
		return 2 * time.Second, 50 * time.Millisecond, 500 * time.Millisecond, 2.0
	}
	return c.AIBackoffMaxElapsedTime, c.AIBackoffInitialInterval, c.AIBackoffMaxInterval, c.AIBackoffMultiplier
}
