package domain

import (
	"context"
	"time"
)

// TokenUsage is the usage accounting metadata attached to a completion.
// When a provider does not report usage it is estimated locally.
type TokenUsage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Estimated        bool   `json:"estimated,omitempty"`
	Model            string `json:"model,omitempty"`
}

// Completion is a successful raw provider response.
type Completion struct {
	Text  string
	Usage TokenUsage
}

// ProviderClient sends one prompt to one upstream model and either
// returns the raw text plus usage, or fails with a typed error. Retrying
// a failed provider is the client's own concern (bounded backoff on
// transient statuses); falling back to another provider is the
// orchestrator's.
type ProviderClient interface {
	// Name identifies the provider for logs and metrics.
	Name() string
	// Model is the upstream model identifier used for cost accounting.
	Model() string
	// Configured reports whether the client holds the credentials it
	// needs. Unconfigured clients must fail without network I/O.
	Configured() bool
	Complete(ctx context.Context, prompt string) (*Completion, error)
}

// UsageStore is the injected persistence for advisory usage counters.
// Implementations may be in-memory or backed by an external cache; the
// accountant tolerates loss and eventual-consistency drift.
type UsageStore interface {
	// Get returns the stored value for key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Keys lists all keys currently held by the store.
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
	// Ping reports backend health for readiness checks.
	Ping(ctx context.Context) error
}
