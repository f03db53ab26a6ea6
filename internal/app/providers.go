package app

import (
	"github.com/leadfunnel/opportunity-analyzer/internal/adapter/ai/huggingface"
	"github.com/leadfunnel/opportunity-analyzer/internal/adapter/ai/openrouter"
	"github.com/leadfunnel/opportunity-analyzer/internal/config"
	"github.com/leadfunnel/opportunity-analyzer/internal/domain"
	"github.com/leadfunnel/opportunity-analyzer/internal/usecase"
)

// BuildProviderChain assembles the fixed-priority fallback chain from
// configuration: the tier-1 OpenRouter model, the cheaper tier-2 model,
// then the Hugging Face path, keyed or anonymous. Unconfigured entries
// stay in the chain; the orchestrator skips them for free.
func BuildProviderChain(cfg config.Config) []domain.ProviderClient {
	maxElapsed, initial, maxIvl, mult := cfg.AIBackoffConfig()
	bo := openrouter.Backoff{
		MaxElapsedTime:  maxElapsed,
		InitialInterval: initial,
		MaxInterval:     maxIvl,
		Multiplier:      mult,
	}

	primary := openrouter.New(openrouter.Options{
		Name:         "openrouter-primary",
		APIKey:       cfg.OpenRouterAPIKey,
		BaseURL:      cfg.OpenRouterBaseURL,
		Model:        cfg.PrimaryModel,
		MaxTokens:    cfg.PrimaryMaxTokens,
		SystemPrompt: usecase.SystemPrompt,
		Timeout:      cfg.ProviderTimeout,
		Backoff:      bo,
	})
	secondary := openrouter.New(openrouter.Options{
		Name:         "openrouter-secondary",
		APIKey:       cfg.OpenRouterAPIKey,
		BaseURL:      cfg.OpenRouterBaseURL,
		Model:        cfg.SecondaryModel,
		MaxTokens:    cfg.SecondaryMaxTokens,
		SystemPrompt: usecase.SystemPrompt,
		Timeout:      cfg.ProviderTimeout,
		Backoff:      bo,
	})
	hf := huggingface.New(huggingface.Options{
		Name:         "huggingface",
		APIKey:       cfg.HFAPIKey,
		BaseURL:      cfg.HFBaseURL,
		Model:        cfg.HFModel,
		MaxNewTokens: cfg.HFMaxNewTokens,
		SystemPrompt: usecase.SystemPrompt,
		Timeout:      cfg.ProviderTimeout,
	})

	return []domain.ProviderClient{primary, secondary, hf}
}
