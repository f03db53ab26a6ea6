// Package openrouter implements the OpenAI-compatible chat-completion
// provider client. One Client instance serves one model tier; the tier-1
// and tier-2 chain entries are two instances with different models and
// output-token caps.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/leadfunnel/opportunity-analyzer/internal/adapter/ai/tokencount"
	"github.com/leadfunnel/opportunity-analyzer/internal/domain"
	"github.com/leadfunnel/opportunity-analyzer/internal/observability"
)

const temperature = 0.7

// Backoff tunes retry behavior for transient upstream failures.
type Backoff struct {
	MaxElapsedTime  time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// Options configures one chain entry.
type Options struct {
	// Name labels this entry in logs and metrics, e.g. "openrouter-primary".
	Name         string
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	SystemPrompt string
	Timeout      time.Duration
	Backoff      Backoff
}

// Client calls the chat completions endpoint for a single model.
type Client struct {
	opts    Options
	hc      *http.Client
	counter *tokencount.Counter
}

// New constructs a client with its own bounded-timeout HTTP client.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		opts:    opts,
		hc:      &http.Client{Timeout: timeout},
		counter: tokencount.NewCounter(),
	}
}

// Name implements domain.ProviderClient.
func (c *Client) Name() string { return c.opts.Name }

// Model implements domain.ProviderClient.
func (c *Client) Model() string { return c.opts.Model }

// Configured reports whether an API key is present. The orchestrator
// skips unconfigured entries without paying a network timeout.
func (c *Client) Configured() bool { return c.opts.APIKey != "" }

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends the prompt as a single chat turn and returns the raw
// message content with usage. 429 and 5xx are retried with bounded
// backoff; 4xx is permanent; the orchestrator handles everything beyond
// that via fallback.
func (c *Client) Complete(ctx context.Context, prompt string) (*domain.Completion, error) {
	lg := observability.LoggerFromContext(ctx)
	if !c.Configured() {
		// Cheap failure before any network I/O.
		return nil, fmt.Errorf("%w: %s: api key missing", domain.ErrProviderNotConfigured, c.opts.Name)
	}

	body := map[string]any{
		"model":       c.opts.Model,
		"temperature": temperature,
		"max_tokens":  c.opts.MaxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": c.opts.SystemPrompt},
			{"role": "user", "content": prompt},
		},
		"response_format": map[string]string{"type": "json_object"},
	}
	b, _ := json.Marshal(body)

	endpoint := c.opts.BaseURL + "/chat/completions"
	var out chatResponse
	op := func() error {
		// Recreate the request each attempt to avoid reusing a consumed body.
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
		if err != nil {
			return backoff.Permanent(err)
		}
		r.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
		r.Header.Set("Content-Type", "application/json")

		resp, err := c.hc.Do(r)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			lg.Warn("provider rate limited",
				"provider", c.opts.Name,
				"model", c.opts.Model,
				"status", resp.StatusCode)
			return fmt.Errorf("%w: %s: status 429", domain.ErrUpstreamStatus, c.opts.Name)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			lg.Warn("provider 4xx",
				"provider", c.opts.Name,
				"model", c.opts.Model,
				"status", resp.StatusCode,
				"body", bodySnippet(raw))
			return backoff.Permanent(fmt.Errorf("%w: %s: status %d", domain.ErrUpstreamStatus, c.opts.Name, resp.StatusCode))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			lg.Error("provider non-2xx",
				"provider", c.opts.Name,
				"model", c.opts.Model,
				"status", resp.StatusCode,
				"body", bodySnippet(raw))
			return fmt.Errorf("%w: %s: status %d", domain.ErrUpstreamStatus, c.opts.Name, resp.StatusCode)
		}

		if err := json.Unmarshal(raw, &out); err != nil {
			lg.Error("provider decode error",
				"provider", c.opts.Name,
				"model", c.opts.Model,
				"error", err)
			return backoff.Permanent(fmt.Errorf("decode %s response: %w", c.opts.Name, err))
		}
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	if c.opts.Backoff.MaxElapsedTime > 0 {
		expo.MaxElapsedTime = c.opts.Backoff.MaxElapsedTime
		expo.InitialInterval = c.opts.Backoff.InitialInterval
		expo.MaxInterval = c.opts.Backoff.MaxInterval
		expo.Multiplier = c.opts.Backoff.Multiplier
	}
	if err := backoff.Retry(op, backoff.WithContext(expo, ctx)); err != nil {
		return nil, fmt.Errorf("%s model %s: %w", c.opts.Name, c.opts.Model, err)
	}

	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%w: %s model %s", domain.ErrEmptyCompletion, c.opts.Name, c.opts.Model)
	}
	text := out.Choices[0].Message.Content

	usage := domain.TokenUsage{
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
		TotalTokens:      out.Usage.TotalTokens,
		Model:            c.opts.Model,
	}
	if usage.TotalTokens == 0 {
		usage.PromptTokens = c.counter.CountChat(c.opts.SystemPrompt, prompt, c.opts.Model)
		usage.CompletionTokens = c.counter.Count(text, c.opts.Model)
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
		usage.Estimated = true
	}
	return &domain.Completion{Text: text, Usage: usage}, nil
}

func bodySnippet(raw []byte) string {
	if len(raw) > 512 {
		raw = raw[:512]
	}
	return string(raw)
}
