// Package huggingface implements the Provider B chain entry against the
// Hugging Face inference API. The request and response shapes differ per
// model, so the prompt is reshaped before send and the payload parsed
// defensively on return. The client works anonymously; an API key only
// lifts rate limits, so a missing key does not mark it unconfigured.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leadfunnel/opportunity-analyzer/internal/adapter/ai/tokencount"
	"github.com/leadfunnel/opportunity-analyzer/internal/domain"
	"github.com/leadfunnel/opportunity-analyzer/internal/observability"
)

// Options configures the inference call.
type Options struct {
	Name         string
	APIKey       string
	BaseURL      string
	Model        string
	MaxNewTokens int
	SystemPrompt string
	Timeout      time.Duration
}

// Client calls a model-specific inference URL.
type Client struct {
	opts    Options
	hc      *http.Client
	counter *tokencount.Counter
}

// New constructs a client with a bounded-timeout HTTP client.
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

// Configured is true whenever a model is set; anonymous calls are allowed.
func (c *Client) Configured() bool { return c.opts.Model != "" }

// Complete reshapes the prompt into the inference payload and parses the
// array-wrapped or object-shaped response. Usage is always estimated
// locally since the API reports none.
func (c *Client) Complete(ctx context.Context, prompt string) (*domain.Completion, error) {
	lg := observability.LoggerFromContext(ctx)
	if !c.Configured() {
		return nil, fmt.Errorf("%w: %s: model missing", domain.ErrProviderNotConfigured, c.opts.Name)
	}

	// Instruction-tuned checkpoints take the persona inline; there is no
	// separate system role on this endpoint.
	inputs := c.opts.SystemPrompt + "\n\n" + prompt
	body := map[string]any{
		"inputs": inputs,
		"parameters": map[string]any{
			"temperature":      0.7,
			"max_new_tokens":   c.opts.MaxNewTokens,
			"return_full_text": false,
		},
		"options": map[string]any{"wait_for_model": true},
	}
	b, _ := json.Marshal(body)

	endpoint := c.opts.BaseURL + "/models/" + c.opts.Model
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	r.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		r.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.hc.Do(r)
	if err != nil {
		return nil, fmt.Errorf("%s model %s: %w", c.opts.Name, c.opts.Model, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s model %s: read body: %w", c.opts.Name, c.opts.Model, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		lg.Warn("provider non-2xx",
			"provider", c.opts.Name,
			"model", c.opts.Model,
			"status", resp.StatusCode,
			"body", snippet(raw))
		return nil, fmt.Errorf("%w: %s model %s: status %d", domain.ErrUpstreamStatus, c.opts.Name, c.opts.Model, resp.StatusCode)
	}

	text, err := extractGeneratedText(raw)
	if err != nil {
		lg.Warn("provider payload unrecognized",
			"provider", c.opts.Name,
			"model", c.opts.Model,
			"body", snippet(raw))
		return nil, fmt.Errorf("%s model %s: %w", c.opts.Name, c.opts.Model, err)
	}

	promptTokens := c.counter.Count(inputs, c.opts.Model)
	completionTokens := c.counter.Count(text, c.opts.Model)
	return &domain.Completion{
		Text: text,
		Usage: domain.TokenUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
			Estimated:        true,
			Model:            c.opts.Model,
		},
	}, nil
}

// extractGeneratedText tries the known payload shapes in order:
// [{"generated_text": ...}], {"generated_text": ...}, {"error": ...}.
func extractGeneratedText(raw []byte) (string, error) {
	var arr []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 {
		if t := strings.TrimSpace(arr[0].GeneratedText); t != "" {
			return t, nil
		}
	}
	var obj struct {
		GeneratedText string `json:"generated_text"`
		Error         string `json:"error"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if t := strings.TrimSpace(obj.GeneratedText); t != "" {
			return t, nil
		}
		if obj.Error != "" {
			return "", fmt.Errorf("%w: inference error: %s", domain.ErrUpstreamStatus, obj.Error)
		}
	}
	return "", domain.ErrEmptyCompletion
}

func snippet(raw []byte) string {
	if len(raw) > 512 {
		raw = raw[:512]
	}
	return string(raw)
}
