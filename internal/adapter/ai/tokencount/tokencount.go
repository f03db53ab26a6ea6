// Package tokencount estimates token usage for providers that do not
// report it, using tiktoken encodings with a chars/4 fallback.
package tokencount

import (
	"log/slog"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Counter caches tiktoken encodings per normalized model name.
type Counter struct {
	mu    sync.RWMutex
	cache map[string]*tiktoken.Tiktoken
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{cache: make(map[string]*tiktoken.Tiktoken)}
}

func (c *Counter) encoding(model string) (*tiktoken.Tiktoken, error) {
	name := normalizeModel(model)

	c.mu.RLock()
	enc, ok := c.cache[name]
	c.mu.RUnlock()
	if ok {
		return enc, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.cache[name]; ok {
		return enc, nil
	}
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		// cl100k_base approximates most instruction-tuned models well
		// enough for advisory cost estimates.
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	c.cache[name] = enc
	return enc, nil
}

// normalizeModel maps hosted model ids (provider prefixes, ":free"
// suffixes) onto names tiktoken recognizes.
func normalizeModel(model string) string {
	model = strings.ToLower(model)
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	model = strings.TrimSuffix(model, ":free")
	switch {
	case strings.HasPrefix(model, "gpt-4o"):
		return "gpt-4o"
	case strings.HasPrefix(model, "gpt-4"):
		return "gpt-4"
	default:
		return "gpt-4"
	}
}

// Count returns the token count of text under the model's encoding.
func (c *Counter) Count(text, model string) int {
	enc, err := c.encoding(model)
	if err != nil {
		slog.Debug("token encoding unavailable, estimating",
			slog.String("model", model), slog.Any("error", err))
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// CountChat counts prompt tokens for a two-message chat request,
// including the per-message overhead OpenAI-compatible APIs charge.
func (c *Counter) CountChat(systemPrompt, userPrompt, model string) int {
	const perMessage = 4 // message framing + role
	n := perMessage + c.Count(systemPrompt, model)
	n += perMessage + c.Count(userPrompt, model)
	n += 3 // assistant reply priming
	return n
}
