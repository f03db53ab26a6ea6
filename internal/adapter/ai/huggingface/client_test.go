package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadfunnel/opportunity-analyzer/internal/domain"
)

func newTestClient(baseURL, apiKey string) *Client {
	return New(Options{
		Name:         "huggingface",
		APIKey:       apiKey,
		BaseURL:      baseURL,
		Model:        "mistralai/Mistral-7B-Instruct-v0.3",
		MaxNewTokens: 1024,
		SystemPrompt: "You are a consultant.",
		Timeout:      2 * time.Second,
	})
}

func TestClient_ArrayResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/mistralai/Mistral-7B-Instruct-v0.3", r.URL.Path)
		assert.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body["inputs"], "You are a consultant.")
		assert.Contains(t, body["inputs"], "user prompt")
		params, ok := body["parameters"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(1024), params["max_new_tokens"])
		assert.Equal(t, false, params["return_full_text"])

		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"generated_text": `{"expertiseScore":88}`},
		})
	}))
	defer srv.Close()

	comp, err := newTestClient(srv.URL, "hf-key").Complete(context.Background(), "user prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"expertiseScore":88}`, comp.Text)
	assert.True(t, comp.Usage.Estimated, "inference API reports no usage")
	assert.Positive(t, comp.Usage.TotalTokens)
}

func TestClient_ObjectResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"generated_text": "  plain text answer  "})
	}))
	defer srv.Close()

	comp, err := newTestClient(srv.URL, "").Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "plain text answer", comp.Text)
}

func TestClient_AnonymousOmitsAuthHeader(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]map[string]string{{"generated_text": "ok"}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	assert.True(t, c.Configured(), "a model alone is enough to call anonymously")

	_, err := c.Complete(context.Background(), "prompt")
	require.NoError(t, err)
}

func TestClient_ErrorPayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "model is overloaded"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "").Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamStatus)
	assert.Contains(t, err.Error(), "model is overloaded")
}

func TestClient_Non2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "").Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamStatus)
}

func TestClient_EmptyPayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "").Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyCompletion)
}

func TestClient_MissingModel(t *testing.T) {
	t.Parallel()

	c := New(Options{Name: "huggingface"})
	assert.False(t, c.Configured())

	_, err := c.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderNotConfigured)
}
