package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadfunnel/opportunity-analyzer/internal/domain"
)

const validModelJSON = `{"expertiseScore":91,"personalizedInsight":"deep insight","businessHint":"clear hint","marketOpportunity":"gap","successProbability":"91%","keyStrengths":["a","b","c","d"],"nextStepTeaser":"next","exclusiveValue":"rare","urgencyFactor":"now"}`

type fakeProvider struct {
	mu         sync.Mutex
	name       string
	unset      bool // Configured() == false
	text       string
	err        error
	onComplete func(ctx context.Context)
	calls      int
	prompts    []string
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Model() string    { return f.name + "-model" }
func (f *fakeProvider) Configured() bool { return !f.unset }

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (*domain.Completion, error) {
	f.mu.Lock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.onComplete != nil {
		f.onComplete(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Completion{
		Text:  f.text,
		Usage: domain.TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}, nil
}

func TestService_Analyze_ShortCircuitsOnFirstSuccess(t *testing.T) {
	t.Parallel()

	p1 := &fakeProvider{name: "p1", text: validModelJSON}
	p2 := &fakeProvider{name: "p2", text: validModelJSON}
	p3 := &fakeProvider{name: "p3", text: validModelJSON}
	svc := NewService([]domain.ProviderClient{p1, p2, p3}, nil, SyntheticGenerator{})

	got, err := svc.Analyze(context.Background(), domain.UserAnswers{domain.AnswerKeyName: "Kim"})
	require.NoError(t, err)

	assert.Equal(t, 1, p1.calls)
	assert.Zero(t, p2.calls, "later providers must not be invoked after a success")
	assert.Zero(t, p3.calls)
	assert.Equal(t, "p1", got.Source)
	assert.False(t, got.Degraded)
	assert.Equal(t, 91, got.Result.ExpertiseScore)
}

func TestService_Analyze_FallsBackWithSamePrompt(t *testing.T) {
	t.Parallel()

	p1 := &fakeProvider{name: "p1", err: errors.New("status 500")}
	p2 := &fakeProvider{name: "p2", text: validModelJSON}
	svc := NewService([]domain.ProviderClient{p1, p2}, nil, SyntheticGenerator{})

	answers := domain.UserAnswers{domain.AnswerKeyName: "Kim"}
	got, err := svc.Analyze(context.Background(), answers)
	require.NoError(t, err)

	require.Equal(t, 1, p1.calls)
	require.Equal(t, 1, p2.calls, "second provider invoked exactly once")
	assert.Equal(t, p1.prompts[0], p2.prompts[0], "the prompt is built once and reused")
	assert.Equal(t, BuildPrompt(answers), p2.prompts[0])
	assert.Equal(t, "p2", got.Source)
	assert.False(t, got.Degraded)
}

func TestService_Analyze_SkipsUnconfiguredProviders(t *testing.T) {
	t.Parallel()

	p1 := &fakeProvider{name: "p1", unset: true}
	p2 := &fakeProvider{name: "p2", text: validModelJSON}
	svc := NewService([]domain.ProviderClient{p1, p2}, nil, SyntheticGenerator{})

	got, err := svc.Analyze(context.Background(), domain.UserAnswers{})
	require.NoError(t, err)

	assert.Zero(t, p1.calls, "unconfigured providers must not be called at all")
	assert.Equal(t, 1, p2.calls)
	assert.Equal(t, "p2", got.Source)
}

func TestService_Analyze_ExhaustedChainYieldsSynthetic(t *testing.T) {
	t.Parallel()

	p1 := &fakeProvider{name: "p1", err: errors.New("status 500")}
	p2 := &fakeProvider{name: "p2", err: errors.New("connection refused")}
	svc := NewService([]domain.ProviderClient{p1, p2}, nil, SyntheticGenerator{})

	answers := domain.UserAnswers{
		domain.AnswerKeyName:      "Kim",
		domain.AnswerKeyExpertise: "Real Estate",
	}
	got, err := svc.Analyze(context.Background(), answers)
	require.NoError(t, err, "provider failures must never escape")

	assert.Equal(t, SourceSynthetic, got.Source)
	assert.True(t, got.Degraded)
	requireValidResult(t, got.Result)
	assert.Contains(t, got.Result.PersonalizedInsight, "Kim")
}

func TestService_Analyze_Totality(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		answers domain.UserAnswers
	}{
		{name: "empty_map", answers: domain.UserAnswers{}},
		{name: "nil_map", answers: nil},
		{name: "unrelated_keys", answers: domain.UserAnswers{"q1": "a", "q2": []any{"b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := NewService(nil, nil, SyntheticGenerator{})
			got, err := svc.Analyze(context.Background(), tt.answers)
			require.NoError(t, err)
			requireValidResult(t, got.Result)
		})
	}
}

func TestService_Analyze_UnparseableSuccessDegradesToSynthetic(t *testing.T) {
	t.Parallel()

	p1 := &fakeProvider{name: "p1", text: "I'm sorry, I cannot help with that."}
	svc := NewService([]domain.ProviderClient{p1}, nil, SyntheticGenerator{})

	got, err := svc.Analyze(context.Background(), domain.UserAnswers{})
	require.NoError(t, err)
	assert.Equal(t, SourceSynthetic, got.Source)
	assert.True(t, got.Degraded)
	requireValidResult(t, got.Result)
}

func TestService_Analyze_CallerCancellationAborts(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p1 := &fakeProvider{name: "p1", text: validModelJSON}
	svc := NewService([]domain.ProviderClient{p1}, nil, SyntheticGenerator{})

	_, err := svc.Analyze(ctx, domain.UserAnswers{})
	require.Error(t, err, "cancellation aborts instead of synthesizing")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, p1.calls)
}

func TestService_Analyze_MidCallCancellationAborts(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	p1 := &fakeProvider{name: "p1", onComplete: func(context.Context) { cancel() }}
	p2 := &fakeProvider{name: "p2", text: validModelJSON}
	svc := NewService([]domain.ProviderClient{p1, p2}, nil, SyntheticGenerator{})

	_, err := svc.Analyze(ctx, domain.UserAnswers{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, p2.calls, "cancellation must not advance the fallback chain")
}
