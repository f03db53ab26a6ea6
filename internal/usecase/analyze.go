package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leadfunnel/opportunity-analyzer/internal/domain"
	"github.com/leadfunnel/opportunity-analyzer/internal/observability"
)

// Analysis is the orchestrator's answer: the normalized result plus
// enough provenance for the HTTP layer to soften its message when the
// result was synthesized locally.
type Analysis struct {
	Result domain.AnalysisResult
	// Source names the provider that produced the accepted response, or
	// "synthetic" when the chain was exhausted.
	Source string
	// Degraded is true when the result did not come from a model.
	Degraded bool
}

// SourceSynthetic marks results produced without any provider.
const SourceSynthetic = "synthetic"

// AnalyzeService is the pipeline's public contract.
type AnalyzeService interface {
	Analyze(ctx context.Context, answers domain.UserAnswers) (Analysis, error)
}

// Service walks a fixed-priority provider chain and never lets a provider
// or parse failure escape: the caller always receives a schema-valid
// result. The single exception is caller cancellation, which aborts the
// orchestration because no result is needed anymore.
type Service struct {
	chain []domain.ProviderClient
	costs *CostAccountant
	gen   SyntheticGenerator
}

// NewService builds the orchestrator. costs may be nil (accounting off).
// Chain order is significant: more capable models first, cheaper and
// anonymous paths as degradation only.
func NewService(chain []domain.ProviderClient, costs *CostAccountant, gen SyntheticGenerator) *Service {
	return &Service{chain: chain, costs: costs, gen: gen}
}

// Analyze runs the full pipeline for one form submission: build the
// prompt once, try each provider sequentially, parse the first success,
// and synthesize a result when everything upstream fails.
func (s *Service) Analyze(ctx context.Context, answers domain.UserAnswers) (Analysis, error) {
	if answers == nil {
		answers = domain.UserAnswers{}
	}
	lg := observability.LoggerFromContext(ctx)
	prompt := BuildPrompt(answers)

	failures := 0
	for _, p := range s.chain {
		if err := ctx.Err(); err != nil {
			return Analysis{}, fmt.Errorf("op=usecase.Analyze: %w", err)
		}
		if !p.Configured() {
			lg.Debug("skipping unconfigured provider", "provider", p.Name())
			continue
		}

		start := time.Now()
		comp, err := p.Complete(ctx, prompt)
		observability.AIRequestDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
		if err != nil {
			observability.AIRequestsTotal.WithLabelValues(p.Name(), "error").Inc()
			// Cancellation mid-call is the caller's signal, not a
			// provider fault; stop instead of degrading further.
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return Analysis{}, fmt.Errorf("op=usecase.Analyze: %w", err)
			}
			failures++
			lg.Warn("provider attempt failed",
				"provider", p.Name(),
				"model", p.Model(),
				"error", err)
			continue
		}
		observability.AIRequestsTotal.WithLabelValues(p.Name(), "success").Inc()

		s.recordUsage(ctx, p.Model(), comp.Usage)

		result, fromModel := ParseAnalysis(comp.Text, answers, s.gen)
		source := p.Name()
		if !fromModel {
			source = SourceSynthetic
		}
		observability.AnalysesTotal.WithLabelValues(source).Inc()
		observability.FallbackDepth.Observe(float64(failures))
		lg.Info("analysis produced",
			"source", source,
			"provider", p.Name(),
			"model", p.Model(),
			"failed_attempts", failures)
		return Analysis{Result: result, Source: source, Degraded: !fromModel}, nil
	}

	if err := ctx.Err(); err != nil {
		return Analysis{}, fmt.Errorf("op=usecase.Analyze: %w", err)
	}

	lg.Warn("provider chain exhausted, synthesizing result",
		"failed_attempts", failures,
		"chain_len", len(s.chain))
	observability.AnalysesTotal.WithLabelValues(SourceSynthetic).Inc()
	observability.FallbackDepth.Observe(float64(failures))
	return Analysis{Result: s.gen.Generate(answers), Source: SourceSynthetic, Degraded: true}, nil
}

// recordUsage reports token usage to the accountant. Accounting is
// advisory: failures are logged and swallowed so they cannot delay or
// block the result.
func (s *Service) recordUsage(ctx context.Context, model string, usage domain.TokenUsage) {
	if s.costs == nil {
		return
	}
	lg := observability.LoggerFromContext(ctx)
	alert, err := s.costs.Record(ctx, model, usage)
	if err != nil {
		lg.Warn("usage accounting failed", "model", model, "error", err)
		return
	}
	if alert != nil {
		lg.Warn("daily budget threshold crossed",
			"level", string(alert.Level),
			"day", alert.Day,
			"cost_usd", alert.CostUSD,
			"budget_usd", alert.Budget,
			"model", alert.Model)
	}
}
