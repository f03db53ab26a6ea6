package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/leadfunnel/opportunity-analyzer/internal/domain"
	"github.com/leadfunnel/opportunity-analyzer/pkg/jsonx"
)

// wireResult mirrors AnalysisResult with loose field types so responses
// with string-typed numbers or mixed arrays still decode. Coercion to the
// strict contract happens afterwards.
type wireResult struct {
	ExpertiseScore      any    `json:"expertiseScore"`
	PersonalizedInsight string `json:"personalizedInsight"`
	BusinessHint        string `json:"businessHint"`
	MarketOpportunity   string `json:"marketOpportunity"`
	SuccessProbability  any    `json:"successProbability"`
	KeyStrengths        []any  `json:"keyStrengths"`
	NextStepTeaser      string `json:"nextStepTeaser"`
	ExclusiveValue      string `json:"exclusiveValue"`
	UrgencyFactor       string `json:"urgencyFactor"`
}

// ParseAnalysis normalizes raw model output into a complete result. It is
// total: any cleaning, parse or validation failure yields the synthetic
// result for the same answers instead of an error.
//
// The ok return is true when the result came from the model and false
// when the synthetic generator had to step in.
func ParseAnalysis(raw string, answers domain.UserAnswers, gen SyntheticGenerator) (domain.AnalysisResult, bool) {
	res, err := parseStrict(raw)
	if err != nil {
		slog.Warn("model response unusable, synthesizing result",
			slog.Any("error", err),
			slog.Int("raw_len", len(raw)),
			slog.String("raw_snippet", snippet(raw, 256)))
		return gen.Generate(answers), false
	}
	return res, true
}

func parseStrict(raw string) (domain.AnalysisResult, error) {
	cleaned, err := jsonx.Repair(raw)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %v", domain.ErrSchemaInvalid, err)
	}

	var w wireResult
	if err := json.Unmarshal([]byte(cleaned), &w); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: decode: %v", domain.ErrSchemaInvalid, err)
	}

	res := domain.AnalysisResult{
		ExpertiseScore:      coerceScore(w.ExpertiseScore),
		PersonalizedInsight: strings.TrimSpace(w.PersonalizedInsight),
		BusinessHint:        strings.TrimSpace(w.BusinessHint),
		MarketOpportunity:   strings.TrimSpace(w.MarketOpportunity),
		SuccessProbability:  coerceString(w.SuccessProbability),
		KeyStrengths:        coerceStrings(w.KeyStrengths),
		NextStepTeaser:      strings.TrimSpace(w.NextStepTeaser),
		ExclusiveValue:      strings.TrimSpace(w.ExclusiveValue),
		UrgencyFactor:       strings.TrimSpace(w.UrgencyFactor),
	}
	res.Normalize()

	// The three leading fields must carry real content; a response
	// missing them is not worth showing over the synthetic one.
	if !res.Complete() {
		return domain.AnalysisResult{}, fmt.Errorf("%w: required fields missing", domain.ErrSchemaInvalid)
	}
	return res, nil
}

// coerceScore accepts numeric and numeric-string scores; anything else
// becomes zero and is repaired to the default by Normalize.
func coerceScore(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(t), "%")
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
	}
	return 0
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64) + "%"
	}
	return ""
}

func coerceStrings(vs []any) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if s, ok := v.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func snippet(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
