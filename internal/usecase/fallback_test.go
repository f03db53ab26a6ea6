package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadfunnel/opportunity-analyzer/internal/domain"
)

func requireValidResult(t *testing.T, res domain.AnalysisResult) {
	t.Helper()
	assert.GreaterOrEqual(t, res.ExpertiseScore, 0)
	assert.LessOrEqual(t, res.ExpertiseScore, 100)
	assert.NotEmpty(t, res.PersonalizedInsight)
	assert.NotEmpty(t, res.BusinessHint)
	assert.NotEmpty(t, res.MarketOpportunity)
	assert.NotEmpty(t, res.SuccessProbability)
	require.NotNil(t, res.KeyStrengths)
	assert.NotEmpty(t, res.KeyStrengths)
	assert.NotEmpty(t, res.NextStepTeaser)
	assert.NotEmpty(t, res.ExclusiveValue)
	assert.NotEmpty(t, res.UrgencyFactor)
}

func TestSyntheticGenerator_AnchorSubstitution(t *testing.T) {
	t.Parallel()

	res := SyntheticGenerator{}.Generate(domain.UserAnswers{
		domain.AnswerKeyName:      "Kim",
		domain.AnswerKeyExpertise: "Real Estate",
	})
	requireValidResult(t, res)

	joined := strings.Join([]string{
		res.PersonalizedInsight, res.BusinessHint, res.MarketOpportunity,
		res.ExclusiveValue, strings.Join(res.KeyStrengths, " "),
	}, " ")
	assert.Contains(t, joined, "Kim", "personalization must survive total failure")
	assert.Contains(t, joined, "Real Estate")
}

func TestSyntheticGenerator_EmptyAnswers(t *testing.T) {
	t.Parallel()

	requireValidResult(t, SyntheticGenerator{}.Generate(domain.UserAnswers{}))
	requireValidResult(t, SyntheticGenerator{}.Generate(nil))
}

func TestSyntheticGenerator_ZeroValueDeterministic(t *testing.T) {
	t.Parallel()

	answers := domain.UserAnswers{domain.AnswerKeyName: "Kim"}
	first := SyntheticGenerator{}.Generate(answers)
	second := SyntheticGenerator{}.Generate(answers)
	assert.Equal(t, first, second)
}

func TestSyntheticGenerator_SelectorPicksTemplate(t *testing.T) {
	t.Parallel()

	answers := domain.UserAnswers{domain.AnswerKeyName: "Kim"}
	for i := range syntheticTemplates {
		i := i
		res := SyntheticGenerator{Select: func(int) int { return i }}.Generate(answers)
		requireValidResult(t, res)
		assert.Equal(t, syntheticTemplates[i].score, res.ExpertiseScore)
	}

	// Out-of-range selectors are clamped to the deterministic default.
	res := SyntheticGenerator{Select: func(n int) int { return n + 3 }}.Generate(answers)
	assert.Equal(t, syntheticTemplates[0].score, res.ExpertiseScore)
}
