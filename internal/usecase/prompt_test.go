package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadfunnel/opportunity-analyzer/internal/domain"
)

func TestBuildPrompt_Idempotent(t *testing.T) {
	t.Parallel()

	answers := domain.UserAnswers{
		domain.AnswerKeyName:       "Kim",
		domain.AnswerKeyExpertise:  "Real Estate",
		domain.AnswerKeyExperience: "15",
		"motivation":               "independence",
		"target_income":            float64(200000),
	}
	first := BuildPrompt(answers)
	second := BuildPrompt(answers)
	assert.Equal(t, first, second, "identical answers must yield byte-identical prompts")
}

func TestBuildPrompt_AnchorsAndContext(t *testing.T) {
	t.Parallel()

	answers := domain.UserAnswers{
		domain.AnswerKeyName:      "Kim",
		domain.AnswerKeyExpertise: "Real Estate",
		"obscure_question_id":     "obscure answer text",
	}
	p := BuildPrompt(answers)

	assert.Contains(t, p, "Kim")
	assert.Contains(t, p, "Real Estate")
	// The whole answers map rides along as serialized context.
	assert.Contains(t, p, "obscure_question_id")
	assert.Contains(t, p, "obscure answer text")
}

func TestBuildPrompt_MissingAnchorsNeverFail(t *testing.T) {
	t.Parallel()

	p := BuildPrompt(domain.UserAnswers{})
	require.NotEmpty(t, p)
	assert.Contains(t, p, domain.PlaceholderName)
	assert.Contains(t, p, domain.PlaceholderExpertise)
}

func TestBuildPrompt_InstructionBlock(t *testing.T) {
	t.Parallel()

	p := BuildPrompt(domain.UserAnswers{domain.AnswerKeyName: "Kim"})

	for _, field := range []string{
		"expertiseScore", "personalizedInsight", "businessHint",
		"marketOpportunity", "successProbability", "keyStrengths",
		"nextStepTeaser", "exclusiveValue", "urgencyFactor",
	} {
		assert.Contains(t, p, field)
	}
	assert.Contains(t, p, "No markdown code fences")
	assert.Contains(t, p, "start with { and end with }")
	assert.True(t, strings.Contains(p, "JSON only"))
}
