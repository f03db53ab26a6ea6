// Package usecase implements the analysis pipeline: prompt construction,
// the provider fallback chain, response parsing and the synthetic
// last-resort generator.
package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leadfunnel/opportunity-analyzer/internal/domain"
)

// SystemPrompt establishes the model persona for every chain entry.
const SystemPrompt = `You are a senior business-opportunity consultant who turns a professional's background into a concrete, encouraging assessment of their consulting and knowledge-business potential. You are specific, confident, and grounded in the details the candidate provides. You respond with machine-readable JSON only.`

// promptInstructions is the fixed output contract appended to every
// prompt: the nine required fields with approximate target lengths, plus
// the formatting violations models must avoid.
const promptInstructions = `Respond with a single JSON object containing exactly these fields:
  "expertiseScore": integer 0-100 rating the commercial strength of this background,
  "personalizedInsight": string, ~200 characters, a sharp observation about their specific situation,
  "businessHint": string, ~150 characters, the single most promising business direction,
  "marketOpportunity": string, ~150 characters, the market gap their expertise can fill,
  "successProbability": string, e.g. "84% (based on comparable transitions)",
  "keyStrengths": array of 4 short strings,
  "nextStepTeaser": string, ~100 characters, what a full consultation would cover next,
  "exclusiveValue": string, ~120 characters, what makes them hard to replace,
  "urgencyFactor": string, ~120 characters, why now is the moment to act.

Rules:
- Respond in English.
- JSON only. No markdown code fences.
- No introductions, apologies or explanations before or after the object.
- The response must start with { and end with }.`

// BuildPrompt renders the interview answers into the instructional
// template. Pure and deterministic: identical answers produce
// byte-identical prompts (the context map serializes with sorted keys).
func BuildPrompt(answers domain.UserAnswers) string {
	a := domain.ExtractAnchors(answers)

	ctxJSON, err := json.Marshal(answers)
	if err != nil {
		// Answer values come from decoded JSON, so this only trips on
		// exotic injected values in tests.
		ctxJSON = []byte("{}")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the business opportunity for %s, an expert in %s with %s years of experience.\n\n", a.Name, a.Expertise, a.Experience)
	fmt.Fprintf(&b, "Full interview answers (JSON):\n%s\n\n", ctxJSON)
	b.WriteString(promptInstructions)
	return b.String()
}
