// Package domain holds the core entities and ports of the opportunity
// analyzer: the interview answer bag, the analysis result contract, and
// the interfaces the pipeline depends on.
package domain

import (
	"fmt"
	"strings"
)

// UserAnswers is the open key-value map produced by the interview flow.
// Only the anchor keys are read individually; everything else is passed
// through to the model as serialized context.
type UserAnswers map[string]any

// Conventional interview question identifiers for the anchor fields.
const (
	AnswerKeyName       = "basic_name"
	AnswerKeyExpertise  = "expertise_main_field"
	AnswerKeyExperience = "experience_years"
)

// Placeholders substituted when an anchor key is absent. The prompt
// builder and the synthetic generator share this substitution rule.
const (
	PlaceholderName       = "Expert"
	PlaceholderExpertise  = "professional services"
	PlaceholderExperience = "10+"
)

// Anchors are the answer fields interpolated individually into prompts
// and fallback templates.
type Anchors struct {
	Name       string
	Expertise  string
	Experience string
}

// ExtractAnchors pulls the anchor fields out of answers, substituting
// generic placeholders for any that are absent or empty. Never fails.
func ExtractAnchors(answers UserAnswers) Anchors {
	return Anchors{
		Name:       anchorValue(answers, AnswerKeyName, PlaceholderName),
		Expertise:  anchorValue(answers, AnswerKeyExpertise, PlaceholderExpertise),
		Experience: anchorValue(answers, AnswerKeyExperience, PlaceholderExperience),
	}
}

// anchorValue renders an answer value as a single display string.
// Answer values may be strings, string slices (multi-select questions)
// or numbers depending on the question type.
func anchorValue(answers UserAnswers, key, placeholder string) string {
	v, ok := answers[key]
	if !ok {
		return placeholder
	}
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return s
		}
	case []string:
		if s := strings.TrimSpace(strings.Join(t, ", ")); s != "" {
			return s
		}
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, fmt.Sprintf("%v", e))
		}
		if s := strings.TrimSpace(strings.Join(parts, ", ")); s != "" {
			return s
		}
	case float64:
		return trimFloat(t)
	case int:
		return fmt.Sprintf("%d", t)
	}
	return placeholder
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	return s
}

// Defaults substituted for absent or unparseable result fields.
const (
	DefaultExpertiseScore     = 85
	DefaultSuccessProbability = "85%"
)

// AnalysisResult is the single entity the pipeline produces. Every field
// is always present with a type-correct value; absent upstream fields are
// repaired to safe defaults, never left missing.
type AnalysisResult struct {
	ExpertiseScore      int      `json:"expertiseScore"`
	PersonalizedInsight string   `json:"personalizedInsight"`
	BusinessHint        string   `json:"businessHint"`
	MarketOpportunity   string   `json:"marketOpportunity"`
	SuccessProbability  string   `json:"successProbability"`
	KeyStrengths        []string `json:"keyStrengths"`
	NextStepTeaser      string   `json:"nextStepTeaser"`
	ExclusiveValue      string   `json:"exclusiveValue"`
	UrgencyFactor       string   `json:"urgencyFactor"`
}

// Normalize repairs the result in place so it satisfies the contract:
// score within [0,100] (zero means the model omitted it and gets the
// default), probability non-empty, strengths never nil.
func (r *AnalysisResult) Normalize() {
	if r.ExpertiseScore <= 0 {
		r.ExpertiseScore = DefaultExpertiseScore
	}
	if r.ExpertiseScore > 100 {
		r.ExpertiseScore = 100
	}
	if strings.TrimSpace(r.SuccessProbability) == "" {
		r.SuccessProbability = DefaultSuccessProbability
	}
	if r.KeyStrengths == nil {
		r.KeyStrengths = []string{}
	}
}

// Complete reports whether the minimum required fields carry usable
// values. Used by the parser to decide between accepting a model
// response and synthesizing a fallback.
func (r AnalysisResult) Complete() bool {
	return r.ExpertiseScore > 0 &&
		strings.TrimSpace(r.PersonalizedInsight) != "" &&
		strings.TrimSpace(r.BusinessHint) != ""
}
