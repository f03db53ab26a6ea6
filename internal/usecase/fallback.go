package usecase

import (
	"fmt"

	"github.com/leadfunnel/opportunity-analyzer/internal/domain"
)

// syntheticTemplate is one flavor of locally generated analysis. All
// numeric values are fixed constants; only the anchors vary with input.
type syntheticTemplate struct {
	score       int
	insight     string // fmt verbs: name, expertise
	hint        string // fmt verbs: expertise
	market      string // fmt verbs: expertise
	probability string
	strengths   []string // fmt verb in first entry: expertise
	nextStep    string
	exclusive   string // fmt verbs: experience, expertise
	urgency     string
}

var syntheticTemplates = []syntheticTemplate{
	{
		score:       87,
		insight:     "%s, your background in %s carries exactly the kind of depth clients pay a premium for when they cannot afford mistakes.",
		hint:        "Package your %s know-how into a positioning-first advisory offer for mid-size clients.",
		market:      "Demand for senior %s guidance outstrips supply; most practitioners never productize it.",
		probability: "87% (based on comparable expertise transitions)",
		strengths:   []string{"Deep %s domain knowledge", "Years of applied decision-making", "Credibility with demanding clients", "Pattern recognition competitors lack"},
		nextStep:    "A full session maps your first three offers and the clients who buy them.",
		exclusive:   "With %s years in %s, you solve in hours what generalists circle for weeks.",
		urgency:     "The experts who claim this positioning first set the market's reference price.",
	},
	{
		score:       85,
		insight:     "%s, professionals with your %s track record routinely undervalue how rare their judgment is outside their own company.",
		hint:        "Turn your %s experience into a diagnostic-plus-roadmap service with fixed pricing.",
		market:      "Mid-market firms need %s expertise on demand but will not hire it full time.",
		probability: "85%",
		strengths:   []string{"Proven %s results", "Insider perspective on real constraints", "A network that trusts your word", "Calm under high-stakes decisions"},
		nextStep:    "Next we would identify your beachhead niche and a 90-day launch plan.",
		exclusive:   "%s years of %s scar tissue is the one asset newcomers cannot shortcut.",
		urgency:     "Every quarter of delay is a quarter competitors use to claim your niche.",
	},
	{
		score:       88,
		insight:     "%s, the way you describe your %s work signals advisory instincts, not just execution skill, and advisors command different fees.",
		hint:        "Lead with outcomes: a productized %s assessment clients can buy without a long sales cycle.",
		market:      "Buyers are actively searching for independent %s voices they can trust over vendors.",
		probability: "88% (strong signal across your answers)",
		strengths:   []string{"Authority in %s", "Clear communication of complex tradeoffs", "Repeatable methods built from practice", "An eye for what actually moves results"},
		nextStep:    "A consultation would pressure-test pricing and pick your first public proof point.",
		exclusive:   "%s years inside %s gives you case stories no content marketer can fabricate.",
		urgency:     "Your experience is at peak market value now; categories reprice fast once crowded.",
	},
}

// SyntheticGenerator deterministically constructs a complete, schema-valid
// analysis from the answers alone, with no network I/O. It is the
// pipeline's last resort and the guarantee behind its totality: the zero
// value always picks the first template, so fallback output is
// reproducible. Callers wanting flavor variety inject a Select func.
type SyntheticGenerator struct {
	// Select picks a template index in [0,n). Nil means always 0.
	Select func(n int) int
}

// Generate builds the full result by substituting the anchor fields into
// a fixed prose template. Output always satisfies the AnalysisResult
// contract, including for the empty answers map.
func (g SyntheticGenerator) Generate(answers domain.UserAnswers) domain.AnalysisResult {
	a := domain.ExtractAnchors(answers)

	idx := 0
	if g.Select != nil {
		if i := g.Select(len(syntheticTemplates)); i >= 0 && i < len(syntheticTemplates) {
			idx = i
		}
	}
	t := syntheticTemplates[idx]

	strengths := make([]string, len(t.strengths))
	for i, s := range t.strengths {
		if i == 0 {
			strengths[i] = fmt.Sprintf(s, a.Expertise)
		} else {
			strengths[i] = s
		}
	}

	res := domain.AnalysisResult{
		ExpertiseScore:      t.score,
		PersonalizedInsight: fmt.Sprintf(t.insight, a.Name, a.Expertise),
		BusinessHint:        fmt.Sprintf(t.hint, a.Expertise),
		MarketOpportunity:   fmt.Sprintf(t.market, a.Expertise),
		SuccessProbability:  t.probability,
		KeyStrengths:        strengths,
		NextStepTeaser:      t.nextStep,
		ExclusiveValue:      fmt.Sprintf(t.exclusive, a.Experience, a.Expertise),
		UrgencyFactor:       t.urgency,
	}
	res.Normalize()
	return res
}
