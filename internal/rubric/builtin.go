// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rubric

import "github.com/pdiddy/answer-engine/pkg/types"

// Built-in rubric definitions. Weights and thresholds follow
// docs/ARCHITECTURE § Evaluation; config can override the pass thresholds
// and the preservation floor but not the weights.

const (
	generationThreshold  = 85
	compilationThreshold = 95

	coverageGateMin = 0.65
	densityGateMin  = 1.0

	preservationMax          = 30
	defaultPreservationFloor = 25
)

// pedagogyCues mark teaching moves: examples, analogies, motivated context.
var pedagogyCues = [][]string{
	{"for example", "for instance", "e.g."},
	{"think of", "analogy", "imagine"},
	{"in practice", "in real", "when you"},
	{"note that", "keep in mind", "be aware"},
	{"the intuition", "intuitively", "the idea is"},
}

// actionabilityCues mark concrete next steps a reader can take.
var actionabilityCues = [][]string{
	{"step ", "first,", "then ", "next,", "finally"},
	{"run ", "execute", "install"},
	{"use ", "call ", "pass "},
	{"try ", "start by", "start with"},
}

// scaffoldingCues mark progressive buildup from simple to advanced.
var scaffoldingCues = [][]string{
	{"start", "begin", "basic"},
	{"build on", "now that", "once you"},
	{"more advanced", "going further", "beyond"},
}

// bloomCues mark verbs above the recall level of Bloom's taxonomy.
var bloomCues = [][]string{
	{"explain", "because", "reason"},
	{"apply", "implement", "write"},
	{"compare", "contrast", "evaluate", "analyze"},
}

// insightCues mark explicit insight and micro-fix framing in compiled
// answers.
var insightCues = [][]string{
	{"key insight", "the insight", "why this matters"},
	{"common mistake", "pitfall", "gotcha"},
	{"the fix", "to fix", "instead of"},
}

// realWorldCues mark integration with practice.
var realWorldCues = [][]string{
	{"in production", "at scale", "real-world", "real world"},
	{"for example", "case", "scenario"},
	{"trade-off", "tradeoff", "cost"},
}

// reflectiveCues mark closing reflection prompts.
var reflectiveCues = [][]string{
	{"consider", "reflect", "ask yourself"},
	{"what happens if", "what if", "try changing"},
	{"exercise", "challenge", "on your own"},
}

// GenerationRubric builds the drafting rubric. cfg.PassThreshold overrides
// the default threshold when positive.
func GenerationRubric(cfg types.GenerationConfig) Rubric {
	threshold := float64(generationThreshold)
	if cfg.PassThreshold > 0 {
		threshold = cfg.PassThreshold
	}
	return Rubric{
		Name:          "generation",
		PassThreshold: threshold,
		Criteria: []Criterion{
			{Key: "groundedness", Title: "groundedness", MaxPoints: 20, Rule: ruleGroundedness(0.8, 1.5)},
			{Key: "technical_correctness", Title: "technical correctness", MaxPoints: 15, Rule: ruleTechnicalTerms(6)},
			{Key: "pedagogy", Title: "pedagogical quality", MaxPoints: 15, Rule: rulePhrases(3, pedagogyCues)},
			{Key: "actionability", Title: "actionability", MaxPoints: 10, Rule: rulePhrases(3, actionabilityCues)},
			{Key: "mode_fidelity", Title: "question fidelity", MaxPoints: 10, Rule: ruleQuestionFidelity()},
			{Key: "scaffolding", Title: "scaffolding", MaxPoints: 10, Rule: rulePhrases(2, scaffoldingCues)},
			{Key: "retrieval_quality", Title: "retrieval use", MaxPoints: 10, Rule: ruleCoverage(coverageGateMin)},
			{Key: "clarity", Title: "sentence clarity", MaxPoints: 5, Rule: ruleSentenceClarity(8, 28)},
			{Key: "bloom_alignment", Title: "bloom alignment", MaxPoints: 3, Rule: rulePhrases(2, bloomCues)},
			{Key: "inclusive_language", Title: "inclusive language", MaxPoints: 2, Rule: ruleInclusiveLanguage(1)},
		},
		Gates: []Gate{
			{Key: "gate_coverage", Title: "evidence coverage", Check: gateCoverage(coverageGateMin)},
			{Key: "gate_citation_density", Title: "citation density", Check: gateCitationDensity(densityGateMin)},
			{Key: "gate_code_presence", Title: "code presence", Check: gateCodePresence()},
		},
	}
}

// CompilationRubric builds the restructuring rubric. cfg.PassThreshold and
// cfg.TechnicalPreservationFloor override the defaults when positive.
func CompilationRubric(cfg types.CompilationConfig) Rubric {
	threshold := float64(compilationThreshold)
	if cfg.PassThreshold > 0 {
		threshold = cfg.PassThreshold
	}
	floor := float64(defaultPreservationFloor)
	if cfg.TechnicalPreservationFloor > 0 {
		floor = cfg.TechnicalPreservationFloor
	}
	preservation := rulePreservation(coverageGateMin)
	return Rubric{
		Name:          "compilation",
		PassThreshold: threshold,
		Criteria: []Criterion{
			{Key: "technical_preservation", Title: "technical preservation", MaxPoints: preservationMax, Rule: preservation},
			{Key: "structure", Title: "pedagogical structure", MaxPoints: 20, Rule: ruleStructure(3)},
			{Key: "insight_clarity", Title: "insight and micro-fix clarity", MaxPoints: 20, Rule: rulePhrases(2, insightCues)},
			{Key: "real_world", Title: "real-world integration", MaxPoints: 15, Rule: rulePhrases(2, realWorldCues)},
			{Key: "reflective", Title: "reflective depth", MaxPoints: 15, Rule: rulePhrases(2, reflectiveCues)},
		},
		Gates: []Gate{
			{Key: "gate_preservation", Title: "technical preservation floor", Check: gateCriterionFloor(preservation, preservationMax, floor)},
		},
	}
}
