// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Complexity tags a question by how much explanation it warrants.
// Per prd001-classification R1.1.
type Complexity string

const (
	ComplexityBasic    Complexity = "basic"
	ComplexityStandard Complexity = "standard"
	ComplexityComplex  Complexity = "complex"
)

// TemperaturePreset names a sampling configuration for language-model calls.
// Stages pick a preset rather than tuning free-form values.
// Per prd008-pipeline R3.2.
type TemperaturePreset string

const (
	// PresetTechnical is low-temperature sampling for factual drafting.
	PresetTechnical TemperaturePreset = "technical"

	// PresetStructural is low-mid temperature for restructuring passes.
	PresetStructural TemperaturePreset = "structural"

	// PresetNarrative is higher temperature for stylistic enrichment.
	PresetNarrative TemperaturePreset = "narrative"
)

// Turn is one prior exchange in a conversation, oldest first.
type Turn struct {
	// Role is "user" or "assistant".
	Role string `json:"role" yaml:"role"`

	// Content is the turn's text.
	Content string `json:"content" yaml:"content"`
}

// PipelineRequest is the single input to one pipeline execution.
// Per prd008-pipeline R1.1.
type PipelineRequest struct {
	// Question is the user's question text.
	Question string `json:"question" yaml:"question"`

	// History lists prior conversation turns, oldest first.
	History []Turn `json:"history,omitempty" yaml:"history,omitempty"`

	// Depth selects the research depth. Empty means the configured default.
	Depth ResearchDepth `json:"depth,omitempty" yaml:"depth,omitempty"`

	// ComplexityOverride skips classification when set.
	ComplexityOverride Complexity `json:"complexity_override,omitempty" yaml:"complexity_override,omitempty"`
}

// CriterionScore is the awarded points for one rubric criterion.
// Per prd003-rubric R2.3.
type CriterionScore struct {
	// Key identifies the criterion within its rubric.
	Key string `json:"key" yaml:"key"`

	// Points is the awarded score.
	Points float64 `json:"points" yaml:"points"`

	// MaxPoints is the criterion's weight.
	MaxPoints float64 `json:"max_points" yaml:"max_points"`

	// Rationale explains the awarded score in one line.
	Rationale string `json:"rationale" yaml:"rationale"`
}

// GateResult is the outcome of one hard gate check. A failed gate fails the
// attempt regardless of total score. Per prd003-rubric R3.1.
type GateResult struct {
	// Key identifies the gate within its rubric.
	Key string `json:"key" yaml:"key"`

	// Passed reports whether the gate check succeeded.
	Passed bool `json:"passed" yaml:"passed"`

	// Detail explains the measured value versus the gate's requirement.
	Detail string `json:"detail" yaml:"detail"`
}

// RubricScore is the full result of evaluating a text against a rubric.
// Per prd003-rubric R2.1-R3.3.
type RubricScore struct {
	// Rubric names the rubric definition used ("generation", "compilation").
	Rubric string `json:"rubric" yaml:"rubric"`

	// Criteria holds per-criterion scores in rubric order.
	Criteria []CriterionScore `json:"criteria" yaml:"criteria"`

	// Gates holds hard-gate results in rubric order.
	Gates []GateResult `json:"gates" yaml:"gates"`

	// Total is the sum of awarded criterion points.
	Total float64 `json:"total" yaml:"total"`

	// Passed is true when Total meets the threshold and every gate passed.
	Passed bool `json:"passed" yaml:"passed"`

	// Feedback lists one actionable line per weak criterion or failed gate,
	// consumed by the next revision attempt (prd004-generation R3.2).
	Feedback []string `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}

// GenerationAttempt records one drafting attempt. Attempts are append-only
// within a request and never mutated. Per prd004-generation R2.1.
type GenerationAttempt struct {
	// Index is the zero-based attempt number.
	Index int `json:"index" yaml:"index"`

	// Draft is the produced text.
	Draft string `json:"draft" yaml:"draft"`

	// Score is the generation-rubric evaluation of the draft.
	Score RubricScore `json:"score" yaml:"score"`

	// Feedback is the revision guidance derived from Score, fed into the
	// next attempt's prompt.
	Feedback []string `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}

// ReconciliationReport accounts for every citation the reconciler tried to
// recover after a restructuring step. It is a first-class stage output, not
// a log side-note. Per prd005-reconcile R4.1-R4.3.
type ReconciliationReport struct {
	// Attempted is the number of citation identifiers missing from the
	// transformed text.
	Attempted int `json:"attempted" yaml:"attempted"`

	// Injected is the number successfully reinserted by term-overlap match.
	Injected int `json:"injected" yaml:"injected"`

	// Unrecoverable lists identifiers that could not be placed.
	Unrecoverable []string `json:"unrecoverable,omitempty" yaml:"unrecoverable,omitempty"`
}

// PipelineResult is the single output of one pipeline execution.
// Per prd008-pipeline R4.1-R4.4.
type PipelineResult struct {
	// Answer is the final text after compilation and optional enrichment.
	Answer string `json:"answer" yaml:"answer"`

	// Citations resolves every identifier cited in Answer.
	Citations []Citation `json:"citations" yaml:"citations"`

	// Complexity is the classification used for routing.
	Complexity Complexity `json:"complexity" yaml:"complexity"`

	// GenerationScore is the accepted (or best) draft's rubric score.
	GenerationScore RubricScore `json:"generation_score" yaml:"generation_score"`

	// CompilationScore is the returned compiled text's rubric score.
	CompilationScore RubricScore `json:"compilation_score" yaml:"compilation_score"`

	// Reconciliation reports citation recovery during compilation.
	Reconciliation ReconciliationReport `json:"reconciliation" yaml:"reconciliation"`

	// Attempts is the number of generation drafting calls consumed.
	Attempts int `json:"attempts" yaml:"attempts"`

	// EnrichmentApplied is true when the narrative pass ran and kept its
	// citation set intact.
	EnrichmentApplied bool `json:"enrichment_applied" yaml:"enrichment_applied"`

	// Degraded is true when a best-effort collaborator failed (web search
	// unavailable, enrichment discarded).
	Degraded bool `json:"degraded" yaml:"degraded"`

	// BelowThreshold is true when generation or compilation exhausted its
	// retry budget without passing its rubric.
	BelowThreshold bool `json:"below_threshold" yaml:"below_threshold"`
}
