// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rubric scores answer text against data-driven quality rubrics.
// A rubric is a list of weighted criteria plus hard gates; the evaluator is
// shared by the generation and compilation stages, which differ only in the
// rubric definition they load.
// Implements: prd003-rubric (R1-R4);
//
//	docs/ARCHITECTURE § Evaluation.
package rubric

import (
	"fmt"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Input carries everything a scoring rule may consult. Rules are pure
// functions of this value; they never mutate it and never reach outside it
// (R1.2).
type Input struct {
	// Question is the user's question, used for fidelity checks.
	Question string

	// Text is the candidate answer being scored.
	Text string

	// EvidenceIDs lists the citation identifiers available to the answer.
	// Coverage is measured against this set.
	EvidenceIDs []string

	// Reference is the pre-transformation text, set only when scoring a
	// restructured answer against its source (compilation). Empty for
	// generation scoring.
	Reference string
}

// RuleFunc awards points for one criterion. It returns a value in
// [0, maxPoints] and a one-line rationale.
type RuleFunc func(in Input, a *Analysis, maxPoints float64) (float64, string)

// Criterion is one weighted scoring dimension of a rubric.
type Criterion struct {
	// Key identifies the criterion in scores and feedback.
	Key string

	// Title is the human-readable name used in feedback lines.
	Title string

	// MaxPoints is the criterion's weight.
	MaxPoints float64

	// Rule computes the awarded points.
	Rule RuleFunc
}

// GateFunc checks one hard requirement. A failed gate fails the whole
// evaluation regardless of total points (R3.1).
type GateFunc func(in Input, a *Analysis) (bool, string)

// Gate is one hard requirement of a rubric.
type Gate struct {
	Key   string
	Title string
	Check GateFunc
}

// Rubric is a named set of criteria and gates with a pass threshold.
type Rubric struct {
	Name          string
	Criteria      []Criterion
	Gates         []Gate
	PassThreshold float64
}

// MaxTotal returns the sum of criterion weights.
func (r Rubric) MaxTotal() float64 {
	var total float64
	for _, c := range r.Criteria {
		total += c.MaxPoints
	}
	return total
}

// Validate checks the rubric definition for mistakes that would otherwise
// surface mid-request. Called once at orchestrator construction (R1.3).
func (r Rubric) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rubric has no name")
	}
	if len(r.Criteria) == 0 {
		return fmt.Errorf("rubric %s: no criteria", r.Name)
	}
	seen := make(map[string]bool)
	for i, c := range r.Criteria {
		if c.Key == "" {
			return fmt.Errorf("rubric %s: criterion %d has no key", r.Name, i)
		}
		if seen[c.Key] {
			return fmt.Errorf("rubric %s: duplicate criterion key %q", r.Name, c.Key)
		}
		seen[c.Key] = true
		if c.MaxPoints <= 0 {
			return fmt.Errorf("rubric %s: criterion %s: max points %f must be positive", r.Name, c.Key, c.MaxPoints)
		}
		if c.Rule == nil {
			return fmt.Errorf("rubric %s: criterion %s has no rule", r.Name, c.Key)
		}
	}
	for i, g := range r.Gates {
		if g.Key == "" {
			return fmt.Errorf("rubric %s: gate %d has no key", r.Name, i)
		}
		if seen[g.Key] {
			return fmt.Errorf("rubric %s: duplicate gate key %q", r.Name, g.Key)
		}
		seen[g.Key] = true
		if g.Check == nil {
			return fmt.Errorf("rubric %s: gate %s has no check", r.Name, g.Key)
		}
	}
	if r.PassThreshold <= 0 || r.PassThreshold > r.MaxTotal() {
		return fmt.Errorf("rubric %s: threshold %f must be in (0, %f]", r.Name, r.PassThreshold, r.MaxTotal())
	}
	return nil
}

// weakFraction marks a criterion for feedback when it earns less than this
// share of its weight.
const weakFraction = 0.7

// Evaluator applies one validated rubric.
type Evaluator struct {
	rubric Rubric
}

// NewEvaluator validates the rubric and returns an evaluator for it.
func NewEvaluator(r Rubric) (*Evaluator, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rubric: %w", err)
	}
	return &Evaluator{rubric: r}, nil
}

// Rubric returns the rubric this evaluator applies.
func (e *Evaluator) Rubric() Rubric { return e.rubric }

// Evaluate scores the input against the rubric. The text is analyzed once
// and the analysis shared across rules. Criteria and gates are evaluated in
// definition order; results are deterministic for identical inputs (R2.1,
// R2.2).
func (e *Evaluator) Evaluate(in Input) types.RubricScore {
	a := Analyze(in.Text)

	score := types.RubricScore{Rubric: e.rubric.Name}
	for _, c := range e.rubric.Criteria {
		points, rationale := c.Rule(in, a, c.MaxPoints)
		if points < 0 {
			points = 0
		}
		if points > c.MaxPoints {
			points = c.MaxPoints
		}
		score.Criteria = append(score.Criteria, types.CriterionScore{
			Key:       c.Key,
			Points:    points,
			MaxPoints: c.MaxPoints,
			Rationale: rationale,
		})
		score.Total += points
		if points < weakFraction*c.MaxPoints {
			score.Feedback = append(score.Feedback, fmt.Sprintf("improve %s: %s", c.Title, rationale))
		}
	}

	gatesPassed := true
	for _, g := range e.rubric.Gates {
		passed, detail := g.Check(in, a)
		score.Gates = append(score.Gates, types.GateResult{Key: g.Key, Passed: passed, Detail: detail})
		if !passed {
			gatesPassed = false
			score.Feedback = append(score.Feedback, fmt.Sprintf("must fix %s: %s", g.Title, detail))
		}
	}

	score.Passed = gatesPassed && score.Total >= e.rubric.PassThreshold
	return score
}
