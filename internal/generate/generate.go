// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate drafts evidence-grounded answers and revises them until
// the generation rubric passes or the attempt budget runs out. The loop is
// an explicit state machine; there is no workflow graph underneath.
// Implements: prd004-generation (R1-R4);
//
//	docs/ARCHITECTURE § Generation.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/internal/rubric"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// State is one phase of the drafting loop (R1.1).
type State int

const (
	StateDrafting State = iota
	StateScoring
	StateRevising
	StateAccepted
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateDrafting:
		return "drafting"
	case StateScoring:
		return "scoring"
	case StateRevising:
		return "revising"
	case StateAccepted:
		return "accepted"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const defaultMaxAttempts = 5

// Stage runs the generation loop for one request at a time.
type Stage struct {
	completer   llm.Completer
	evaluator   *rubric.Evaluator
	maxAttempts int
	log         *slog.Logger
}

// NewStage builds a generation stage. A zero MaxAttempts means the default
// (5).
func NewStage(completer llm.Completer, evaluator *rubric.Evaluator, cfg types.GenerationConfig, log *slog.Logger) *Stage {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Stage{completer: completer, evaluator: evaluator, maxAttempts: maxAttempts, log: log}
}

// Output is the generation result handed to compilation.
type Output struct {
	// Draft is the accepted draft, or the best-scoring one on exhaustion.
	Draft string

	// Score is Draft's rubric evaluation.
	Score types.RubricScore

	// Attempts records every drafting attempt in order (R2.1).
	Attempts []types.GenerationAttempt

	// BelowThreshold is true when the loop exhausted its budget without a
	// passing draft (R4.2).
	BelowThreshold bool
}

// Run drives the state machine: draft, score, revise with feedback, up to
// the attempt budget. It never issues more than MaxAttempts drafting calls
// (R4.1). On exhaustion it returns the highest-scoring attempt; ties go to
// the later attempt, which has seen more feedback (R4.3).
func (s *Stage) Run(ctx context.Context, req types.PipelineRequest, evidence []types.EvidenceItem) (Output, error) {
	var (
		state    = StateDrafting
		attempts []types.GenerationAttempt
		feedback []string
		draft    string
	)

	for {
		switch state {
		case StateDrafting, StateRevising:
			if err := ctx.Err(); err != nil {
				return Output{}, err
			}
			prompt := buildPrompt(req, evidence, feedback)
			text, err := s.completer.Complete(ctx, prompt, types.PresetTechnical)
			if err != nil {
				return Output{}, fmt.Errorf("drafting attempt %d: %w", len(attempts)+1, err)
			}
			draft = text
			state = StateScoring

		case StateScoring:
			score := s.evaluator.Evaluate(rubric.Input{
				Question:    req.Question,
				Text:        draft,
				EvidenceIDs: IDs(evidence),
			})
			attempts = append(attempts, types.GenerationAttempt{
				Index:    len(attempts),
				Draft:    draft,
				Score:    score,
				Feedback: score.Feedback,
			})
			s.log.Debug("draft scored",
				"attempt", len(attempts), "total", score.Total, "passed", score.Passed)

			switch {
			case score.Passed:
				state = StateAccepted
			case len(attempts) >= s.maxAttempts:
				state = StateExhausted
			default:
				feedback = score.Feedback
				state = StateRevising
			}

		case StateAccepted:
			last := attempts[len(attempts)-1]
			return Output{Draft: last.Draft, Score: last.Score, Attempts: attempts}, nil

		case StateExhausted:
			best := attempts[0]
			for _, a := range attempts[1:] {
				if a.Score.Total >= best.Score.Total {
					best = a
				}
			}
			s.log.Warn("generation exhausted attempt budget",
				"attempts", len(attempts), "best_total", best.Score.Total)
			return Output{
				Draft:          best.Draft,
				Score:          best.Score,
				Attempts:       attempts,
				BelowThreshold: true,
			}, nil
		}
	}
}

// IDs lists the evidence identifiers in order.
func IDs(evidence []types.EvidenceItem) []string {
	ids := make([]string, len(evidence))
	for i, e := range evidence {
		ids[i] = e.ID
	}
	return ids
}

// buildPrompt assembles the drafting prompt: question, conversation
// history, evidence blocks keyed by citation identifier, and any revision
// feedback from the previous attempt (R3.1, R3.2).
func buildPrompt(req types.PipelineRequest, evidence []types.EvidenceItem, feedback []string) string {
	var b strings.Builder

	b.WriteString("Answer the question below as a tutor. Cite evidence with its marker, e.g. [doc-1], ")
	b.WriteString("next to every claim it supports. Include at least one fenced code example.\n\n")

	if len(req.History) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, turn := range req.History {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
		}
		b.WriteString("\n")
	}

	b.WriteString("Evidence:\n")
	for _, e := range evidence {
		fmt.Fprintf(&b, "[%s] %s\n%s\n\n", e.ID, e.Title, e.Snippet)
	}

	if len(feedback) > 0 {
		b.WriteString("Your previous draft fell short. Address each point:\n")
		for _, f := range feedback {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s\n", req.Question)
	return b.String()
}
