// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compile restructures an accepted draft into the pedagogical
// answer shape, reconciling citations the restructuring loses and scoring
// the result against the compilation rubric.
// Implements: prd006-compile (R1-R3), prd005-reconcile (R1.2);
//
//	docs/ARCHITECTURE § Compilation.
package compile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdiddy/answer-engine/internal/generate"
	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/internal/reconcile"
	"github.com/pdiddy/answer-engine/internal/rubric"
	"github.com/pdiddy/answer-engine/pkg/types"
)

const defaultMaxAttempts = 2

// Stage runs compilation for one request at a time.
type Stage struct {
	completer   llm.Completer
	evaluator   *rubric.Evaluator
	reconciler  *reconcile.Reconciler
	maxAttempts int
	log         *slog.Logger
}

// NewStage builds a compilation stage. A zero MaxAttempts means the
// default (2).
func NewStage(completer llm.Completer, evaluator *rubric.Evaluator, reconciler *reconcile.Reconciler, cfg types.CompilationConfig, log *slog.Logger) *Stage {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Stage{
		completer:   completer,
		evaluator:   evaluator,
		reconciler:  reconciler,
		maxAttempts: maxAttempts,
		log:         log,
	}
}

// Output is the compilation result handed to enrichment routing.
type Output struct {
	// Text is the reconciled compiled answer.
	Text string

	// Score is Text's compilation-rubric evaluation.
	Score types.RubricScore

	// Reconciliation is the citation-recovery report for the returned
	// attempt, not an aggregate over retries (R3.3).
	Reconciliation types.ReconciliationReport

	// Attempts is the number of compile calls consumed.
	Attempts int

	// BelowThreshold is true when no attempt passed the rubric (R3.2).
	BelowThreshold bool
}

// attempt is one compile try with everything needed for best-of selection.
type attempt struct {
	text   string
	score  types.RubricScore
	report types.ReconciliationReport
}

// Run transforms the draft into the teaching shape, reconciles citations
// against the draft, and scores the result. Failed attempts retry with
// explicit feedback up to the budget; on exhaustion the best attempt is
// returned flagged BelowThreshold. Ties resolve to the later attempt.
func (s *Stage) Run(ctx context.Context, question, draft string, evidence []types.EvidenceItem) (Output, error) {
	var (
		attempts []attempt
		feedback []string
	)

	for len(attempts) < s.maxAttempts {
		if err := ctx.Err(); err != nil {
			return Output{}, err
		}

		prompt := buildPrompt(question, draft, feedback)
		compiled, err := s.completer.Complete(ctx, prompt, types.PresetStructural)
		if err != nil {
			return Output{}, fmt.Errorf("compile attempt %d: %w", len(attempts)+1, err)
		}

		patched, report := s.reconciler.Reconcile(draft, compiled)
		score := s.evaluator.Evaluate(rubric.Input{
			Question:    question,
			Text:        patched,
			EvidenceIDs: generate.IDs(evidence),
			Reference:   draft,
		})
		attempts = append(attempts, attempt{text: patched, score: score, report: report})
		s.log.Debug("compile scored",
			"attempt", len(attempts), "total", score.Total, "passed", score.Passed,
			"citations_injected", report.Injected, "citations_unrecoverable", len(report.Unrecoverable))

		if score.Passed {
			return Output{
				Text:           patched,
				Score:          score,
				Reconciliation: report,
				Attempts:       len(attempts),
			}, nil
		}

		feedback = revisionFeedback(score, report)
	}

	best := attempts[0]
	for _, a := range attempts[1:] {
		if a.score.Total >= best.score.Total {
			best = a
		}
	}
	s.log.Warn("compilation exhausted attempt budget",
		"attempts", len(attempts), "best_total", best.score.Total)
	return Output{
		Text:           best.text,
		Score:          best.score,
		Reconciliation: best.report,
		Attempts:       len(attempts),
		BelowThreshold: true,
	}, nil
}

// revisionFeedback combines rubric feedback with concrete citation-loss
// counts so the retry prompt states exactly what to restore (R2.2).
func revisionFeedback(score types.RubricScore, report types.ReconciliationReport) []string {
	feedback := append([]string{}, score.Feedback...)
	if len(report.Unrecoverable) > 0 {
		feedback = append(feedback, fmt.Sprintf(
			"restore the dropped citation markers %s next to the claims they support",
			strings.Join(bracketed(report.Unrecoverable), ", ")))
	}
	return feedback
}

func bracketed(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = "[" + id + "]"
	}
	return out
}

// buildPrompt asks for the four-part teaching shape while keeping markers
// and code intact (R1.1, R1.2).
func buildPrompt(question, draft string, feedback []string) string {
	var b strings.Builder

	b.WriteString("Restructure the draft answer below into a teaching answer with four parts, ")
	b.WriteString("using markdown headings: the problem being solved, how the mechanism works, ")
	b.WriteString("a worked example, and a closing reflection for the reader.\n")
	b.WriteString("Keep every citation marker (such as [doc-1]) attached to its claim and keep code blocks verbatim.\n\n")

	if len(feedback) > 0 {
		b.WriteString("The previous version fell short. Address each point:\n")
		for _, f := range feedback {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s\n\nDraft answer:\n%s\n", question, draft)
	return b.String()
}
