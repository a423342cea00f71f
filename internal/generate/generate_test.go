// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/pdiddy/answer-engine/internal/rubric"
	"github.com/pdiddy/answer-engine/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scripted returns canned drafts in order and records every prompt.
type scripted struct {
	drafts  []string
	prompts []string
	errAt   int
}

func (s *scripted) Complete(ctx context.Context, prompt string, preset types.TemperaturePreset) (string, error) {
	s.prompts = append(s.prompts, prompt)
	call := len(s.prompts)
	if s.errAt > 0 && call == s.errAt {
		return "", fmt.Errorf("provider unavailable")
	}
	if call > len(s.drafts) {
		return "", fmt.Errorf("script exhausted after %d drafts", len(s.drafts))
	}
	return s.drafts[call-1], nil
}

// testEvaluator passes a draft only when it contains the token "GOOD".
// Partial credit scales with occurrences of "FAIR".
func testEvaluator(t *testing.T) *rubric.Evaluator {
	t.Helper()
	e, err := rubric.NewEvaluator(rubric.Rubric{
		Name:          "test",
		PassThreshold: 10,
		Criteria: []rubric.Criterion{{
			Key: "quality", Title: "quality", MaxPoints: 10,
			Rule: func(in rubric.Input, a *rubric.Analysis, max float64) (float64, string) {
				if strings.Contains(in.Text, "GOOD") {
					return max, "contains GOOD"
				}
				return float64(strings.Count(in.Text, "FAIR")), "missing GOOD"
			},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func sampleEvidence() []types.EvidenceItem {
	return []types.EvidenceItem{
		{ID: "doc-1", Kind: types.SourceRetrieved, Title: "Scheduler notes", Snippet: "goroutines multiplex onto threads"},
		{ID: "web-1", Kind: types.SourceWeb, Title: "Blog post", Snippet: "preemption details"},
	}
}

func TestRunAcceptsFirstPassingDraft(t *testing.T) {
	completer := &scripted{drafts: []string{"GOOD draft"}}
	stage := NewStage(completer, testEvaluator(t), types.GenerationConfig{MaxAttempts: 3}, testLogger())

	out, err := stage.Run(context.Background(), types.PipelineRequest{Question: "q"}, sampleEvidence())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Draft != "GOOD draft" {
		t.Errorf("Draft = %q", out.Draft)
	}
	if out.BelowThreshold {
		t.Error("BelowThreshold = true for a passing draft")
	}
	if len(out.Attempts) != 1 {
		t.Errorf("attempts = %d, want 1", len(out.Attempts))
	}
}

func TestRunRevisesWithFeedback(t *testing.T) {
	completer := &scripted{drafts: []string{"weak", "still weak", "GOOD now"}}
	stage := NewStage(completer, testEvaluator(t), types.GenerationConfig{MaxAttempts: 5}, testLogger())

	out, err := stage.Run(context.Background(), types.PipelineRequest{Question: "q"}, sampleEvidence())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Draft != "GOOD now" {
		t.Errorf("Draft = %q", out.Draft)
	}
	if len(out.Attempts) != 3 {
		t.Fatalf("attempts = %d, want 3", len(out.Attempts))
	}

	// The first prompt carries no feedback; revision prompts do.
	if strings.Contains(completer.prompts[0], "fell short") {
		t.Error("first prompt contains revision feedback")
	}
	for i, p := range completer.prompts[1:] {
		if !strings.Contains(p, "fell short") || !strings.Contains(p, "missing GOOD") {
			t.Errorf("revision prompt %d missing feedback: %q", i+2, p)
		}
	}

	// Attempts are append-only with stable indices.
	for i, a := range out.Attempts {
		if a.Index != i {
			t.Errorf("attempt %d has Index %d", i, a.Index)
		}
	}
}

func TestRunExhaustsAndReturnsBest(t *testing.T) {
	// Scores: 1, 3, 3. The tie must resolve to the later attempt.
	completer := &scripted{drafts: []string{"FAIR", "FAIR FAIR FAIR early", "FAIR FAIR FAIR late"}}
	stage := NewStage(completer, testEvaluator(t), types.GenerationConfig{MaxAttempts: 3}, testLogger())

	out, err := stage.Run(context.Background(), types.PipelineRequest{Question: "q"}, sampleEvidence())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.BelowThreshold {
		t.Error("BelowThreshold = false after exhaustion")
	}
	if len(out.Attempts) != 3 {
		t.Errorf("attempts = %d, want exactly the budget", len(out.Attempts))
	}
	if out.Draft != "FAIR FAIR FAIR late" {
		t.Errorf("Draft = %q, want the later of the tied attempts", out.Draft)
	}
	if len(completer.prompts) != 3 {
		t.Errorf("drafting calls = %d, must never exceed budget", len(completer.prompts))
	}
}

func TestRunDraftErrorPropagates(t *testing.T) {
	completer := &scripted{drafts: []string{"weak"}, errAt: 2}
	stage := NewStage(completer, testEvaluator(t), types.GenerationConfig{MaxAttempts: 3}, testLogger())

	_, err := stage.Run(context.Background(), types.PipelineRequest{Question: "q"}, sampleEvidence())
	if err == nil {
		t.Fatal("expected error from failing provider")
	}
	if !strings.Contains(err.Error(), "attempt 2") {
		t.Errorf("err = %v, want attempt number context", err)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	completer := &scripted{drafts: []string{"GOOD"}}
	stage := NewStage(completer, testEvaluator(t), types.GenerationConfig{}, testLogger())

	if _, err := stage.Run(ctx, types.PipelineRequest{Question: "q"}, sampleEvidence()); err == nil {
		t.Fatal("expected context error")
	}
	if len(completer.prompts) != 0 {
		t.Error("drafting call issued after cancellation")
	}
}

func TestBuildPrompt(t *testing.T) {
	req := types.PipelineRequest{
		Question: "How does preemption work?",
		History: []types.Turn{
			{Role: "user", Content: "What is a goroutine?"},
			{Role: "assistant", Content: "A lightweight thread."},
		},
	}
	prompt := buildPrompt(req, sampleEvidence(), []string{"cite more"})

	for _, want := range []string{
		"[doc-1] Scheduler notes",
		"goroutines multiplex onto threads",
		"[web-1] Blog post",
		"user: What is a goroutine?",
		"assistant: A lightweight thread.",
		"- cite more",
		"Question: How does preemption work?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestStateString(t *testing.T) {
	states := map[State]string{
		StateDrafting:  "drafting",
		StateScoring:   "scoring",
		StateRevising:  "revising",
		StateAccepted:  "accepted",
		StateExhausted: "exhausted",
	}
	for s, want := range states {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(s), s.String(), want)
		}
	}
}
