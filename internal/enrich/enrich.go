// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich decides whether a compiled answer gets a narrative polish
// pass and applies it under a strict safety rule: the enriched text must
// cite exactly the same identifiers as its input, or it is discarded.
// Unlike compilation there is no reconciliation here, equality only.
// Implements: prd007-enrichment (R1-R3);
//
//	docs/ARCHITECTURE § Enrichment.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/internal/reconcile"
	"github.com/pdiddy/answer-engine/pkg/types"
)

const defaultSkipThreshold = 90

// Router owns the enrichment decision and the narrative pass.
type Router struct {
	completer     llm.Completer
	enabled       bool
	skipThreshold float64
	log           *slog.Logger
}

// NewRouter builds an enrichment router. A zero SkipThreshold means the
// default (90).
func NewRouter(completer llm.Completer, cfg types.EnrichmentConfig, log *slog.Logger) *Router {
	skip := cfg.SkipThreshold
	if skip <= 0 {
		skip = defaultSkipThreshold
	}
	return &Router{completer: completer, enabled: cfg.Enabled, skipThreshold: skip, log: log}
}

// Decide reports whether the answer should be enriched. Basic questions
// whose compiled answer already scored at or above the skip threshold go
// out as-is; everything else gets the narrative pass when enrichment is
// enabled (R1.1-R1.3).
func (r *Router) Decide(complexity types.Complexity, compileTotal float64) bool {
	if !r.enabled {
		return false
	}
	if complexity == types.ComplexityBasic && compileTotal >= r.skipThreshold {
		return false
	}
	return true
}

// Output is the enrichment result.
type Output struct {
	// Text is the enriched answer, or the input unchanged when the pass
	// was discarded or failed.
	Text string

	// Applied is true only when the enriched text replaced the input.
	Applied bool

	// Degraded is true when the pass was attempted but discarded (R3.2).
	Degraded bool
}

// Run applies the narrative pass once. The enriched text is kept only when
// its citation identifier set exactly equals the input's; any mismatch
// discards the enrichment and returns the input flagged degraded. Provider
// failures degrade the same way because enrichment is best-effort (R2.1,
// R3.1, R3.2).
func (r *Router) Run(ctx context.Context, question, compiled string) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	enriched, err := r.completer.Complete(ctx, buildPrompt(question, compiled), types.PresetNarrative)
	if err != nil {
		r.log.Warn("enrichment pass failed, keeping compiled answer", "error", err)
		return Output{Text: compiled, Degraded: true}, nil
	}

	if !sameCitationSet(compiled, enriched) {
		r.log.Warn("enrichment changed the citation set, discarding",
			"before", reconcile.Extract(compiled), "after", reconcile.Extract(enriched))
		return Output{Text: compiled, Degraded: true}, nil
	}

	return Output{Text: enriched, Applied: true}, nil
}

// sameCitationSet compares citation identifiers as sets: order and repeat
// counts may change, membership may not.
func sameCitationSet(before, after string) bool {
	beforeIDs := reconcile.Extract(before)
	afterIDs := reconcile.Extract(after)
	if len(beforeIDs) != len(afterIDs) {
		return false
	}
	set := make(map[string]bool, len(beforeIDs))
	for _, id := range beforeIDs {
		set[id] = true
	}
	for _, id := range afterIDs {
		if !set[id] {
			return false
		}
	}
	return true
}

// buildPrompt asks for tone polish without structural or factual drift.
func buildPrompt(question, compiled string) string {
	var b strings.Builder
	b.WriteString("Polish the answer below for warmth and narrative flow. Keep its structure, headings, ")
	b.WriteString("code blocks, technical claims, and every citation marker (such as [doc-1]) exactly where they are. ")
	b.WriteString("Do not add or remove citations.\n\n")
	fmt.Fprintf(&b, "Question: %s\n\nAnswer:\n%s\n", question, compiled)
	return b.String()
}
