// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixed struct {
	text string
	err  error
}

func (f *fixed) Complete(ctx context.Context, prompt string, preset types.TemperaturePreset) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func TestDecide(t *testing.T) {
	r := NewRouter(&fixed{}, types.EnrichmentConfig{Enabled: true, SkipThreshold: 90}, testLogger())

	tests := []struct {
		name       string
		complexity types.Complexity
		total      float64
		want       bool
	}{
		{"basic high score skips", types.ComplexityBasic, 95, false},
		{"basic at threshold skips", types.ComplexityBasic, 90, false},
		{"basic low score enriches", types.ComplexityBasic, 80, true},
		{"standard high score enriches", types.ComplexityStandard, 99, true},
		{"complex high score enriches", types.ComplexityComplex, 99, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Decide(tt.complexity, tt.total); got != tt.want {
				t.Errorf("Decide(%v, %f) = %v, want %v", tt.complexity, tt.total, got, tt.want)
			}
		})
	}
}

func TestDecideDisabled(t *testing.T) {
	r := NewRouter(&fixed{}, types.EnrichmentConfig{Enabled: false}, testLogger())
	if r.Decide(types.ComplexityComplex, 10) {
		t.Error("Decide = true with enrichment disabled")
	}
}

const compiled = "Channels synchronize goroutines [doc-1]. Select multiplexes them [web-1]."

func TestRunAppliesWhenCitationsMatch(t *testing.T) {
	enriched := "Think of channels as meeting points for goroutines [doc-1]. Select lets one goroutine juggle several of them [web-1]."
	r := NewRouter(&fixed{text: enriched}, types.EnrichmentConfig{Enabled: true}, testLogger())

	out, err := r.Run(context.Background(), "q", compiled)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.Applied || out.Degraded {
		t.Errorf("out = %+v, want applied", out)
	}
	if out.Text != enriched {
		t.Errorf("Text = %q", out.Text)
	}
}

func TestRunAllowsReorderedCitations(t *testing.T) {
	// Same set, different order and repetition: still acceptable.
	enriched := "Select multiplexes [web-1] [doc-1]. Channels synchronize [doc-1]."
	r := NewRouter(&fixed{text: enriched}, types.EnrichmentConfig{Enabled: true}, testLogger())

	out, err := r.Run(context.Background(), "q", compiled)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.Applied {
		t.Errorf("out = %+v, want applied for reordered set", out)
	}
}

func TestRunDiscardsOnDroppedCitation(t *testing.T) {
	r := NewRouter(&fixed{text: "Smoother prose but only one marker [doc-1]."},
		types.EnrichmentConfig{Enabled: true}, testLogger())

	out, err := r.Run(context.Background(), "q", compiled)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Applied || !out.Degraded {
		t.Errorf("out = %+v, want discarded", out)
	}
	if out.Text != compiled {
		t.Errorf("Text = %q, want compiled answer unchanged", out.Text)
	}
}

func TestRunDiscardsOnInventedCitation(t *testing.T) {
	r := NewRouter(&fixed{text: compiled + " Extra claim [doc-9]."},
		types.EnrichmentConfig{Enabled: true}, testLogger())

	out, err := r.Run(context.Background(), "q", compiled)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Applied || !out.Degraded {
		t.Errorf("out = %+v, want discarded for invented marker", out)
	}
}

func TestRunDegradesOnProviderError(t *testing.T) {
	r := NewRouter(&fixed{err: fmt.Errorf("provider down")},
		types.EnrichmentConfig{Enabled: true}, testLogger())

	out, err := r.Run(context.Background(), "q", compiled)
	if err != nil {
		t.Fatalf("Run: %v, enrichment must not be fatal", err)
	}
	if out.Applied || !out.Degraded || out.Text != compiled {
		t.Errorf("out = %+v, want compiled answer with degraded flag", out)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRouter(&fixed{text: compiled}, types.EnrichmentConfig{Enabled: true}, testLogger())
	if _, err := r.Run(ctx, "q", compiled); err == nil {
		t.Fatal("expected context error")
	}
}
