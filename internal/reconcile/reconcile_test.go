// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"reflect"
	"strings"
	"testing"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			"none",
			"No citations here.",
			nil,
		},
		{
			"ordered and deduplicated",
			"First [doc-2] then [web-1] then [doc-2] again and [doc-1].",
			[]string{"doc-2", "web-1", "doc-1"},
		},
		{
			"ignores malformed markers",
			"Not markers: [doc-] [ref-1] [web-x] but [web-3] is.",
			[]string{"web-3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extract(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestStrip(t *testing.T) {
	got := Strip("Channels block [doc-1] until ready [web-2].")
	want := "Channels block until ready ."
	if got != want {
		t.Errorf("Strip = %q, want %q", got, want)
	}
}

func TestReconcileNoLoss(t *testing.T) {
	r := New(types.ReconcileConfig{})
	text := "Goroutines are cheap [doc-1]. Channels synchronize them [doc-2]."
	got, report := r.Reconcile(text, text)
	if got != text {
		t.Errorf("text changed: %q", got)
	}
	if report.Attempted != 0 || report.Injected != 0 || len(report.Unrecoverable) != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
}

func TestReconcileInjectsLostCitations(t *testing.T) {
	r := New(types.ReconcileConfig{})
	source := "Goroutines multiplex onto operating system threads through the runtime scheduler [doc-1]. " +
		"Buffered channels decouple sender and receiver until capacity fills [doc-2]. " +
		"Mutex locking serializes access to shared counters [web-1]."
	transformed := "Start with the runtime scheduler: goroutines multiplex onto operating system threads. " +
		"Buffered channels decouple sender and receiver until capacity fills [doc-2]. " +
		"To serialize access, wrap shared counters in mutex locking."

	got, report := r.Reconcile(source, transformed)

	if report.Attempted != 2 {
		t.Errorf("Attempted = %d, want 2", report.Attempted)
	}
	if report.Injected != 2 {
		t.Errorf("Injected = %d, want 2", report.Injected)
	}
	if len(report.Unrecoverable) != 0 {
		t.Errorf("Unrecoverable = %v, want none", report.Unrecoverable)
	}

	ids := Extract(got)
	for _, want := range []string{"doc-1", "doc-2", "web-1"} {
		found := false
		for _, id := range ids {
			if id == want {
				found = true
			}
		}
		if !found {
			t.Errorf("patched text missing %s: %q", want, got)
		}
	}

	// The marker must land on the sentence that paraphrases its carrier.
	if !strings.Contains(got, "threads. [doc-1]") {
		t.Errorf("doc-1 not appended to scheduler sentence: %q", got)
	}
}

func TestReconcileUnrecoverable(t *testing.T) {
	r := New(types.ReconcileConfig{})
	source := "Quantum annealing hardware minimizes energy landscapes [doc-7]."
	transformed := "Slices grow by doubling capacity."

	got, report := r.Reconcile(source, transformed)

	if got != transformed {
		t.Errorf("text changed despite no match: %q", got)
	}
	if report.Attempted != 1 || report.Injected != 0 {
		t.Errorf("report = %+v, want attempted 1 injected 0", report)
	}
	if !reflect.DeepEqual(report.Unrecoverable, []string{"doc-7"}) {
		t.Errorf("Unrecoverable = %v, want [doc-7]", report.Unrecoverable)
	}
}

// Code blocks never receive injected markers, even when they contain the
// carrier's terms.
func TestReconcileSkipsCodeBlocks(t *testing.T) {
	r := New(types.ReconcileConfig{})
	source := "Use the context package to cancel slow requests [doc-3]."
	transformed := "```go\n// cancel slow requests with the context package\nctx, cancel := context.WithTimeout(ctx, d)\n```\nAlways pass a deadline downstream."

	got, report := r.Reconcile(source, transformed)

	if report.Injected != 0 {
		t.Errorf("Injected = %d, want 0", report.Injected)
	}
	if !reflect.DeepEqual(report.Unrecoverable, []string{"doc-3"}) {
		t.Errorf("Unrecoverable = %v, want [doc-3]", report.Unrecoverable)
	}
	if strings.Contains(got, "[doc-3]") {
		t.Errorf("marker injected into code block: %q", got)
	}
}

// Reconciling a patched text against the same source is a no-op: every
// recoverable identifier is already present, and the rest stay unrecoverable
// without further mutation.
func TestReconcileIdempotent(t *testing.T) {
	r := New(types.ReconcileConfig{})
	source := "The race detector instruments memory accesses at compile time [doc-1]. " +
		"Escape analysis moves short-lived values onto the stack [doc-2]."
	transformed := "At compile time the race detector instruments memory accesses. " +
		"Escape analysis moves short-lived values onto the stack [doc-2]."

	patched, first := r.Reconcile(source, transformed)
	if first.Injected != 1 {
		t.Fatalf("setup: Injected = %d, want 1", first.Injected)
	}

	again, second := r.Reconcile(source, patched)
	if again != patched {
		t.Errorf("second pass changed text:\n%q\n%q", patched, again)
	}
	if second.Attempted != 0 || second.Injected != 0 {
		t.Errorf("second pass report = %+v, want zeros", second)
	}
}

func TestReconcileHonorsMinOverlap(t *testing.T) {
	// With an overlap bar of 1.0, a partial paraphrase is not good enough.
	r := New(types.ReconcileConfig{MinOverlap: 1.0})
	source := "Connection pooling amortizes handshake latency across requests [web-4]."
	transformed := "Connection pooling helps performance."

	_, report := r.Reconcile(source, transformed)
	if report.Injected != 0 {
		t.Errorf("Injected = %d, want 0 at overlap 1.0", report.Injected)
	}
	if !reflect.DeepEqual(report.Unrecoverable, []string{"web-4"}) {
		t.Errorf("Unrecoverable = %v, want [web-4]", report.Unrecoverable)
	}
}
