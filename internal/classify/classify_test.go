// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"testing"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     types.Complexity
	}{
		{"short definition", "What is a goroutine?", types.ComplexityBasic},
		{"define keyword", "Define channel buffering", types.ComplexityBasic},
		{"short question", "How do slices grow?", types.ComplexityBasic},
		{"how-to", "How do I configure a context timeout for an HTTP client?", types.ComplexityStandard},
		{"why is complex", "Why does the scheduler preempt long-running goroutines?", types.ComplexityComplex},
		{"trade-off is complex", "What are the trade-off considerations for buffered channels?", types.ComplexityComplex},
		{"comparison is complex", "Mutex versus channel for shared counters", types.ComplexityComplex},
		{"production is complex", "Is it safe to reuse transports in production?", types.ComplexityComplex},
		{"long question is complex", "How would one go about structuring a package so that its exported API stays small while internal helpers remain easy to test across several subsystems over time?", types.ComplexityComplex},
		{"long definition stays standard", "What is the recommended way to handle configuration values that arrive from several different sources at once?", types.ComplexityStandard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.question); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.question, got, tt.want)
			}
		})
	}
}

// Classification must be referentially transparent: repeated calls on the
// same input always agree.
func TestClassifyDeterministic(t *testing.T) {
	questions := []string{
		"What is a map?",
		"Why do deferred calls run in LIFO order?",
		"How do I parse a timestamp?",
	}
	for _, q := range questions {
		first := Classify(q)
		for i := 0; i < 10; i++ {
			if got := Classify(q); got != first {
				t.Fatalf("Classify(%q) unstable: %v then %v", q, first, got)
			}
		}
	}
}

func TestClassifyTieResolvesUpward(t *testing.T) {
	// Contains both a basic marker ("what is") and a complex marker
	// ("trade-off"): the complex marker wins.
	got := Classify("What is the trade-off here?")
	if got != types.ComplexityComplex {
		t.Errorf("Classify = %v, want complex on mixed markers", got)
	}
}
