// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rubric

import (
	"reflect"
	"testing"
)

const analyzedFixture = "# Goroutines\n\n" +
	"A goroutine is a lightweight thread managed by the runtime [doc-1]. " +
	"The scheduler multiplexes goroutines onto OS threads [doc-2].\n\n" +
	"## Worked example\n\n" +
	"```go\ngo func() {\n\tresults <- compute()\n}()\n```\n\n" +
	"- First, launch the worker with `go`.\n" +
	"- Then, collect results over a channel [web-1].\n"

func TestAnalyze(t *testing.T) {
	a := Analyze(analyzedFixture)

	if a.Headings != 2 {
		t.Errorf("Headings = %d, want 2", a.Headings)
	}
	if a.CodeBlocks != 1 {
		t.Errorf("CodeBlocks = %d, want 1", a.CodeBlocks)
	}
	if a.ListItems != 2 {
		t.Errorf("ListItems = %d, want 2", a.ListItems)
	}
	if a.InlineCode != 1 {
		t.Errorf("InlineCode = %d, want 1", a.InlineCode)
	}
	want := []string{"doc-1", "doc-2", "web-1"}
	if !reflect.DeepEqual(a.Citations, want) {
		t.Errorf("Citations = %v, want %v", a.Citations, want)
	}
	if a.Words == 0 {
		t.Error("Words = 0, want prose word count")
	}
	if a.CitationDensity <= 0 {
		t.Errorf("CitationDensity = %f, want positive", a.CitationDensity)
	}
	// Code lines must not count as prose.
	if a.Words > 60 {
		t.Errorf("Words = %d, code lines appear to be counted", a.Words)
	}
}

func TestCoverage(t *testing.T) {
	a := Analyze("Cites one source [doc-1] twice [doc-1].")

	tests := []struct {
		name     string
		evidence []string
		want     float64
	}{
		{"empty evidence is full coverage", nil, 1},
		{"full", []string{"doc-1"}, 1},
		{"half", []string{"doc-1", "doc-2"}, 0.5},
		{"none", []string{"web-1"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := coverage(a, tt.evidence); got != tt.want {
				t.Errorf("coverage = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestRuleSentenceClarity(t *testing.T) {
	rule := ruleSentenceClarity(8, 28)

	inBand := "This sentence carries roughly twelve words to land inside the clarity band nicely. " +
		"Another sentence of comparable length keeps the running mean well within bounds too."
	points, _ := rule(Input{Text: inBand}, Analyze(inBand), 5)
	if points != 5 {
		t.Errorf("in-band points = %f, want 5", points)
	}

	choppy := "Too short. Very bad. No flow. Not good. Stop now."
	points, _ = rule(Input{Text: choppy}, Analyze(choppy), 5)
	if points >= 5 {
		t.Errorf("choppy points = %f, want < 5", points)
	}
}

func TestRuleInclusiveLanguage(t *testing.T) {
	rule := ruleInclusiveLanguage(1)

	clean := "Channels coordinate goroutines."
	points, _ := rule(Input{Text: clean}, Analyze(clean), 2)
	if points != 2 {
		t.Errorf("clean points = %f, want 2", points)
	}

	dismissive := "Obviously this is trivial and everyone knows it."
	points, _ = rule(Input{Text: dismissive}, Analyze(dismissive), 2)
	if points != 0 {
		t.Errorf("dismissive points = %f, want 0", points)
	}
}

func TestSalientQuestionTerms(t *testing.T) {
	got := salientQuestionTerms("How does the scheduler preempt goroutines?")
	want := []string{"scheduler", "preempt", "goroutines"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("salientQuestionTerms = %v, want %v", got, want)
	}
}
