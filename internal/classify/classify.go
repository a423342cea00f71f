// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify tags questions by complexity for enrichment routing.
// Implements: prd001-classification (R1-R3);
//
//	docs/ARCHITECTURE § Classification.
package classify

import (
	"strings"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// complexMarkers indicate causal, comparative, or design-level questions (R2.1).
// Any match classifies the question COMPLEX regardless of length; ties
// resolve toward the higher complexity (R2.4).
var complexMarkers = []string{
	"why", "when should", "compare", "difference", "versus", "vs",
	"trade-off", "tradeoff", "best practice", "production", "deploy",
	"scale", "architecture", "design", "pattern",
}

// basicMarkers indicate definition-style questions (R2.2). They only apply
// to short questions; a long definition question still needs full treatment.
var basicMarkers = []string{
	"what is", "define", "definition", "meaning",
}

const (
	basicMarkerMaxWords = 10
	basicMaxWords       = 6
	complexMinWords     = 26
)

// Classify returns the complexity tag for a question. It is a pure function
// of the question text: no external calls, no randomness, no side effects
// (R1.1, R3.1).
func Classify(question string) types.Complexity {
	lowered := strings.ToLower(strings.TrimSpace(question))
	words := len(strings.Fields(lowered))

	for _, marker := range complexMarkers {
		if strings.Contains(lowered, marker) {
			return types.ComplexityComplex
		}
	}

	for _, marker := range basicMarkers {
		if strings.Contains(lowered, marker) && words <= basicMarkerMaxWords {
			return types.ComplexityBasic
		}
	}

	switch {
	case words <= basicMaxWords:
		return types.ComplexityBasic
	case words >= complexMinWords:
		return types.ComplexityComplex
	default:
		return types.ComplexityStandard
	}
}
