// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile detects citations lost during text restructuring and
// reinjects them by fuzzy sentence matching. The contract is best-effort
// recovery with an auditable report, not guaranteed losslessness.
// Implements: prd005-reconcile (R1-R4);
//
//	docs/ARCHITECTURE § Reconciliation.
package reconcile

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// citePattern matches inline citation markers: [doc-N] or [web-N].
var citePattern = regexp.MustCompile(`\[(doc|web)-\d+\]`)

// Extract returns the unique citation identifiers in text, without brackets,
// in order of first appearance (R1.1).
func Extract(text string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, m := range citePattern.FindAllString(text, -1) {
		id := strings.Trim(m, "[]")
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// Strip removes every citation marker from text. Used by callers that need
// a citation-free rendering; the reconciler itself never strips.
func Strip(text string) string {
	out := citePattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(out), " ")
}

// Reconciler reinjects citations lost between a source and a transformed
// text. Overlap threshold and term filtering are tunable heuristics (R3.3).
type Reconciler struct {
	minOverlap    float64
	minTermLength int
}

// New builds a Reconciler from configuration, applying defaults for zero
// values.
func New(cfg types.ReconcileConfig) *Reconciler {
	minOverlap := cfg.MinOverlap
	if minOverlap <= 0 {
		minOverlap = 0.3
	}
	minTerm := cfg.MinTermLength
	if minTerm <= 0 {
		minTerm = 4
	}
	return &Reconciler{minOverlap: minOverlap, minTermLength: minTerm}
}

// Reconcile compares the citation identifier sets of source and transformed
// text. For each identifier present in source but absent from transformed,
// it locates the source sentence carrying the citation, extracts salient
// terms, and appends the marker to the transformed sentence with the highest
// term overlap, provided the overlap meets the minimum. Identifiers with no
// adequate match are reported unrecoverable and the text is returned without
// them (R2.1-R2.5).
//
// The returned report is part of the stage contract: downstream properties
// are checked against its counts, so callers must not discard it (R4.1).
func (r *Reconciler) Reconcile(source, transformed string) (string, types.ReconciliationReport) {
	sourceIDs := Extract(source)
	have := make(map[string]bool)
	for _, id := range Extract(transformed) {
		have[id] = true
	}

	var missing []string
	for _, id := range sourceIDs {
		if !have[id] {
			missing = append(missing, id)
		}
	}

	report := types.ReconciliationReport{Attempted: len(missing)}
	if len(missing) == 0 {
		return transformed, report
	}

	sourceSentences := splitSentences(source)
	candidates := splitSentences(transformed)

	// pending[i] collects markers to append after candidate sentence i.
	pending := make(map[int][]string)

	for _, id := range missing {
		carrier, ok := findCarrier(sourceSentences, id)
		if !ok {
			report.Unrecoverable = append(report.Unrecoverable, id)
			continue
		}

		terms := r.salientTerms(carrier)
		best, score := bestMatch(candidates, terms)
		if len(terms) == 0 || best < 0 || score < r.minOverlap {
			report.Unrecoverable = append(report.Unrecoverable, id)
			continue
		}

		pending[best] = append(pending[best], id)
		report.Injected++
	}

	sort.Strings(report.Unrecoverable)

	if len(pending) == 0 {
		return transformed, report
	}
	return inject(transformed, candidates, pending), report
}

// sentence is one sentence of a text with its byte range. Fenced code
// blocks are carried as single opaque sentences and never receive
// injected citations.
type sentence struct {
	text       string
	start, end int
	code       bool
}

// splitSentences segments text at sentence-final punctuation and newlines.
// Fenced code blocks (```...```) are kept whole so markers are never
// inserted inside code (R2.3).
func splitSentences(text string) []sentence {
	var out []sentence
	start := 0
	inFence := false

	flush := func(end int, code bool) {
		seg := strings.TrimSpace(text[start:end])
		if seg != "" {
			out = append(out, sentence{text: seg, start: start, end: end, code: code})
		}
		start = end
	}

	for i := 0; i < len(text); i++ {
		if strings.HasPrefix(text[i:], "```") {
			if inFence {
				flush(i+3, true)
				inFence = false
				i += 2
				continue
			}
			flush(i, false)
			inFence = true
			i += 2
			continue
		}
		if inFence {
			continue
		}
		switch text[i] {
		case '.', '!', '?':
			// Sentence ends at punctuation followed by whitespace or EOF.
			if i+1 >= len(text) || text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t' {
				flush(i+1, false)
			}
		case '\n':
			flush(i, false)
			start = i + 1
		}
	}
	flush(len(text), inFence)
	return out
}

// findCarrier returns the first sentence containing the citation marker.
func findCarrier(sentences []sentence, id string) (string, bool) {
	marker := "[" + id + "]"
	for _, s := range sentences {
		if !s.code && strings.Contains(s.text, marker) {
			return s.text, true
		}
	}
	return "", false
}

// stopWords are excluded from salient-term extraction. The list is short on
// purpose: overlap scoring tolerates noise better than it tolerates losing
// discriminative terms.
var stopWords = map[string]bool{
	"about": true, "after": true, "also": true, "because": true,
	"been": true, "before": true, "being": true, "between": true,
	"both": true, "each": true, "from": true, "have": true, "into": true,
	"more": true, "most": true, "other": true, "over": true, "same": true,
	"some": true, "such": true, "than": true, "that": true, "their": true,
	"them": true, "then": true, "there": true, "these": true, "they": true,
	"this": true, "through": true, "under": true, "very": true,
	"what": true, "when": true, "where": true, "which": true, "while": true,
	"will": true, "with": true, "would": true, "your": true,
}

// salientTerms lowercases a sentence, strips citation markers and
// punctuation, and returns the terms that survive stop-word and length
// filtering (R2.2).
func (r *Reconciler) salientTerms(s string) []string {
	s = citePattern.ReplaceAllString(s, " ")
	var b strings.Builder
	for _, c := range strings.ToLower(s) {
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' {
			b.WriteRune(c)
		} else {
			b.WriteByte(' ')
		}
	}
	seen := make(map[string]bool)
	var terms []string
	for _, w := range strings.Fields(b.String()) {
		if len(w) < r.minTermLength || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}

// bestMatch scores every non-code candidate sentence by the fraction of
// carrier terms it contains and returns the index and score of the best.
// Earlier sentences win ties so injection order is deterministic.
func bestMatch(candidates []sentence, terms []string) (int, float64) {
	if len(terms) == 0 {
		return -1, 0
	}
	best, bestScore := -1, 0.0
	for i, cand := range candidates {
		if cand.code {
			continue
		}
		lowered := strings.ToLower(cand.text)
		hits := 0
		for _, term := range terms {
			if strings.Contains(lowered, term) {
				hits++
			}
		}
		score := float64(hits) / float64(len(terms))
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore
}

// inject rebuilds the transformed text with markers appended after their
// target sentences, wording untouched (R2.4).
func inject(text string, sentences []sentence, pending map[int][]string) string {
	var b strings.Builder
	last := 0
	for i, s := range sentences {
		ids, ok := pending[i]
		if !ok {
			continue
		}
		b.WriteString(text[last:s.end])
		for _, id := range ids {
			fmt.Fprintf(&b, " [%s]", id)
		}
		last = s.end
	}
	b.WriteString(text[last:])
	return b.String()
}
