// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rubric

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/pdiddy/answer-engine/internal/reconcile"
)

// Analysis holds the measurements every scoring rule reads. It is computed
// once per evaluation so rules stay cheap and order-independent (R2.2).
type Analysis struct {
	// Words counts prose words, code blocks excluded.
	Words int

	// Sentences holds prose sentences, code blocks excluded.
	Sentences []string

	// MeanSentenceWords is the average prose sentence length in words.
	MeanSentenceWords float64

	// Citations lists unique citation identifiers in order of appearance.
	Citations []string

	// CitationDensity is citations per 150 prose words (prd003-rubric R2.4).
	CitationDensity float64

	// Headings, CodeBlocks, ListItems, and InlineCode count markdown
	// structural elements.
	Headings   int
	CodeBlocks int
	ListItems  int
	InlineCode int
}

// markdown is the shared parser. A goldmark instance is safe for concurrent
// use once constructed.
var markdown = goldmark.New()

// Analyze measures the text once for rule consumption.
func Analyze(text string) *Analysis {
	a := &Analysis{Citations: reconcile.Extract(text)}

	doc := markdown.Parser().Parse(gmtext.NewReader([]byte(text)))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Heading:
			a.Headings++
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			a.CodeBlocks++
		case *ast.ListItem:
			a.ListItems++
		case *ast.CodeSpan:
			a.InlineCode++
		}
		return ast.WalkContinue, nil
	})

	prose := stripCodeBlocks(text)
	a.Words = len(strings.Fields(prose))
	a.Sentences = proseSentences(prose)
	if len(a.Sentences) > 0 {
		total := 0
		for _, s := range a.Sentences {
			total += len(strings.Fields(s))
		}
		a.MeanSentenceWords = float64(total) / float64(len(a.Sentences))
	}
	if a.Words > 0 {
		a.CitationDensity = float64(citationMarkerCount(text)) / (float64(a.Words) / 150.0)
	}
	return a
}

// stripCodeBlocks drops fenced code so prose measurements are not skewed by
// source lines.
func stripCodeBlocks(text string) string {
	parts := strings.Split(text, "```")
	var b strings.Builder
	for i, p := range parts {
		if i%2 == 0 {
			b.WriteString(p)
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// proseSentences splits prose at sentence-final punctuation. Fragments
// shorter than two words are discarded as list stubs or stray markers.
func proseSentences(prose string) []string {
	var out []string
	start := 0
	for i := 0; i < len(prose); i++ {
		switch prose[i] {
		case '.', '!', '?', '\n':
			seg := strings.TrimSpace(prose[start:i])
			if len(strings.Fields(seg)) >= 2 {
				out = append(out, seg)
			}
			start = i + 1
		}
	}
	seg := strings.TrimSpace(prose[start:])
	if len(strings.Fields(seg)) >= 2 {
		out = append(out, seg)
	}
	return out
}

// citationMarkerCount counts marker occurrences, duplicates included.
// Density measures citation effort, so repeats count.
func citationMarkerCount(text string) int {
	count := 0
	for _, id := range reconcile.Extract(text) {
		count += strings.Count(text, "["+id+"]")
	}
	return count
}

// coverage returns the fraction of evidence identifiers cited in the text.
// An empty evidence set yields full coverage so evidence-free test fixtures
// do not fail spuriously.
func coverage(a *Analysis, evidenceIDs []string) float64 {
	if len(evidenceIDs) == 0 {
		return 1
	}
	cited := make(map[string]bool, len(a.Citations))
	for _, id := range a.Citations {
		cited[id] = true
	}
	hits := 0
	for _, id := range evidenceIDs {
		if cited[id] {
			hits++
		}
	}
	return float64(hits) / float64(len(evidenceIDs))
}

// containsAny reports how many of the given phrase families appear in the
// lowered text. A family matches when any of its variants is present.
func containsAny(lowered string, families [][]string) int {
	hits := 0
	for _, family := range families {
		for _, phrase := range family {
			if strings.Contains(lowered, phrase) {
				hits++
				break
			}
		}
	}
	return hits
}
