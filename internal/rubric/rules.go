// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rubric

import (
	"fmt"
	"strings"
)

// Rule constructors. Each returns a pure RuleFunc; thresholds are captured
// at rubric build time so evaluation itself takes no configuration (R2.1).

// ruleCoverage awards points proportional to citation coverage of the
// evidence set, full at target.
func ruleCoverage(target float64) RuleFunc {
	return func(in Input, a *Analysis, max float64) (float64, string) {
		c := coverage(a, in.EvidenceIDs)
		return max * capped(c/target), fmt.Sprintf("evidence coverage %.2f (target %.2f)", c, target)
	}
}

// ruleCitationDensity awards points proportional to citations per 150 prose
// words, full at target.
func ruleCitationDensity(target float64) RuleFunc {
	return func(in Input, a *Analysis, max float64) (float64, string) {
		return max * capped(a.CitationDensity/target),
			fmt.Sprintf("citation density %.2f per 150 words (target %.2f)", a.CitationDensity, target)
	}
}

// ruleGroundedness blends coverage and citation density. A grounded answer
// cites broadly across the evidence and frequently within the text.
func ruleGroundedness(coverageTarget, densityTarget float64) RuleFunc {
	return func(in Input, a *Analysis, max float64) (float64, string) {
		c := coverage(a, in.EvidenceIDs)
		score := 0.6*capped(c/coverageTarget) + 0.4*capped(a.CitationDensity/densityTarget)
		return max * score, fmt.Sprintf("coverage %.2f, density %.2f per 150 words", c, a.CitationDensity)
	}
}

// ruleTechnicalTerms rewards inline code terms and worked code blocks.
func ruleTechnicalTerms(minTerms int) RuleFunc {
	return func(in Input, a *Analysis, max float64) (float64, string) {
		termScore := capped(float64(a.InlineCode) / float64(minTerms))
		codeScore := 0.0
		if a.CodeBlocks > 0 {
			codeScore = 1.0
		}
		return max * (0.6*termScore + 0.4*codeScore),
			fmt.Sprintf("%d inline code terms (want %d), %d code blocks", a.InlineCode, minTerms, a.CodeBlocks)
	}
}

// rulePhrases awards points for the presence of phrase families, full when
// at least need families match.
func rulePhrases(need int, families [][]string) RuleFunc {
	return func(in Input, a *Analysis, max float64) (float64, string) {
		hits := containsAny(strings.ToLower(in.Text), families)
		return max * capped(float64(hits)/float64(need)),
			fmt.Sprintf("%d of %d expected cue families present", hits, need)
	}
}

// ruleStructure rewards markdown organization: headings and either lists or
// code blocks.
func ruleStructure(minHeadings int) RuleFunc {
	return func(in Input, a *Analysis, max float64) (float64, string) {
		headingScore := capped(float64(a.Headings) / float64(minHeadings))
		bodyScore := 0.0
		if a.ListItems > 0 || a.CodeBlocks > 0 {
			bodyScore = 1.0
		}
		return max * (0.7*headingScore + 0.3*bodyScore),
			fmt.Sprintf("%d headings (want %d), %d list items, %d code blocks", a.Headings, minHeadings, a.ListItems, a.CodeBlocks)
	}
}

// ruleSentenceClarity awards full points when mean sentence length falls in
// [minWords, maxWords], decaying linearly outside the band.
func ruleSentenceClarity(minWords, maxWords float64) RuleFunc {
	return func(in Input, a *Analysis, max float64) (float64, string) {
		mean := a.MeanSentenceWords
		rationale := fmt.Sprintf("mean sentence length %.1f words (band %.0f-%.0f)", mean, minWords, maxWords)
		switch {
		case len(a.Sentences) == 0:
			return 0, "no prose sentences"
		case mean >= minWords && mean <= maxWords:
			return max, rationale
		case mean < minWords:
			return max * capped(mean/minWords), rationale
		default:
			return max * capped(maxWords/mean), rationale
		}
	}
}

// ruleQuestionFidelity checks that the answer engages the question's own
// terms rather than drifting to an adjacent topic.
func ruleQuestionFidelity() RuleFunc {
	return func(in Input, a *Analysis, max float64) (float64, string) {
		terms := salientQuestionTerms(in.Question)
		if len(terms) == 0 {
			return max, "question has no salient terms"
		}
		lowered := strings.ToLower(in.Text)
		hits := 0
		for _, term := range terms {
			if strings.Contains(lowered, term) {
				hits++
			}
		}
		frac := float64(hits) / float64(len(terms))
		return max * frac, fmt.Sprintf("%d of %d question terms addressed", hits, len(terms))
	}
}

// rulePreservation compares the text against its reference: citations kept
// and inline terms kept. Without a reference it falls back to coverage.
func rulePreservation(coverageTarget float64) RuleFunc {
	return func(in Input, a *Analysis, max float64) (float64, string) {
		if in.Reference == "" {
			c := coverage(a, in.EvidenceIDs)
			return max * capped(c/coverageTarget), fmt.Sprintf("no reference; coverage %.2f", c)
		}
		ref := Analyze(in.Reference)

		citeFrac := 1.0
		if len(ref.Citations) > 0 {
			kept := make(map[string]bool, len(a.Citations))
			for _, id := range a.Citations {
				kept[id] = true
			}
			hits := 0
			for _, id := range ref.Citations {
				if kept[id] {
					hits++
				}
			}
			citeFrac = float64(hits) / float64(len(ref.Citations))
		}

		termFrac := 1.0
		if ref.InlineCode > 0 {
			termFrac = capped(float64(a.InlineCode) / float64(ref.InlineCode))
		}

		score := 0.7*citeFrac + 0.3*termFrac
		return max * score, fmt.Sprintf("citations kept %.2f, inline terms kept %.2f", citeFrac, termFrac)
	}
}

// ruleInclusiveLanguage starts at full points and deducts for dismissive
// qualifiers that alienate learners.
func ruleInclusiveLanguage(perHit float64) RuleFunc {
	dismissive := []string{"obviously", "simply ", "just do", "everyone knows", "trivial", "of course you"}
	return func(in Input, a *Analysis, max float64) (float64, string) {
		lowered := strings.ToLower(in.Text)
		hits := 0
		for _, phrase := range dismissive {
			hits += strings.Count(lowered, phrase)
		}
		points := max - float64(hits)*perHit
		if points < 0 {
			points = 0
		}
		return points, fmt.Sprintf("%d dismissive qualifiers found", hits)
	}
}

// Gate constructors.

// gateCoverage requires citation coverage of the evidence set at or above
// min.
func gateCoverage(min float64) GateFunc {
	return func(in Input, a *Analysis) (bool, string) {
		c := coverage(a, in.EvidenceIDs)
		return c >= min, fmt.Sprintf("coverage %.2f, requires >= %.2f", c, min)
	}
}

// gateCitationDensity requires citations per 150 prose words at or above
// min.
func gateCitationDensity(min float64) GateFunc {
	return func(in Input, a *Analysis) (bool, string) {
		return a.CitationDensity >= min, fmt.Sprintf("density %.2f per 150 words, requires >= %.2f", a.CitationDensity, min)
	}
}

// gateCodePresence requires at least one fenced code block.
func gateCodePresence() GateFunc {
	return func(in Input, a *Analysis) (bool, string) {
		return a.CodeBlocks > 0, fmt.Sprintf("%d code blocks, requires >= 1", a.CodeBlocks)
	}
}

// gateCriterionFloor requires a named criterion's rule to award at least
// floor points out of maxPoints. Used for the compilation preservation
// floor, where the criterion is scored once more rather than threading
// state between criteria and gates.
func gateCriterionFloor(rule RuleFunc, maxPoints, floor float64) GateFunc {
	return func(in Input, a *Analysis) (bool, string) {
		points, _ := rule(in, a, maxPoints)
		return points >= floor, fmt.Sprintf("%.1f of %.0f points, requires >= %.1f", points, maxPoints, floor)
	}
}

// capped clamps a ratio to [0, 1].
func capped(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// salientQuestionTerms extracts lowercased terms of four or more letters
// from a question, minus interrogative boilerplate.
func salientQuestionTerms(question string) []string {
	boilerplate := map[string]bool{
		"what": true, "when": true, "where": true, "which": true,
		"does": true, "should": true, "could": true, "would": true,
		"how": true, "why": true, "the": true, "this": true, "that": true,
	}
	var b strings.Builder
	for _, c := range strings.ToLower(question) {
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' {
			b.WriteRune(c)
		} else {
			b.WriteByte(' ')
		}
	}
	seen := make(map[string]bool)
	var terms []string
	for _, w := range strings.Fields(b.String()) {
		if len(w) < 4 || boilerplate[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}
