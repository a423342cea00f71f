// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the answer-engine pipeline.
// Implements: prd002-research (EvidenceItem, Citation, R1.1-R1.4);
//
//	prd001-classification (Complexity);
//	prd004-generation (GenerationAttempt, RubricScore);
//	prd005-reconcile (ReconciliationReport);
//	prd008-pipeline (PipelineRequest, PipelineResult, PipelineConfig).
//
// See docs/ARCHITECTURE.md § Pipeline Interface, § Data Structures.
package types

// SourceKind identifies which research service produced an evidence item.
// Per prd002-research R1.2.
type SourceKind string

const (
	SourceRetrieved SourceKind = "retrieved"
	SourceWeb       SourceKind = "web"
)

// Tier ranks a web source's authority. Tier 1 is official documentation,
// tier 2 academic, tier 3 quality community content. Per prd002-research R2.4.
type Tier int

const (
	TierOfficial  Tier = 1
	TierAcademic  Tier = 2
	TierCommunity Tier = 3
)

// ResearchDepth controls how many evidence items the fanout requests and
// which web tiers it searches. Per prd002-research R2.1.
type ResearchDepth string

const (
	DepthQuick    ResearchDepth = "quick"
	DepthStandard ResearchDepth = "standard"
	DepthDeep     ResearchDepth = "deep"
)

// Valid reports whether the depth is one of the three recognized levels.
func (d ResearchDepth) Valid() bool {
	switch d {
	case DepthQuick, DepthStandard, DepthDeep:
		return true
	}
	return false
}

// EvidenceItem is one retrieved or web-found source fragment with a stable
// citation identifier. Items are collected once per request and immutable
// afterward. Per prd002-research R1.1-R1.4.
type EvidenceItem struct {
	// ID is the stable citation identifier ("doc-3", "web-2"), assigned by
	// the research fanout after dedup in a fixed order (R1.4).
	ID string `json:"id" yaml:"id"`

	// Kind records which service produced the item.
	Kind SourceKind `json:"kind" yaml:"kind"`

	// Title is the source document or page title.
	Title string `json:"title" yaml:"title"`

	// Snippet is the source fragment offered to the drafting prompt.
	Snippet string `json:"snippet" yaml:"snippet"`

	// URL is the source location, when known. Used for dedup (R1.3).
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Score is the service-assigned relevance between 0.0 and 1.0.
	Score float64 `json:"score" yaml:"score"`

	// Tier is set for web items only; zero for retrieved items.
	Tier Tier `json:"tier,omitempty" yaml:"tier,omitempty"`
}

// Citation resolves one inline citation marker in the final text back to the
// evidence item it references. Many citations may share one evidence item.
type Citation struct {
	// ID is the citation identifier as it appears in the text ("doc-3").
	ID string `json:"id" yaml:"id"`

	// Source is the resolved source location or title.
	Source string `json:"source" yaml:"source"`

	// Kind records the originating service.
	Kind SourceKind `json:"kind" yaml:"kind"`

	// Score is the evidence item's relevance score.
	Score float64 `json:"score" yaml:"score"`
}
