// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research fans a question out to the retrieval and web-search
// services concurrently and merges the evidence. Retrieval is mandatory;
// web search is best-effort and degrades to retrieval-only on failure.
// Implements: prd002-research (R1-R5);
//
//	docs/ARCHITECTURE § Research Fanout.
package research

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// ErrRetrievalFailed marks the one fatal research outcome: the mandatory
// retrieval service could not serve the request (R3.1).
var ErrRetrievalFailed = errors.New("retrieval failed")

// Retriever is the mandatory evidence backend.
type Retriever interface {
	Search(ctx context.Context, query string, limit int) ([]types.EvidenceItem, error)
}

// WebSearcher is the best-effort web backend.
type WebSearcher interface {
	Search(ctx context.Context, query string, limit int, tiers []types.Tier) ([]types.EvidenceItem, error)
}

// depthPlan fixes how much evidence each depth requests and which web tiers
// it searches (R2.1).
type depthPlan struct {
	retrieval int
	web       int
	tiers     []types.Tier
}

var depthPlans = map[types.ResearchDepth]depthPlan{
	types.DepthQuick:    {retrieval: 10, web: 5, tiers: []types.Tier{types.TierOfficial}},
	types.DepthStandard: {retrieval: 15, web: 5, tiers: []types.Tier{types.TierOfficial, types.TierAcademic}},
	types.DepthDeep:     {retrieval: 20, web: 10, tiers: []types.Tier{types.TierOfficial, types.TierAcademic, types.TierCommunity}},
}

// Result is the merged evidence for one request.
type Result struct {
	// Items holds deduplicated evidence with assigned identifiers:
	// retrieval items first, then web items, service rank preserved (R1.4).
	Items []types.EvidenceItem

	// Degraded is true when web search failed or timed out and the result
	// is retrieval-only (R3.2).
	Degraded bool
}

// Fanout coordinates the two research services for a request.
type Fanout struct {
	retriever Retriever
	web       WebSearcher
	cfg       types.ResearchConfig
	pool      pond.Pool
	log       *slog.Logger
}

// NewFanout builds a fanout. The web searcher and pool may be nil; a nil
// web searcher means every result is retrieval-only and degraded when a
// depth asks for web evidence.
func NewFanout(retriever Retriever, web WebSearcher, cfg types.ResearchConfig, pool pond.Pool, log *slog.Logger) *Fanout {
	return &Fanout{retriever: retriever, web: web, cfg: cfg, pool: pool, log: log}
}

// call runs fn through the shared bounded pool when one is configured
// (prd008-pipeline R5.3).
func (f *Fanout) call(fn func() error) error {
	if f.pool == nil {
		return fn()
	}
	return f.pool.SubmitErr(fn).Wait()
}

// Run gathers evidence for a question at the given depth. Both services are
// queried concurrently; the web call runs under its own shorter timeout so
// a stalled search service cannot hold up the request (R2.5, R3.2).
func (f *Fanout) Run(ctx context.Context, question string, depth types.ResearchDepth) (Result, error) {
	if !depth.Valid() {
		depth = f.cfg.DefaultDepth
		if !depth.Valid() {
			depth = types.DepthStandard
		}
	}
	plan := depthPlans[depth]

	webTimeout := f.cfg.WebTimeout
	if webTimeout <= 0 {
		webTimeout = 10 * time.Second
	}

	type serviceResult struct {
		kind  types.SourceKind
		items []types.EvidenceItem
		err   error
	}

	ch := make(chan serviceResult, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		var items []types.EvidenceItem
		err := f.call(func() error {
			var err error
			items, err = f.retriever.Search(ctx, question, plan.retrieval)
			return err
		})
		ch <- serviceResult{kind: types.SourceRetrieved, items: items, err: err}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if f.web == nil {
			ch <- serviceResult{kind: types.SourceWeb, err: fmt.Errorf("web search not configured")}
			return
		}
		webCtx, cancel := context.WithTimeout(ctx, webTimeout)
		defer cancel()
		var items []types.EvidenceItem
		err := f.call(func() error {
			var err error
			items, err = f.web.Search(webCtx, question, plan.web, plan.tiers)
			return err
		})
		ch <- serviceResult{kind: types.SourceWeb, items: items, err: err}
	}()

	go func() {
		wg.Wait()
		close(ch)
	}()

	var retrieved, webItems []types.EvidenceItem
	result := Result{}
	for sr := range ch {
		switch sr.kind {
		case types.SourceRetrieved:
			if sr.err != nil {
				return Result{}, fmt.Errorf("%w: %v", ErrRetrievalFailed, sr.err)
			}
			retrieved = sr.items
		case types.SourceWeb:
			if sr.err != nil {
				f.log.Warn("web search unavailable, continuing retrieval-only", "error", sr.err)
				result.Degraded = true
				continue
			}
			webItems = sr.items
		}
	}

	result.Items = merge(retrieved, webItems)
	f.log.Debug("research complete",
		"depth", depth, "retrieved", len(retrieved), "web", len(webItems),
		"merged", len(result.Items), "degraded", result.Degraded)
	return result, nil
}

// merge concatenates retrieval items before web items, drops duplicates by
// source URL then by content hash, and assigns identifiers in final order:
// doc-1..doc-N for retrieved items, web-1..web-M for web items (R1.3, R1.4).
// The ordering is a prompt contract: identical inputs must yield identical
// identifiers.
func merge(retrieved, webItems []types.EvidenceItem) []types.EvidenceItem {
	seenURL := make(map[string]bool)
	seenHash := make(map[string]bool)

	var merged []types.EvidenceItem
	docN, webN := 0, 0
	for _, item := range append(append([]types.EvidenceItem{}, retrieved...), webItems...) {
		if item.URL != "" {
			if seenURL[item.URL] {
				continue
			}
			seenURL[item.URL] = true
		}
		hash := contentHash(item.Snippet)
		if seenHash[hash] {
			continue
		}
		seenHash[hash] = true

		switch item.Kind {
		case types.SourceWeb:
			webN++
			item.ID = fmt.Sprintf("web-%d", webN)
		default:
			docN++
			item.ID = fmt.Sprintf("doc-%d", docN)
		}
		merged = append(merged, item)
	}
	return merged
}

// contentHash normalizes a snippet for duplicate detection across services.
func contentHash(snippet string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(snippet)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
