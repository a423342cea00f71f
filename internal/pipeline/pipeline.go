// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires the answer stages into one orchestrator: classify,
// research, generate, compile, enrich. Each request flows through the stages
// in order with its own state; the orchestrator itself is safe for
// concurrent use.
// Implements: prd008-pipeline (R1-R5);
//
//	docs/ARCHITECTURE § Orchestrator.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/jellydator/ttlcache/v3"

	"github.com/pdiddy/answer-engine/internal/classify"
	"github.com/pdiddy/answer-engine/internal/compile"
	"github.com/pdiddy/answer-engine/internal/enrich"
	"github.com/pdiddy/answer-engine/internal/evidence"
	"github.com/pdiddy/answer-engine/internal/generate"
	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/internal/reconcile"
	"github.com/pdiddy/answer-engine/internal/research"
	"github.com/pdiddy/answer-engine/internal/rubric"
	"github.com/pdiddy/answer-engine/internal/websearch"
	"github.com/pdiddy/answer-engine/pkg/types"
)

const defaultMaxConcurrentCalls = 8

// Orchestrator runs the full question-to-answer pipeline.
type Orchestrator struct {
	cfg       types.PipelineConfig
	fanout    *research.Fanout
	generator *generate.Stage
	compiler  *compile.Stage
	enricher  *enrich.Router
	cache     *ttlcache.Cache[string, types.PipelineResult]
	pool      pond.Pool
	store     *evidence.Store
	log       *slog.Logger
}

// New builds an orchestrator from configuration: it validates the config,
// opens the evidence store, and constructs the completion backend and every
// stage. Construction fails fast on anything that would otherwise only fail
// mid-request (R2.4).
func New(cfg types.PipelineConfig, log *slog.Logger) (*Orchestrator, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	workers := cfg.MaxConcurrentCalls
	if workers <= 0 {
		workers = defaultMaxConcurrentCalls
	}
	pool := pond.NewPool(workers)

	completer, err := llm.New(cfg.AI, pool, log)
	if err != nil {
		pool.StopAndWait()
		return nil, fmt.Errorf("building completion backend: %w", err)
	}

	store, err := evidence.NewStore(cfg.Research.EvidenceDBPath)
	if err != nil {
		pool.StopAndWait()
		return nil, fmt.Errorf("opening evidence store: %w", err)
	}

	var web research.WebSearcher
	if cfg.Research.SearchBaseURL != "" && cfg.Research.SearchAPIKey != "" {
		web = websearch.New(cfg.Research, log)
	}

	o, err := newWithDeps(cfg, completer, store, web, pool, log)
	if err != nil {
		store.Close()
		pool.StopAndWait()
		return nil, err
	}
	o.store = store
	o.pool = pool
	return o, nil
}

// newWithDeps assembles the stages around injected collaborators. Rubric
// construction validates both built-in rubrics against their configured
// overrides.
func newWithDeps(cfg types.PipelineConfig, completer llm.Completer, retriever research.Retriever, web research.WebSearcher, pool pond.Pool, log *slog.Logger) (*Orchestrator, error) {
	genEval, err := rubric.NewEvaluator(rubric.GenerationRubric(cfg.Generation))
	if err != nil {
		return nil, fmt.Errorf("building generation rubric: %w", err)
	}
	compEval, err := rubric.NewEvaluator(rubric.CompilationRubric(cfg.Compilation))
	if err != nil {
		return nil, fmt.Errorf("building compilation rubric: %w", err)
	}

	o := &Orchestrator{
		cfg:       cfg,
		fanout:    research.NewFanout(retriever, web, cfg.Research, pool, log),
		generator: generate.NewStage(completer, genEval, cfg.Generation, log),
		compiler:  compile.NewStage(completer, compEval, reconcile.New(cfg.Reconcile), cfg.Compilation, log),
		enricher:  enrich.NewRouter(completer, cfg.Enrichment, log),
		log:       log,
	}
	if cfg.CacheTTL > 0 {
		o.cache = ttlcache.New(ttlcache.WithTTL[string, types.PipelineResult](cfg.CacheTTL))
		go o.cache.Start()
	}
	return o, nil
}

// Close releases the evidence store, the worker pool, and the result cache.
func (o *Orchestrator) Close() error {
	if o.cache != nil {
		o.cache.Stop()
	}
	if o.pool != nil {
		o.pool.StopAndWait()
	}
	if o.store != nil {
		return o.store.Close()
	}
	return nil
}

// Run answers one request. Stages run in order with context checks at every
// boundary; retrieval failure is the only fatal research outcome, everything
// downstream of a collected evidence set degrades rather than aborts
// (R1.2, R4.4).
func (o *Orchestrator) Run(ctx context.Context, req types.PipelineRequest) (types.PipelineResult, error) {
	if req.Question == "" {
		return types.PipelineResult{}, fmt.Errorf("question is required")
	}
	if err := ctx.Err(); err != nil {
		return types.PipelineResult{}, err
	}

	key := cacheKey(req)
	if o.cache != nil && key != "" {
		if cached := o.cache.Get(key); cached != nil {
			o.log.Debug("serving cached result", "question", req.Question)
			return cached.Value(), nil
		}
	}

	start := time.Now()

	complexity := req.ComplexityOverride
	if complexity == "" {
		complexity = classify.Classify(req.Question)
	}

	evidenceSet, err := o.fanout.Run(ctx, req.Question, req.Depth)
	if err != nil {
		return types.PipelineResult{}, err
	}

	gen, err := o.generator.Run(ctx, req, evidenceSet.Items)
	if err != nil {
		return types.PipelineResult{}, err
	}

	comp, err := o.compiler.Run(ctx, req.Question, gen.Draft, evidenceSet.Items)
	if err != nil {
		return types.PipelineResult{}, err
	}

	answer := comp.Text
	enrichmentApplied := false
	enrichmentDegraded := false
	if o.enricher.Decide(complexity, comp.Score.Total) {
		enriched, err := o.enricher.Run(ctx, req.Question, comp.Text)
		if err != nil {
			return types.PipelineResult{}, err
		}
		answer = enriched.Text
		enrichmentApplied = enriched.Applied
		enrichmentDegraded = enriched.Degraded
	}

	result := types.PipelineResult{
		Answer:            answer,
		Citations:         resolveCitations(answer, evidenceSet.Items),
		Complexity:        complexity,
		GenerationScore:   gen.Score,
		CompilationScore:  comp.Score,
		Reconciliation:    comp.Reconciliation,
		Attempts:          len(gen.Attempts),
		EnrichmentApplied: enrichmentApplied,
		Degraded:          evidenceSet.Degraded || enrichmentDegraded,
		BelowThreshold:    gen.BelowThreshold || comp.BelowThreshold,
	}

	o.log.Info("request complete",
		"complexity", complexity,
		"evidence", len(evidenceSet.Items),
		"attempts", result.Attempts,
		"generation_total", gen.Score.Total,
		"compilation_total", comp.Score.Total,
		"enriched", enrichmentApplied,
		"degraded", result.Degraded,
		"below_threshold", result.BelowThreshold,
		"elapsed", time.Since(start))

	if o.cache != nil && key != "" {
		o.cache.Set(key, result, ttlcache.DefaultTTL)
	}
	return result, nil
}

// cacheKey identifies a request for the result cache. Requests carrying
// history or a complexity override are never cached: their answers depend on
// more than the question text (R5.1).
func cacheKey(req types.PipelineRequest) string {
	if len(req.History) > 0 || req.ComplexityOverride != "" {
		return ""
	}
	sum := sha256.Sum256([]byte(req.Question + "\x00" + string(req.Depth)))
	return hex.EncodeToString(sum[:])
}

// resolveCitations maps every identifier cited in the answer back to its
// evidence item, in order of first appearance (R4.2). Identifiers with no
// matching item are kept unresolved rather than dropped, so the caller can
// see them.
func resolveCitations(answer string, items []types.EvidenceItem) []types.Citation {
	byID := make(map[string]types.EvidenceItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	var citations []types.Citation
	for _, id := range reconcile.Extract(answer) {
		item, ok := byID[id]
		if !ok {
			citations = append(citations, types.Citation{ID: id})
			continue
		}
		source := item.URL
		if source == "" {
			source = item.Title
		}
		citations = append(citations, types.Citation{
			ID:     id,
			Source: source,
			Kind:   item.Kind,
			Score:  item.Score,
		})
	}
	return citations
}
