// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "answer-engine/0.1"). Per prd002-research R5.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call a language-model API.
// Per prd008-pipeline R3.1-R3.3.
type AIConfig struct {
	// Provider selects the completion backend: "openai" or "anthropic".
	Provider string `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens caps the completion length (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Temperatures maps each named preset to a sampling temperature.
	// Missing presets fall back to the defaults (technical 0.3,
	// structural 0.4, narrative 0.7).
	Temperatures map[TemperaturePreset]float64 `json:"temperatures,omitempty" yaml:"temperatures,omitempty"`
}

// Temperature returns the configured temperature for a preset, falling back
// to the built-in defaults.
func (c AIConfig) Temperature(p TemperaturePreset) float64 {
	if t, ok := c.Temperatures[p]; ok {
		return t
	}
	switch p {
	case PresetStructural:
		return 0.4
	case PresetNarrative:
		return 0.7
	default:
		return 0.3
	}
}

// ResearchConfig holds settings for the research fanout.
// Per prd002-research R2.1-R2.5, R5.1-R5.3.
type ResearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// DefaultDepth is used when the request does not specify one.
	DefaultDepth ResearchDepth `json:"default_depth" yaml:"default_depth"`

	// WebTimeout bounds the web-search call. It must be shorter than the
	// retrieval timeout so a slow web service cannot stall the request;
	// on expiry the fanout proceeds retrieval-only and marks the result
	// degraded (R3.2).
	WebTimeout time.Duration `json:"web_timeout" yaml:"web_timeout"`

	// EvidenceDBPath locates the SQLite evidence store.
	EvidenceDBPath string `json:"evidence_db_path" yaml:"evidence_db_path"`

	// SearchBaseURL is the web-search service endpoint.
	SearchBaseURL string `json:"search_base_url" yaml:"search_base_url"`

	// SearchAPIKey authenticates against the web-search service.
	SearchAPIKey string `json:"search_api_key,omitempty" yaml:"search_api_key,omitempty"`
}

// GenerationConfig holds settings for the generation stage.
// Per prd004-generation R1.2, R4.1.
type GenerationConfig struct {
	// MaxAttempts caps drafting calls per request (default 5).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// PassThreshold overrides the generation rubric's threshold when > 0.
	PassThreshold float64 `json:"pass_threshold" yaml:"pass_threshold"`
}

// CompilationConfig holds settings for the compilation stage.
// Per prd006-compile R1.3, R3.1.
type CompilationConfig struct {
	// MaxAttempts caps compile calls per request (default 2).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// PassThreshold overrides the compilation rubric's threshold when > 0.
	PassThreshold float64 `json:"pass_threshold" yaml:"pass_threshold"`

	// TechnicalPreservationFloor is the hard-gate minimum (out of 30) for
	// the technical-preservation criterion (default 25).
	TechnicalPreservationFloor float64 `json:"technical_preservation_floor" yaml:"technical_preservation_floor"`
}

// ReconcileConfig holds tunables for citation reconciliation.
// Per prd005-reconcile R3.3: these are heuristic parameters validated by the
// round-trip property tests, not guarantees.
type ReconcileConfig struct {
	// MinOverlap is the minimum term-overlap score for injecting a lost
	// citation into a candidate sentence (default 0.3).
	MinOverlap float64 `json:"min_overlap" yaml:"min_overlap"`

	// MinTermLength filters salient terms shorter than this (default 4).
	MinTermLength int `json:"min_term_length" yaml:"min_term_length"`
}

// EnrichmentConfig holds settings for the enrichment router.
// Per prd007-enrichment R1.1-R1.3.
type EnrichmentConfig struct {
	// Enabled turns the narrative pass on or off entirely.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// SkipThreshold is the compilation score at or above which BASIC
	// questions skip enrichment (default 90).
	SkipThreshold float64 `json:"skip_threshold" yaml:"skip_threshold"`
}

// AnswerLogConfig holds settings for the conversation answer log.
// Per prd009-storage R2.1.
type AnswerLogConfig struct {
	// DBPath locates the SQLite answer log. Empty disables logging.
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// PipelineConfig groups all stage configurations for one orchestrator.
// It is passed in at construction; there are no process-wide settings.
type PipelineConfig struct {
	AI          AIConfig         `json:"ai" yaml:"ai"`
	Research    ResearchConfig   `json:"research" yaml:"research"`
	Generation  GenerationConfig `json:"generation" yaml:"generation"`
	Compilation CompilationConfig `json:"compilation" yaml:"compilation"`
	Reconcile   ReconcileConfig  `json:"reconcile" yaml:"reconcile"`
	Enrichment  EnrichmentConfig `json:"enrichment" yaml:"enrichment"`
	AnswerLog   AnswerLogConfig  `json:"answer_log" yaml:"answer_log"`

	// CacheTTL enables the request result cache when > 0.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`

	// MaxConcurrentCalls bounds outbound external calls across all
	// in-flight requests (default 8). Per prd008-pipeline R5.3.
	MaxConcurrentCalls int `json:"max_concurrent_calls" yaml:"max_concurrent_calls"`
}

// DefaultConfig returns a PipelineConfig with every tunable at its default.
func DefaultConfig() PipelineConfig {
	return PipelineConfig{
		AI: AIConfig{
			Provider:   "openai",
			Model:      "gpt-4o-mini",
			MaxTokens:  4096,
			MaxRetries: 3,
		},
		Research: ResearchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "answer-engine/0.1",
			},
			DefaultDepth: DepthStandard,
			WebTimeout:   10 * time.Second,
		},
		Generation: GenerationConfig{
			MaxAttempts: 5,
		},
		Compilation: CompilationConfig{
			MaxAttempts:                2,
			TechnicalPreservationFloor: 25,
		},
		Reconcile: ReconcileConfig{
			MinOverlap:    0.3,
			MinTermLength: 4,
		},
		Enrichment: EnrichmentConfig{
			Enabled:       true,
			SkipThreshold: 90,
		},
		MaxConcurrentCalls: 8,
	}
}

// Validate checks the configuration for values that would only fail deep in
// a request. It runs once at orchestrator construction (fail-fast, per
// prd008-pipeline R2.4).
func (c PipelineConfig) Validate() error {
	switch c.AI.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("ai.provider %q: must be openai or anthropic", c.AI.Provider)
	}
	if c.AI.Model == "" {
		return fmt.Errorf("ai.model is required")
	}
	if c.Research.DefaultDepth != "" && !c.Research.DefaultDepth.Valid() {
		return fmt.Errorf("research.default_depth %q: must be quick, standard, or deep", c.Research.DefaultDepth)
	}
	if c.Research.WebTimeout > 0 && c.Research.Timeout > 0 && c.Research.WebTimeout >= c.Research.Timeout {
		return fmt.Errorf("research.web_timeout %v must be shorter than research.timeout %v", c.Research.WebTimeout, c.Research.Timeout)
	}
	if c.Generation.MaxAttempts < 0 {
		return fmt.Errorf("generation.max_attempts must not be negative")
	}
	if c.Compilation.MaxAttempts < 0 {
		return fmt.Errorf("compilation.max_attempts must not be negative")
	}
	if c.Reconcile.MinOverlap < 0 || c.Reconcile.MinOverlap > 1 {
		return fmt.Errorf("reconcile.min_overlap %f: must be in [0,1]", c.Reconcile.MinOverlap)
	}
	if f := c.Compilation.TechnicalPreservationFloor; f < 0 || f > 30 {
		return fmt.Errorf("compilation.technical_preservation_floor %f: must be in [0,30]", f)
	}
	for preset, t := range c.AI.Temperatures {
		switch preset {
		case PresetTechnical, PresetStructural, PresetNarrative:
		default:
			return fmt.Errorf("ai.temperatures: unknown preset %q", preset)
		}
		if t < 0 || t > 1 {
			return fmt.Errorf("ai.temperatures[%s] = %f: must be in [0,1]", preset, t)
		}
	}
	return nil
}
