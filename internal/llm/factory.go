// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"fmt"
	"log/slog"

	"github.com/alitto/pond/v2"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// New builds the configured provider backend wrapped with retry and the
// shared call limiter. The pool may be nil in tests.
func New(cfg types.AIConfig, pool pond.Pool, log *slog.Logger) (Completer, error) {
	var (
		backend Completer
		err     error
	)
	switch cfg.Provider {
	case "openai":
		backend, err = NewOpenAI(cfg)
	case "anthropic":
		backend, err = NewAnthropic(cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", cfg.Provider, err)
	}
	return WithLimiter(WithRetry(backend, cfg.MaxRetries, log), pool), nil
}
