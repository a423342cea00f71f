// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm provides the language-model completion backends used by the
// drafting, compilation, and enrichment stages. Callers pick a temperature
// preset; everything else about the provider is fixed at construction.
// Implements: prd008-pipeline (R3.1-R3.4);
//
//	docs/ARCHITECTURE § Providers.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Completer produces a completion for a prompt at a named temperature
// preset. Implementations are safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, prompt string, preset types.TemperaturePreset) (string, error)
}

// systemPrompt frames every completion. Stage prompts supply the task; this
// supplies the persona.
const systemPrompt = "You are a patient, technically precise programming tutor. " +
	"Ground every claim in the provided evidence and keep citation markers such as [doc-1] exactly as given."

// RetryBaseDelay is the initial backoff interval for failed provider calls.
// Package variable so tests can shrink it.
var RetryBaseDelay = 500 * time.Millisecond

// retrying wraps a Completer with exponential backoff on transient provider
// failures. Context cancellation stops the retry loop.
type retrying struct {
	inner      Completer
	maxRetries uint64
	log        *slog.Logger
}

// WithRetry wraps inner so each Complete call is retried up to maxRetries
// times with exponential backoff.
func WithRetry(inner Completer, maxRetries int, log *slog.Logger) Completer {
	if maxRetries <= 0 {
		return inner
	}
	return &retrying{inner: inner, maxRetries: uint64(maxRetries), log: log}
}

func (r *retrying) Complete(ctx context.Context, prompt string, preset types.TemperaturePreset) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = RetryBaseDelay
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, r.maxRetries), ctx)

	var out string
	attempt := 0
	op := func() error {
		attempt++
		text, err := r.inner.Complete(ctx, prompt, preset)
		if err != nil {
			r.log.Warn("completion failed, will retry", "attempt", attempt, "error", err)
			return err
		}
		out = text
		return nil
	}
	if err := backoff.Retry(op, policy); err != nil {
		return "", fmt.Errorf("completion failed after %d attempts: %w", attempt, err)
	}
	return out, nil
}

// limited funnels Complete calls through a shared bounded pool so the total
// number of in-flight provider calls is capped across requests (R3.4).
type limited struct {
	inner Completer
	pool  pond.Pool
}

// WithLimiter wraps inner so calls execute on the shared pool.
func WithLimiter(inner Completer, pool pond.Pool) Completer {
	if pool == nil {
		return inner
	}
	return &limited{inner: inner, pool: pool}
}

func (l *limited) Complete(ctx context.Context, prompt string, preset types.TemperaturePreset) (string, error) {
	var out string
	task := l.pool.SubmitErr(func() error {
		text, err := l.inner.Complete(ctx, prompt, preset)
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	if err := task.Wait(); err != nil {
		return "", err
	}
	return out, nil
}
