// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alitto/pond/v2"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaioption "github.com/openai/openai-go/option"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// flaky fails a fixed number of times before succeeding.
type flaky struct {
	failures int
	calls    int
}

func (f *flaky) Complete(ctx context.Context, prompt string, preset types.TemperaturePreset) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", fmt.Errorf("transient failure %d", f.calls)
	}
	return "ok", nil
}

func TestWithRetryRecovers(t *testing.T) {
	oldDelay := RetryBaseDelay
	RetryBaseDelay = time.Millisecond
	defer func() { RetryBaseDelay = oldDelay }()

	inner := &flaky{failures: 2}
	c := WithRetry(inner, 3, testLogger())

	got, err := c.Complete(context.Background(), "prompt", types.PresetTechnical)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "ok" {
		t.Errorf("Complete = %q, want ok", got)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestWithRetryExhausts(t *testing.T) {
	oldDelay := RetryBaseDelay
	RetryBaseDelay = time.Millisecond
	defer func() { RetryBaseDelay = oldDelay }()

	inner := &flaky{failures: 100}
	c := WithRetry(inner, 2, testLogger())

	if _, err := c.Complete(context.Background(), "prompt", types.PresetTechnical); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	// Initial attempt plus two retries.
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestWithLimiterPassesThrough(t *testing.T) {
	pool := pond.NewPool(1)
	defer pool.StopAndWait()

	c := WithLimiter(&flaky{}, pool)
	got, err := c.Complete(context.Background(), "prompt", types.PresetNarrative)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "ok" {
		t.Errorf("Complete = %q, want ok", got)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(types.AIConfig{Provider: "cohere", Model: "m", APIKey: "k"}, nil, testLogger())
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAI(types.AIConfig{Model: "m"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestOpenAIComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"the answer [doc-1]"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	c, err := NewOpenAI(
		types.AIConfig{Model: "gpt-4o-mini", APIKey: "test-key"},
		openaioption.WithBaseURL(srv.URL),
	)
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Complete(context.Background(), "prompt", types.PresetTechnical)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "the answer [doc-1]" {
		t.Errorf("Complete = %q", got)
	}
}

func TestAnthropicComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"m1","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[{"type":"text","text":"the answer [web-1]"}],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`)
	}))
	defer srv.Close()

	c, err := NewAnthropic(
		types.AIConfig{Model: "claude-sonnet-4-5", APIKey: "test-key"},
		anthropicoption.WithBaseURL(srv.URL),
	)
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Complete(context.Background(), "prompt", types.PresetStructural)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "the answer [web-1]" {
		t.Errorf("Complete = %q", got)
	}
}
