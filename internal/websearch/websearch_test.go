// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(baseURL string) *Client {
	return New(types.ResearchConfig{
		SearchBaseURL: baseURL,
		SearchAPIKey:  "test-key",
	}, testLogger())
}

func TestSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %s, want /search", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Query != "goroutine scheduling" {
			t.Errorf("query = %q", req.Query)
		}
		if req.MaxResults != 2 {
			t.Errorf("max_results = %d, want 2", req.MaxResults)
		}
		hasOfficial := false
		for _, d := range req.IncludeDomains {
			if d == "go.dev" {
				hasOfficial = true
			}
		}
		if !hasOfficial {
			t.Errorf("include_domains missing tier-1 domain: %v", req.IncludeDomains)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Scheduling", "url": "https://go.dev/doc/sched", "content": "runtime scheduler", "score": 0.9},
				{"title": "Duplicate", "url": "https://go.dev/doc/sched", "content": "same page", "score": 0.8},
				{"title": "Discussion", "url": "https://stackoverflow.com/q/1", "content": "community take", "score": 0.7},
				{"title": "Overflow", "url": "https://dev.to/x", "content": "beyond limit", "score": 0.5},
			},
		})
	}))
	defer ts.Close()

	items, err := newTestClient(ts.URL).Search(context.Background(), "goroutine scheduling", 2, []types.Tier{types.TierOfficial})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (dedup + cap)", len(items))
	}
	if items[0].URL != "https://go.dev/doc/sched" || items[1].URL != "https://stackoverflow.com/q/1" {
		t.Errorf("unexpected order: %+v", items)
	}
	for _, it := range items {
		if it.Kind != types.SourceWeb {
			t.Errorf("Kind = %v, want web", it.Kind)
		}
		if it.ID != "" {
			t.Errorf("ID = %q, want empty before fanout assignment", it.ID)
		}
	}
	if items[0].Tier != types.TierOfficial {
		t.Errorf("go.dev tier = %d, want 1", items[0].Tier)
	}
	if items[1].Tier != types.TierCommunity {
		t.Errorf("stackoverflow tier = %d, want 3", items[1].Tier)
	}
}

func TestSearchUnconfigured(t *testing.T) {
	c := New(types.ResearchConfig{}, testLogger())
	if _, err := c.Search(context.Background(), "q", 5, []types.Tier{types.TierOfficial}); err == nil {
		t.Fatal("expected error without a base URL")
	}
}

func TestSearchZeroLimit(t *testing.T) {
	items, err := newTestClient("http://unused.invalid").Search(context.Background(), "q", 0, []types.Tier{types.TierOfficial})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if items != nil {
		t.Errorf("items = %v, want nil", items)
	}
}

func TestTierOf(t *testing.T) {
	tests := []struct {
		url  string
		want types.Tier
	}{
		{"https://go.dev/ref/spec", types.TierOfficial},
		{"https://pkg.go.dev/sync", types.TierOfficial},
		{"https://arxiv.org/abs/1234", types.TierAcademic},
		{"https://www.stackoverflow.com/q/9", types.TierCommunity},
		{"https://example.com/post", types.TierCommunity},
	}
	for _, tt := range tests {
		if got := tierOf(tt.url); got != tt.want {
			t.Errorf("tierOf(%s) = %d, want %d", tt.url, got, tt.want)
		}
	}
}
