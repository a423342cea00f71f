// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package websearch is the HTTP client for the tiered web-search service.
// Results carry an authority tier derived from the matched domain list; the
// research fanout treats this whole service as best-effort.
// Implements: prd002-research (R2.4, R3.1-R3.3, R5.1-R5.3);
//
//	docs/ARCHITECTURE § Web Search.
package websearch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/answer-engine/internal/httputil"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// tierDomains maps each authority tier to the domains the search service is
// asked to prefer. Tier 1 is official documentation, tier 2 academic
// sources, tier 3 quality community content.
var tierDomains = map[types.Tier][]string{
	types.TierOfficial: {
		"go.dev", "pkg.go.dev", "docs.python.org", "developer.mozilla.org",
		"learn.microsoft.com", "docs.oracle.com", "kubernetes.io",
		"docs.aws.amazon.com", "cloud.google.com",
	},
	types.TierAcademic: {
		"arxiv.org", "dl.acm.org", "ieee.org", "dblp.org", "usenix.org",
	},
	types.TierCommunity: {
		"stackoverflow.com", "github.com", "news.ycombinator.com",
		"dev.to", "blog.golang.org",
	},
}

// Client calls the web-search service. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	log        *slog.Logger
}

// New builds a web-search client from research configuration.
func New(cfg types.ResearchConfig, log *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.SearchBaseURL, "/"),
		apiKey:     cfg.SearchAPIKey,
		userAgent:  cfg.UserAgent,
		log:        log,
	}
}

// searchRequest is the service's JSON request body.
type searchRequest struct {
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

// searchResponse is the service's JSON response body.
type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search queries the service restricted to the given authority tiers and
// returns up to limit web evidence items in service rank order, deduplicated
// by URL. Identifiers are left empty; the fanout assigns them after merging.
func (c *Client) Search(ctx context.Context, query string, limit int, tiers []types.Tier) ([]types.EvidenceItem, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("web search not configured")
	}
	if limit <= 0 || len(tiers) == 0 {
		return nil, nil
	}

	var domains []string
	for _, t := range tiers {
		domains = append(domains, tierDomains[t]...)
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}
	if c.userAgent != "" {
		headers["User-Agent"] = c.userAgent
	}

	var resp searchResponse
	err := httputil.PostJSON(ctx, c.httpClient, c.baseURL+"/search", headers, searchRequest{
		Query:          query,
		MaxResults:     limit,
		IncludeDomains: domains,
	}, &resp, 0)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}

	seen := make(map[string]bool)
	var items []types.EvidenceItem
	for _, r := range resp.Results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		items = append(items, types.EvidenceItem{
			Kind:    types.SourceWeb,
			Title:   r.Title,
			Snippet: r.Content,
			URL:     r.URL,
			Score:   r.Score,
			Tier:    tierOf(r.URL),
		})
		if len(items) == limit {
			break
		}
	}
	c.log.Debug("web search complete", "query", query, "results", len(items))
	return items, nil
}

// tierOf maps a result URL to its authority tier. Unlisted domains count as
// community content.
func tierOf(rawURL string) types.Tier {
	u, err := url.Parse(rawURL)
	if err != nil {
		return types.TierCommunity
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")

	tiers := make([]types.Tier, 0, len(tierDomains))
	for t := range tierDomains {
		tiers = append(tiers, t)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })

	for _, t := range tiers {
		for _, d := range tierDomains[t] {
			if host == d || strings.HasSuffix(host, "."+d) {
				return t
			}
		}
	}
	return types.TierCommunity
}
