// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Search runs ranked full-text retrieval for a question and returns up to
// limit evidence items, best match first (R2.1, R2.2). Identifiers are left
// empty; the research fanout assigns them after merging.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]types.EvidenceItem, error) {
	if limit <= 0 {
		return nil, nil
	}
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.content, d.title, d.source_url, bm25(chunks_fts) AS rank
		FROM chunks_fts
		JOIN chunks c ON c.rowid = chunks_fts.rowid
		LEFT JOIN documents d ON c.document_id = d.id
		WHERE chunks_fts MATCH ?
		ORDER BY rank
		LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying evidence store: %w", err)
	}
	defer rows.Close()

	var items []types.EvidenceItem
	for rows.Next() {
		var (
			content string
			title   sql.NullString
			srcURL  sql.NullString
			rank    float64
		)
		if err := rows.Scan(&content, &title, &srcURL, &rank); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		items = append(items, types.EvidenceItem{
			Kind:    types.SourceRetrieved,
			Title:   title.String,
			Snippet: content,
			URL:     srcURL.String,
			Score:   rankToScore(rank),
		})
	}
	return items, rows.Err()
}

// ftsQuery turns free question text into a safe FTS5 match expression:
// bare alphanumeric terms joined by OR. Punctuation in raw questions would
// otherwise be parsed as FTS5 syntax.
func ftsQuery(query string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(query) {
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' {
			b.WriteRune(c)
		} else {
			b.WriteByte(' ')
		}
	}
	var terms []string
	seen := make(map[string]bool)
	for _, w := range strings.Fields(b.String()) {
		if len(w) < 2 || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, `"`+w+`"`)
	}
	return strings.Join(terms, " OR ")
}

// rankToScore maps a bm25 rank (more negative is better) onto (0, 1),
// monotonically.
func rankToScore(rank float64) float64 {
	return 1.0 / (1.0 + math.Exp(rank))
}
