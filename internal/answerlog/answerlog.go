// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package answerlog persists answered questions per conversation so later
// requests can carry their history. It sits at the CLI boundary; the
// orchestrator itself never writes here.
// Implements: prd009-storage (R4.1-R4.4);
//
//	docs/ARCHITECTURE § Answer Log.
package answerlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Log manages the answer-log SQLite database.
type Log struct {
	db *sql.DB
}

// Open opens or creates the answer log at dbPath.
func Open(dbPath string) (*Log, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("answer log path is required")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	l := &Log{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Log) Close() error {
	return l.db.Close()
}

func (l *Log) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			complexity TEXT,
			generation_total REAL,
			compilation_total REAL,
			attempts INTEGER,
			enrichment_applied INTEGER,
			degraded INTEGER,
			below_threshold INTEGER,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_conversation ON entries(conversation_id, rowid)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Entry is one logged question and answer with result metadata (R4.2).
type Entry struct {
	ConversationID    string
	Question          string
	Answer            string
	Complexity        types.Complexity
	GenerationTotal   float64
	CompilationTotal  float64
	Attempts          int
	EnrichmentApplied bool
	Degraded          bool
	BelowThreshold    bool
	CreatedAt         time.Time
}

// Append records one answered question for a conversation (R4.1).
func (l *Log) Append(ctx context.Context, conversationID string, req types.PipelineRequest, res types.PipelineResult) error {
	if conversationID == "" {
		return fmt.Errorf("conversation id is required")
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO entries (
			conversation_id, question, answer, complexity,
			generation_total, compilation_total, attempts,
			enrichment_applied, degraded, below_threshold, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conversationID, req.Question, res.Answer, string(res.Complexity),
		res.GenerationScore.Total, res.CompilationScore.Total, res.Attempts,
		res.EnrichmentApplied, res.Degraded, res.BelowThreshold,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("appending entry: %w", err)
	}
	return nil
}

// Entries returns a conversation's log oldest first (R4.3).
func (l *Log) Entries(ctx context.Context, conversationID string) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT conversation_id, question, answer, complexity,
			generation_total, compilation_total, attempts,
			enrichment_applied, degraded, below_threshold, created_at
		FROM entries WHERE conversation_id = ? ORDER BY rowid`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			complexity string
			createdAt  string
		)
		if err := rows.Scan(
			&e.ConversationID, &e.Question, &e.Answer, &complexity,
			&e.GenerationTotal, &e.CompilationTotal, &e.Attempts,
			&e.EnrichmentApplied, &e.Degraded, &e.BelowThreshold, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Complexity = types.Complexity(complexity)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// History renders a conversation as alternating user and assistant turns,
// oldest first, ready for PipelineRequest.History (R4.4). maxEntries caps
// how many of the most recent entries are included; zero means all.
func (l *Log) History(ctx context.Context, conversationID string, maxEntries int) ([]types.Turn, error) {
	entries, err := l.Entries(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if maxEntries > 0 && len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}

	turns := make([]types.Turn, 0, 2*len(entries))
	for _, e := range entries {
		turns = append(turns,
			types.Turn{Role: "user", Content: e.Question},
			types.Turn{Role: "assistant", Content: e.Answer},
		)
	}
	return turns, nil
}
