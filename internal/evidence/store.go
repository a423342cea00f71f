// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evidence persists pre-chunked reference documents and serves
// ranked full-text retrieval over them. It is the mandatory research
// backend; the pipeline fails when retrieval fails.
// Implements: prd009-storage (R1-R3), prd002-research (R2.2);
//
//	docs/ARCHITECTURE § Evidence Store.
package evidence

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"
)

// Store manages the evidence SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the evidence database at dbPath, creating the
// schema when missing (R1.1).
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("evidence db path is required")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating evidence directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT,
			source_url TEXT,
			ingested_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			document_id TEXT NOT NULL REFERENCES documents(id),
			position INTEGER,
			content TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='chunks_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE chunks_fts USING fts5(content, content=chunks, content_rowid=rowid)`,
			`CREATE TRIGGER chunks_ai AFTER INSERT ON chunks BEGIN
				INSERT INTO chunks_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER chunks_ad AFTER DELETE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
			`CREATE TRIGGER chunks_au AFTER UPDATE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES('delete', old.rowid, old.content);
				INSERT INTO chunks_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Document is one pre-chunked reference document as it appears in an
// ingest YAML file. Chunking happens upstream; the store never splits text
// itself (R1.3).
type Document struct {
	ID     string   `yaml:"id"`
	Title  string   `yaml:"title"`
	URL    string   `yaml:"url,omitempty"`
	Chunks []string `yaml:"chunks"`
}

// IngestSummary holds counts from an ingest run.
type IngestSummary struct {
	Documents int
	Chunks    int
	Failed    int
}

// IngestFile reads a YAML list of documents and upserts them. Re-ingesting
// a document replaces its chunks (R1.2).
func (s *Store) IngestFile(ctx context.Context, path string, w io.Writer) (IngestSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var docs []Document
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return IngestSummary{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	var summary IngestSummary
	for _, doc := range docs {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		if doc.ID == "" || len(doc.Chunks) == 0 {
			fmt.Fprintf(w, "failed  %s: missing id or chunks\n", doc.ID)
			summary.Failed++
			continue
		}
		if err := s.ingestDocument(ctx, doc); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", doc.ID, err)
			summary.Failed++
			continue
		}
		fmt.Fprintf(w, "ingested %s (%d chunks)\n", doc.ID, len(doc.Chunks))
		summary.Documents++
		summary.Chunks += len(doc.Chunks)
	}

	fmt.Fprintf(w, "\ndocuments: %d, chunks: %d, failed: %d\n",
		summary.Documents, summary.Chunks, summary.Failed)
	return summary, nil
}

func (s *Store) ingestDocument(ctx context.Context, doc Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("deleting old chunks: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, title, source_url, ingested_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, source_url=excluded.source_url,
			ingested_at=excluded.ingested_at`,
		doc.ID, doc.Title, doc.URL, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, document_id, position, content) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, content := range doc.Chunks {
		chunkID := fmt.Sprintf("%s#%d", doc.ID, i)
		if _, err := stmt.ExecContext(ctx, chunkID, doc.ID, i, content); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", chunkID, err)
		}
	}

	return tx.Commit()
}

// Count returns the number of stored documents and chunks.
func (s *Store) Count(ctx context.Context) (docs, chunks int, err error) {
	if err = s.db.QueryRowContext(ctx, `SELECT count(*) FROM documents`).Scan(&docs); err != nil {
		return 0, 0, fmt.Errorf("counting documents: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, `SELECT count(*) FROM chunks`).Scan(&chunks); err != nil {
		return 0, 0, fmt.Errorf("counting chunks: %w", err)
	}
	return docs, chunks, nil
}
