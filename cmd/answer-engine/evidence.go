// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/answer-engine/internal/evidence"
)

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Manage the local evidence store (ingest, count)",
	Long: `Evidence manages the local SQLite evidence store the research stage
retrieves from. Use subcommands to ingest curated documents or inspect
what is indexed.`,
}

var evidenceIngestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a YAML document file into the evidence store",
	Long: `Ingest reads a YAML list of documents, chunks and indexes them with
FTS5, and reports per-document progress. Re-ingesting a document replaces
its chunks.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvidenceIngest,
}

func runEvidenceIngest(cmd *cobra.Command, args []string) error {
	store, err := openEvidenceStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.IngestFile(cmd.Context(), args[0], os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed indexing", summary.Failed)
	}
	fmt.Printf("Ingested %d documents (%d chunks).\n", summary.Documents, summary.Chunks)
	return nil
}

var evidenceCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print how many documents and chunks are indexed",
	RunE:  runEvidenceCount,
}

func runEvidenceCount(cmd *cobra.Command, args []string) error {
	store, err := openEvidenceStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	docs, chunks, err := store.Count(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("%d documents, %d chunks\n", docs, chunks)
	return nil
}

func openEvidenceStore(cmd *cobra.Command) (*evidence.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = cfg.Research.EvidenceDBPath
	}
	if dbPath == "" {
		return nil, fmt.Errorf("evidence store path required: set research.evidence_db_path or --db")
	}
	return evidence.NewStore(dbPath)
}

func init() {
	evidenceCmd.PersistentFlags().String("db", "", "evidence store path (overrides config)")

	evidenceCmd.AddCommand(evidenceIngestCmd)
	evidenceCmd.AddCommand(evidenceCountCmd)

	rootCmd.AddCommand(evidenceCmd)
}
