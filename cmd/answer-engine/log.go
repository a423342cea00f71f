// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/answer-engine/internal/answerlog"
)

var logCmd = &cobra.Command{
	Use:   "log [conversation-id]",
	Short: "Show recorded answers for a conversation",
	Long: `Log lists every answered question recorded for a conversation, oldest
first, with scores and quality flags.`,
	Args: cobra.ExactArgs(1),
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.AnswerLog.DBPath == "" {
		return fmt.Errorf("answer log not configured: set answer_log.db_path")
	}

	log, err := answerlog.Open(cfg.AnswerLog.DBPath)
	if err != nil {
		return err
	}
	defer log.Close()

	entries, err := log.Entries(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No entries found.")
		return nil
	}

	for i, e := range entries {
		fmt.Printf("%d. [%s] %s\n", i+1, e.CreatedAt.Format("2006-01-02 15:04"), e.Question)
		fmt.Printf("   complexity=%s generation=%.0f compilation=%.0f attempts=%d",
			e.Complexity, e.GenerationTotal, e.CompilationTotal, e.Attempts)
		if e.EnrichmentApplied {
			fmt.Print(" enriched")
		}
		if e.Degraded {
			fmt.Print(" degraded")
		}
		if e.BelowThreshold {
			fmt.Print(" below-threshold")
		}
		fmt.Println()
	}
	fmt.Printf("\n%d entries\n", len(entries))
	return nil
}

func init() {
	logCmd.Flags().Bool("json", false, "output entries as JSON")

	rootCmd.AddCommand(logCmd)
}
