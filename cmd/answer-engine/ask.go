// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/answer-engine/internal/answerlog"
	"github.com/pdiddy/answer-engine/internal/pipeline"
	"github.com/pdiddy/answer-engine/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question through the full pipeline",
	Long: `Ask runs one question through classification, research, generation,
compilation, and enrichment, then prints the answer with its citations.

With --conversation, prior answers for that conversation are loaded from
the answer log as context, and the new answer is recorded there.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")
	depth, _ := cmd.Flags().GetString("depth")
	complexity, _ := cmd.Flags().GetString("complexity")
	conversation, _ := cmd.Flags().GetString("conversation")
	historyLimit, _ := cmd.Flags().GetInt("history-limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	req := types.PipelineRequest{
		Question:           question,
		Depth:              types.ResearchDepth(depth),
		ComplexityOverride: types.Complexity(complexity),
	}
	if depth != "" && !req.Depth.Valid() {
		return fmt.Errorf("unknown depth %q: use quick, standard, or deep", depth)
	}

	var log *answerlog.Log
	if conversation != "" {
		if cfg.AnswerLog.DBPath == "" {
			return fmt.Errorf("--conversation requires answer_log.db_path in the config")
		}
		log, err = answerlog.Open(cfg.AnswerLog.DBPath)
		if err != nil {
			return err
		}
		defer log.Close()

		req.History, err = log.History(cmd.Context(), conversation, historyLimit)
		if err != nil {
			return err
		}
	}

	engine, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	if log != nil {
		if err := log.Append(cmd.Context(), conversation, req, result); err != nil {
			return err
		}
	}

	return formatAskOutput(result, jsonOutput)
}

func formatAskOutput(result types.PipelineResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println(result.Answer)

	if len(result.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, c := range result.Citations {
			fmt.Printf("  [%s] %s\n", c.ID, c.Source)
		}
	}

	var notes []string
	if result.Degraded {
		notes = append(notes, "partial research coverage")
	}
	if result.BelowThreshold {
		notes = append(notes, "quality threshold not reached")
	}
	if len(notes) > 0 {
		fmt.Fprintf(os.Stderr, "\nNote: %s.\n", strings.Join(notes, "; "))
	}
	return nil
}

func init() {
	askCmd.Flags().String("depth", "", "research depth: quick, standard, or deep")
	askCmd.Flags().String("complexity", "", "skip classification: basic, standard, or complex")
	askCmd.Flags().String("conversation", "", "conversation ID for history and logging")
	askCmd.Flags().Int("history-limit", 10, "maximum prior answers to load as context (0 = all)")
	askCmd.Flags().Bool("json", false, "output the full result as JSON")

	rootCmd.AddCommand(askCmd)
}
