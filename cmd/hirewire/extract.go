package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IBM07/HireWire/internal/llm"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run one extraction pass over pending postings",
	RunE:  runExtract,
}

var extractBatch int

func init() {
	extractCmd.Flags().IntVar(&extractBatch, "batch", 0, "Postings to process (default from config)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key is required (set GEMINI_API_KEY or llm.api_key)")
	}
	if extractBatch > 0 {
		cfg.Extraction.BatchSize = extractBatch
	}

	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := llm.NewClient(cmd.Context(), llm.DefaultConfig(), cfg.LLM.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	// No response cache in a one-shot run; a running server expires its own entries.
	res, err := newWorker(cfg, store, client, nil, logger).RunOnce(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.String())
	return nil
}
