package cli

import (
	"errors"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"afdp/internal/pipeline"
)

var (
	loadInput string
	loadRunID string
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Insert a normalized file into the configured sink",
	RunE:  runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadInput, "input", "", "Normalized file (default: <output>/records.json)")
	loadCmd.Flags().StringVar(&loadRunID, "run-id", "", "Run ID stored with each document (default: random UUID)")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, _ []string) error {
	if !cfg.SinkEnabled() {
		return errors.New("no sink configured: set sink.driver")
	}

	input := loadInput
	if input == "" {
		input = cfg.GetOutputPath(pipeline.RecordsFile)
	}

	records, err := pipeline.ReadRecords(input)
	if err != nil {
		return err
	}

	runID := loadRunID
	if runID == "" {
		runID = uuid.NewString()
	}

	result, err := pipeline.NewSinkLoader(&cfg.Sink, log.With("run_id", runID)).Load(cmd.Context(), runID, records)
	if err != nil {
		return err
	}

	cmd.Printf("✅ Loaded %d records in %d batches (run %s)\n", result.Inserted, result.Batches, runID)

	return nil
}
