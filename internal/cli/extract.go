package cli

import (
	"github.com/spf13/cobra"

	"afdp/internal/pipeline"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Fetch raw records and save them",
	RunE:  runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	extractor, err := pipeline.NewExtractor(cfg, log)
	if err != nil {
		return err
	}

	raws, err := extractor.Extract(cmd.Context())
	if err != nil {
		return err
	}

	path := cfg.GetOutputPath(pipeline.RawFile)
	if err := pipeline.WriteJSON(path, raws, cfg.Output.PrettyPrint); err != nil {
		return err
	}

	cmd.Printf("✅ Extracted %d raw records to %s\n", len(raws), path)

	return nil
}
