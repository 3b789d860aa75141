package cli

import (
	"github.com/spf13/cobra"

	"afdp/internal/crawler"
	"afdp/internal/formatter"
	"afdp/internal/normalizer"
	"afdp/internal/pipeline"
)

var (
	transformInput    string
	transformCoverage bool
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Normalize a raw dump",
	Long: `Normalizes a raw dump into records.json and pivots it into the
year-per-column layout in formatted.json.`,
	RunE: runTransform,
}

func init() {
	transformCmd.Flags().StringVar(&transformInput, "input", "", "Raw dump (default: <output>/raw.json)")
	transformCmd.Flags().BoolVar(&transformCoverage, "coverage", false, "Print records per country and subsector")
	rootCmd.AddCommand(transformCmd)
}

func runTransform(cmd *cobra.Command, _ []string) error {
	input := transformInput
	if input == "" {
		input = cfg.GetOutputPath(pipeline.RawFile)
	}

	raws, err := crawler.ReadRawFile(input)
	if err != nil {
		return err
	}

	result, err := normalizer.NewProcessor(cfg.Normalize.SkipInvalid).
		WithLinkBase(cfg.Source.BaseURL).
		Process(raws)
	if err != nil {
		return err
	}

	for _, rej := range result.Rejections {
		log.Warn("Record rejected", "index", rej.Index, "reason", rej.Reason)
	}

	if err := pipeline.WriteJSON(cfg.GetOutputPath(pipeline.RecordsFile), result.Records, cfg.Output.PrettyPrint); err != nil {
		return err
	}

	series := formatter.PivotWithProvenance(result.Records, result.Provenance)
	if err := pipeline.WriteJSON(cfg.GetOutputPath(pipeline.FormattedFile), series, cfg.Output.PrettyPrint); err != nil {
		return err
	}

	cmd.Printf("✅ Normalized %d records (%d rejected), %d series\n",
		len(result.Records), len(result.Rejections), len(series))

	if transformCoverage {
		cmd.Print(formatter.RenderCoverage(result.Records))
	}

	return nil
}
