package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"afdp/internal/formatter"
	"afdp/internal/models"
	"afdp/internal/pipeline"
	"afdp/internal/validator"
)

var (
	validateInput  string
	validateSeries bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check coverage and duplicates of a normalized file",
	Long: `Validates records.json (or formatted.json with --series), writes
validation_report.json and exits non-zero when the report fails the
configured policy.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateInput, "input", "", "Normalized file (default: <output>/records.json)")
	validateCmd.Flags().BoolVar(&validateSeries, "series", false, "Input is the wide formatted.json layout")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	report, err := buildReport()
	if err != nil {
		return err
	}

	if err := pipeline.WriteJSON(cfg.GetOutputPath(pipeline.ReportFile), report, cfg.Output.PrettyPrint); err != nil {
		return err
	}

	cmd.Print(formatter.RenderReport(report))

	if !report.Passed(models.ValidationPolicy{FailOnMissing: cfg.Validation.FailOnMissing}) {
		return fmt.Errorf("%w: %d missing years, %d duplicates, %d countries missing subsectors",
			models.ErrValidationFailed, report.MissingYears, report.Duplicates, report.CountriesMissingSubsector)
	}

	cmd.Println("✅ Validation passed")

	return nil
}

func buildReport() (*models.ValidationReport, error) {
	if validateSeries {
		input := validateInput
		if input == "" {
			input = cfg.GetOutputPath(pipeline.FormattedFile)
		}

		series, err := pipeline.ReadSeries(input)
		if err != nil {
			return nil, err
		}

		return validator.ValidateSeries(series), nil
	}

	input := validateInput
	if input == "" {
		input = cfg.GetOutputPath(pipeline.RecordsFile)
	}

	records, err := pipeline.ReadRecords(input)
	if err != nil {
		return nil, err
	}

	return validator.Validate(records), nil
}
