package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"afdp/internal/formatter"
	"afdp/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline",
	Long: `Runs Extract, Normalize, Validate and Load in order. The first failing
stage aborts the run. Artifacts and a manifest are written to the output
directory either way.`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	driver, err := pipeline.FromConfig(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	out := driver.Run(cmd.Context())
	printOutcome(cmd, out)

	if out.Err != nil {
		return fmt.Errorf("run %s failed: %w", out.RunID, out.Err)
	}

	return nil
}

func printOutcome(cmd *cobra.Command, out *pipeline.Outcome) {
	rows := [][]string{
		{"run_id", out.RunID},
		{"state", string(out.State)},
	}

	if out.FailedStage != "" {
		rows = append(rows, []string{"failed_stage", string(out.FailedStage)})
	}

	rows = append(rows,
		[]string{"extracted", strconv.Itoa(out.Counts.Extracted)},
		[]string{"normalized", strconv.Itoa(out.Counts.Normalized)},
		[]string{"rejected", strconv.Itoa(out.Counts.Rejected)},
		[]string{"loaded", strconv.Itoa(out.Counts.Loaded)},
		[]string{"duration", out.Duration.Round(time.Millisecond).String()},
	)

	cmd.Println("📊 Summary Report")
	cmd.Print(formatter.FormatTable([]string{"field", "value"}, rows))

	if out.Report != nil {
		cmd.Print(formatter.RenderReport(out.Report))
	}
}
