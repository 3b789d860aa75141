package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"afdp/internal/formatter"
	"afdp/pkg/metadata"
	"afdp/pkg/utils"
)

var verifyDir string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check run artifacts against manifest.json",
	RunE:  runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyDir, "dir", "", "Run directory (default: <output>)")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	dir := utils.FirstNonEmpty(verifyDir, cfg.Output.BasePath)

	manifest, err := metadata.Verify(dir)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(manifest.Files))
	for _, f := range manifest.Files {
		rows = append(rows, []string{f.Name, strconv.FormatInt(f.Size, 10), utils.TruncateString(f.Hash, 16)})
	}

	cmd.Print(formatter.FormatTable([]string{"file", "bytes", "sha256"}, rows))
	cmd.Printf("✅ %d artifacts of run %s (%s) verified\n", len(manifest.Files), manifest.RunID, manifest.State)

	return nil
}
