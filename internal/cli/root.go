// Package cli implements the afdp command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"afdp/internal/config"
	"afdp/internal/logger"
)

// version is set at build time with -ldflags "-X afdp/internal/cli.version=...".
var version = "dev"

// Global flags.
var (
	configPath string
	logLevel   string
	outputDir  string
)

// Resolved by setup before any subcommand runs.
var (
	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "afdp",
	Short: "Africa Energy Portal data pipeline",
	Long: `afdp extracts electricity statistics for 54 African countries from the
Africa Energy Portal, normalizes them into one record per country, year,
subsector and indicator, validates coverage and loads the result into a
document store.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultPath, "Path to YAML config file")
	flags.StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	flags.StringVar(&outputDir, "output", "", "Output directory override")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := loadConfig()
	if err != nil {
		return err
	}

	if logLevel != "" {
		loaded.Logging.Level = logLevel
	}

	if outputDir != "" {
		loaded.Output.BasePath = outputDir
	}

	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cfg = loaded
	log = logger.New(logger.Options{
		Output: cmd.ErrOrStderr(),
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	return nil
}

// loadConfig reads configPath. A missing default config file falls back to built-in defaults.
func loadConfig() (*config.Config, error) {
	_, err := os.Stat(configPath)
	if errors.Is(err, os.ErrNotExist) && configPath == config.DefaultPath {
		c := config.Default()
		c.ApplyEnv()

		return c, nil
	}

	return config.LoadConfig(configPath)
}
