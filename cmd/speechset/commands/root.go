// Package commands implements the speechset command tree.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/speechset/cmd/speechset/internal/config"
	"github.com/haivivi/speechset/pkg/cli"
)

var (
	verbose      bool
	contextName  string
	outputFile   string
	outputFormat = cli.FormatYAML

	globalConfig    *config.Config
	globalConfigErr error
)

var rootCmd = &cobra.Command{
	Use:   "speechset",
	Short: "Speech command training example toolkit",
	Long: `speechset manages labeled spectrogram datasets for keyword-spotting models.

Record WAV snippets into dataset files, inspect and merge them, cut the
training windows, assemble normalized batches, and move datasets between
local files, blob storage and the example archive.

Configuration is stored under the user config directory (override with
SPEECHSET_CONFIG_DIR), organized by contexts. Each context holds service
files such as storage.yaml and archive.yaml.

Quick start:
  speechset add words.ssds yes yes_01.wav yes_02.wav
  speechset info words.ssds
  speechset batch words.ssds --split 0.2`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context to use (default: current context)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write results to file instead of stdout")
	rootCmd.PersistentFlags().Var(&outputFormat, "format", "output format: yaml, json, table")
}

func initConfig() {
	globalConfig, globalConfigErr = config.Load()
}

// GetConfig returns the loaded configuration, or the error from loading it.
func GetConfig() (*config.Config, error) {
	if globalConfigErr != nil {
		return nil, fmt.Errorf("load config: %w", globalConfigErr)
	}
	if globalConfig == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	return globalConfig, nil
}

func output(result any) error {
	return cli.Output(result, cli.OutputOptions{
		Format: outputFormat,
		File:   outputFile,
	})
}
