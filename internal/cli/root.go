// Package cli provides the Cobra command structure for docgen.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/docgen/internal/logging"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand creates the root docgen command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	var debug bool
	var logLevel string
	var configPath string
	var color string

	rootCmd := &cobra.Command{
		Use:   "docgen",
		Short: "Generate Markdown documentation from annotated source files",
		Long: `docgen turns source files into Markdown documents.

Text inside /**md ... */ comment blocks becomes Markdown prose, and the code
between blocks is wrapped in fenced code blocks. Generated documents can
optionally have their code fences tagged with the detected language,
be checked with a Markdown parser, and be rendered to HTML.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if cmd.Flags().Changed("log-level") {
				logging.SetLevel(logLevel)
			}
			if debug {
				logging.SetLevel("debug")
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags.
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&color, "color", "auto",
		"colorize output: auto, always, never")

	// Add subcommands.
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newConvertCommand())
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newVersionCommand(info))

	// Apply styled help formatting.
	helpFormatter := NewHelpFormatter(color, os.Stdout)
	helpFormatter.ApplyToCommand(rootCmd)

	return rootCmd
}
