package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/docgen/internal/configloader"
	"github.com/yaklabco/docgen/internal/logging"
	"github.com/yaklabco/docgen/pkg/config"
	"github.com/yaklabco/docgen/pkg/reporter"
	"github.com/yaklabco/docgen/pkg/runner"
)

type generateFlags struct {
	sourceDir     string
	destDir       string
	fenceLanguage bool
	verify        bool
	html          bool
	flavor        string
	dryRun        bool
	jobs          int
	ignore        []string
	format        string
	noBackups     bool
	check         bool
	diff          bool
	verbose       bool
	compact       bool
}

func newGenerateCommand() *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:     "generate [paths...]",
		Aliases: []string{"gen"},
		Short:   "Generate Markdown documents from source files",
		Long:    generateLongDescription,
		Example: generateExamples,
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, flags)
		},
	}

	addGenerateFlags(cmd, flags)

	return cmd
}

const generateLongDescription = `Generate Markdown documents from source files.

Without arguments, the documents listed in the configuration file are
generated. Arguments replace the configured documents: a file argument is
converted into <dest-dir>/<name>.md, and a directory argument is searched
for files with a configured extension.

Processing stops at the first file that cannot be read, converted or
written; remaining files are reported as skipped.`

const generateExamples = `  docgen generate                        # Generate configured documents
  docgen generate src/vm.cpp             # Generate doc/vm.md
  docgen generate src/ --dest-dir docs   # Generate one document per source
  docgen generate --fence-language       # Tag fences, e.g. ` + "```cpp" + `
  docgen generate --verify --html        # Check output and render HTML
  docgen generate --dry-run --format json
  docgen generate --check --diff         # Fail in CI if documents are stale`

func runGenerate(cmd *cobra.Command, args []string, flags *generateFlags) error {
	logger := logging.Default()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("get config flag: %w", err)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	cliCfg, err := flags.config(cmd)
	if err != nil {
		return err
	}

	loadResult, err := configloader.Load(ctx, configloader.LoadOptions{
		WorkingDir:   workDir,
		ExplicitPath: configPath,
		CLIConfig:    cliCfg,
	})
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	finalCfg := loadResult.Config

	for _, warning := range loadResult.Warnings {
		logger.Warn(warning)
	}

	if len(loadResult.LoadedFrom) > 0 {
		logger.Debug("loaded configuration from", logging.FieldPaths, loadResult.LoadedFrom)
	}

	logger.Debug("configuration loaded",
		logging.FieldFlavor, finalCfg.Flavor,
		logging.FieldDryRun, finalCfg.DryRun,
		logging.FieldJobs, finalCfg.Jobs,
		logging.FieldFormat, finalCfg.Format,
	)

	format, err := reporter.ParseFormat(string(finalCfg.Format))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	colorMode, err := cmd.Flags().GetString("color")
	if err != nil {
		colorMode = "auto"
	}

	rep, err := reporter.New(reporter.Options{
		Writer:      cmd.OutOrStdout(),
		Format:      format,
		Color:       colorMode,
		Verbose:     flags.verbose,
		ShowSummary: true,
		Compact:     flags.compact,
		WorkingDir:  workDir,
	})
	if err != nil {
		return fmt.Errorf("create reporter: %w", err)
	}

	runOpts := runner.Options{
		Paths:      args,
		WorkingDir: workDir,
		Config:     finalCfg,
	}

	logger.Debug("starting generate run",
		logging.FieldPaths, runOpts.Paths,
		logging.FieldWorkingDir, runOpts.WorkingDir,
	)

	result, err := runner.New().Run(logging.WithLogger(ctx, logger), runOpts)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	if _, err := rep.Report(ctx, result); err != nil {
		return fmt.Errorf("report results: %w", err)
	}

	if runErr := result.Err(); runErr != nil {
		return &ReportedError{Err: runErr}
	}

	if result.Stale() {
		return &ReportedError{Err: ErrStaleDocuments}
	}

	return nil
}

// config builds the CLI configuration layer from the flags that were set.
func (f *generateFlags) config(cmd *cobra.Command) (*config.Config, error) {
	cfg := &config.Config{}
	changed := cmd.Flags().Changed

	if changed("source-dir") {
		cfg.SourceDir = f.sourceDir
	}
	if changed("dest-dir") {
		cfg.DestDir = f.destDir
	}
	if changed("flavor") {
		cfg.Flavor = config.Flavor(f.flavor)
	}
	if changed("format") {
		cfg.Format = config.OutputFormat(f.format)
	}
	if changed("ignore") {
		cfg.Ignore = f.ignore
	}
	if changed("jobs") {
		if f.jobs < 0 {
			return nil, fmt.Errorf("%w: --jobs must be >= 0, got %d", ErrUsage, f.jobs)
		}
		cfg.Jobs = f.jobs
	}

	cfg.FenceLanguage = f.fenceLanguage
	cfg.Verify = f.verify
	cfg.HTML = f.html
	cfg.DryRun = f.dryRun
	cfg.NoBackups = f.noBackups
	cfg.Check = f.check
	cfg.Diff = f.diff

	return cfg, nil
}

func addGenerateFlags(cmd *cobra.Command, flags *generateFlags) {
	cmd.Flags().StringVar(&flags.sourceDir, "source-dir", ".", "base directory for configured document sources")
	cmd.Flags().StringVarP(&flags.destDir, "dest-dir", "d", config.DefaultDestDir,
		"directory for documents without an explicit destination")
	cmd.Flags().BoolVar(&flags.fenceLanguage, "fence-language", false, "tag code fences with the detected language")
	cmd.Flags().BoolVar(&flags.verify, "verify", false, "parse generated Markdown and check its code fences")
	cmd.Flags().BoolVar(&flags.html, "html", false, "also render each document to HTML")
	cmd.Flags().StringVar(&flags.flavor, "flavor", "commonmark", "Markdown flavor for verify and html: commonmark, gfm")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "convert without writing any files")
	cmd.Flags().IntVarP(&flags.jobs, "jobs", "j", 0, "number of parallel workers (0 or 1 = sequential)")
	cmd.Flags().StringSliceVar(&flags.ignore, "ignore", nil, "glob patterns to skip in directories")
	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text, json")
	cmd.Flags().BoolVar(&flags.noBackups, "no-backups", false, "disable backups of overwritten documents")
	cmd.Flags().BoolVar(&flags.check, "check", false, "report out-of-date documents without writing; exit 3 if any")
	cmd.Flags().BoolVar(&flags.diff, "diff", false, "show a unified diff for each changed document")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "also list unchanged documents")
	cmd.Flags().BoolVar(&flags.compact, "compact", false, "minify JSON output")

	setFlagGroup(cmd, groupSources, "source-dir", "ignore")
	setFlagGroup(cmd, groupOutput, "dest-dir", "fence-language", "flavor", "html", "no-backups")
	setFlagGroup(cmd, groupExecution, "jobs", "dry-run", "verify", "check", "diff")
	setFlagGroup(cmd, groupReporting, "format", "verbose", "compact")
}

// ReportedError wraps a failure that has already been shown to the user
// by the run report. It still determines the exit code.
type ReportedError struct {
	Err error
}

// Error implements the error interface.
func (e *ReportedError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ReportedError) Unwrap() error {
	return e.Err
}

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var reported *ReportedError
	return errors.As(err, &reported)
}
