package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yaklabco/docgen/internal/logging"
	"github.com/yaklabco/docgen/pkg/fsutil"
	"github.com/yaklabco/docgen/pkg/langdetect"
	"github.com/yaklabco/docgen/pkg/runner"
	"github.com/yaklabco/docgen/pkg/transcode"
)

// stdinName is the argument and display name for standard input.
const stdinName = "-"

type convertFlags struct {
	fenceLanguage bool
	language      string
	output        string
}

func newConvertCommand() *cobra.Command {
	flags := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "convert [file|-]",
		Short: "Convert a single source file and print the Markdown",
		Long: `Convert a single source file to Markdown and write it to standard output.

With no argument or "-", the source is read from standard input. Reading from
an interactive terminal is refused.`,
		Example: `  docgen convert vm.cpp                  # Print the document for vm.cpp
  docgen convert vm.cpp -o doc/vm.md     # Write it to a file
  cat vm.cpp | docgen convert --lang cpp # Read stdin, tag fences as cpp`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := stdinName
			if len(args) == 1 {
				path = args[0]
			}
			return runConvert(cmd, path, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.fenceLanguage, "fence-language", false, "tag code fences with the detected language")
	cmd.Flags().StringVar(&flags.language, "lang", "", "tag code fences with this info string instead of detecting it")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write to this file instead of standard output")

	return cmd
}

func runConvert(cmd *cobra.Command, path string, flags *convertFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.Default().With(logging.FieldSource, path)

	content, err := readConvertInput(ctx, cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	info := flags.language
	if info == "" && flags.fenceLanguage {
		info = langdetect.FenceInfo(path, content)
		logger.Debug("detected language", logging.FieldLanguage, info)
	}

	res, err := transcode.New(transcode.Options{FenceInfo: info}).Run(bytes.NewReader(content))
	if err != nil {
		return &runner.SourceError{Path: path, Err: err}
	}

	logger.Debug("converted",
		logging.FieldDocBlocks, res.DocBlocks,
		logging.FieldCodeRegions, res.CodeRegions,
	)

	if flags.output != "" {
		if err := fsutil.WriteAtomic(ctx, flags.output, []byte(res.Text), fsutil.DefaultFileMode); err != nil {
			return fmt.Errorf("write %s: %w", flags.output, err)
		}
		return nil
	}

	if _, err := io.WriteString(cmd.OutOrStdout(), res.Text); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func readConvertInput(ctx context.Context, stdin io.Reader, path string) ([]byte, error) {
	if path != stdinName {
		content, _, err := fsutil.ReadFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
		return content, nil
	}

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return nil, fmt.Errorf("%w: refusing to read source from a terminal; pass a file or pipe input", ErrUsage)
	}

	content, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read standard input: %w", err)
	}
	return content, nil
}
