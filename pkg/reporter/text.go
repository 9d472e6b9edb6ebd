package reporter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yaklabco/docgen/internal/ui/pretty"
	"github.com/yaklabco/docgen/pkg/docdiff"
	"github.com/yaklabco/docgen/pkg/fsutil"
	"github.com/yaklabco/docgen/pkg/runner"
	"github.com/yaklabco/docgen/pkg/transcode"
)

// TextReporter formats results as styled terminal output.
type TextReporter struct {
	opts   Options
	styles *pretty.Styles
	bw     *bufio.Writer
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(opts Options) *TextReporter {
	colorEnabled := pretty.IsColorEnabled(opts.Color, opts.Writer)
	return &TextReporter{
		opts:   opts,
		styles: pretty.NewStyles(colorEnabled),
		bw:     bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *TextReporter) Report(_ context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	if result == nil {
		result = &runner.Result{}
	}

	failures := 0
	for i := range result.Files {
		file := &result.Files[i]
		switch file.Status {
		case runner.StatusFailed:
			failures++
			fmt.Fprintln(r.bw, r.formatFailure(file))
		case runner.StatusWritten, runner.StatusDryRun, runner.StatusStale:
			fmt.Fprintln(r.bw, r.formatGenerated(file))
		case runner.StatusUnchanged:
			if r.opts.Verbose {
				fmt.Fprintln(r.bw, r.formatGenerated(file))
			}
		case runner.StatusSkipped:
		}

		if file.Diff != nil {
			r.writeDiff(file.Diff)
		}

		for _, w := range file.Warnings {
			fmt.Fprintf(r.bw, "%s: %s %s\n",
				r.styles.FilePath.Render(r.opts.displayPath(file.Dest)),
				r.styles.Warning.Render("warning:"),
				r.styles.Message.Render(w),
			)
		}
	}

	if r.opts.ShowSummary {
		fmt.Fprint(r.bw, r.styles.FormatSummaryOneLine(result.Stats, result.DryRun))
		if r.opts.Verbose {
			fmt.Fprint(r.bw, r.styles.FormatSummary(result.Stats))
		}
	}

	return failures, nil
}

// formatGenerated renders "src/vm.cpp -> doc/vm.md (written)".
func (r *TextReporter) formatGenerated(file *runner.FileOutcome) string {
	line := fmt.Sprintf("%s %s %s %s",
		r.styles.FilePath.Render(r.opts.displayPath(file.Source)),
		r.styles.Arrow.Render("->"),
		r.styles.FilePath.Render(r.opts.displayPath(file.Dest)),
		r.styles.Dim.Render("("+string(file.Status)+")"),
	)
	if file.Backup != "" {
		line += r.styles.Dim.Render(" backup " + r.opts.displayPath(file.Backup))
	}
	return line
}

// writeDiff prints a unified diff with added and removed lines colored.
func (r *TextReporter) writeDiff(d *docdiff.Diff) {
	for _, line := range strings.SplitAfter(r.opts.displayDiff(d).String(), "\n") {
		text := strings.TrimSuffix(line, "\n")
		switch {
		case text == "":
			continue
		case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
			text = r.styles.Bold.Render(text)
		case strings.HasPrefix(text, "@@"):
			text = r.styles.Location.Render(text)
		case strings.HasPrefix(text, "+"):
			text = r.styles.Success.Render(text)
		case strings.HasPrefix(text, "-"):
			text = r.styles.Error.Render(text)
		}
		fmt.Fprintln(r.bw, text)
	}
}

// formatFailure renders the source location and a readable reason.
func (r *TextReporter) formatFailure(file *runner.FileOutcome) string {
	location := r.opts.displayPath(file.Source)

	var malformed *transcode.MalformedInputError
	var reason string
	switch {
	case errors.As(file.Error, &malformed):
		location = fmt.Sprintf("%s:%d", location, malformed.Line)
		reason = malformed.Reason
	case errors.Is(file.Error, fsutil.ErrNotFound):
		reason = "not found"
	default:
		reason = file.Error.Error()
	}

	return fmt.Sprintf("%s: %s %s",
		r.styles.FilePath.Render(location),
		r.styles.Error.Render("error:"),
		r.styles.Message.Render(reason),
	)
}
