package reporter

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yaklabco/docgen/pkg/markdown"
	"github.com/yaklabco/docgen/pkg/runner"
	"github.com/yaklabco/docgen/pkg/transcode"
)

// JSONOutput is the top-level JSON structure.
type JSONOutput struct {
	Version string           `json:"version"`
	DryRun  bool             `json:"dryRun"`
	Files   []JSONFileResult `json:"files"`
	Summary runner.Stats     `json:"summary"`
}

// JSONFileResult represents a single job's outcome.
type JSONFileResult struct {
	Source      string             `json:"source"`
	Dest        string             `json:"dest"`
	Status      runner.Status      `json:"status"`
	Error       string             `json:"error,omitempty"`
	Line        int                `json:"line,omitempty"`
	Language    string             `json:"language,omitempty"`
	Lines       int                `json:"lines"`
	DocBlocks   int                `json:"docBlocks"`
	CodeRegions int                `json:"codeRegions"`
	Headings    []markdown.Heading `json:"headings,omitempty"`
	Warnings    []string           `json:"warnings,omitempty"`
	Backup      string             `json:"backup,omitempty"`
	HTML        string             `json:"html,omitempty"`
	Diff        string             `json:"diff,omitempty"`
}

// JSONReporter formats results as JSON.
type JSONReporter struct {
	opts Options
	bw   *bufio.Writer
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(opts Options) *JSONReporter {
	return &JSONReporter{
		opts: opts,
		bw:   bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *JSONReporter) Report(_ context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	output := r.buildOutput(result)

	encoder := json.NewEncoder(r.bw)
	if !r.opts.Compact {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(output); err != nil {
		return 0, fmt.Errorf("encode JSON: %w", err)
	}

	return output.Summary.Failed, nil
}

func (r *JSONReporter) buildOutput(result *runner.Result) *JSONOutput {
	output := &JSONOutput{
		Version: "1.0.0",
		Files:   make([]JSONFileResult, 0),
	}

	if result == nil {
		return output
	}

	output.DryRun = result.DryRun
	output.Summary = result.Stats
	output.Files = make([]JSONFileResult, 0, len(result.Files))

	for _, file := range result.Files {
		fileResult := JSONFileResult{
			Source:      r.opts.displayPath(file.Source),
			Dest:        r.opts.displayPath(file.Dest),
			Status:      file.Status,
			Language:    file.Language,
			Lines:       file.Lines,
			DocBlocks:   file.DocBlocks,
			CodeRegions: file.CodeRegions,
			Warnings:    file.Warnings,
			Backup:      r.opts.displayPath(file.Backup),
			HTML:        r.opts.displayPath(file.HTML),
		}

		if file.Outline != nil {
			fileResult.Headings = file.Outline.Headings
		}

		if file.Diff != nil {
			fileResult.Diff = r.opts.displayDiff(file.Diff).String()
		}

		if file.Error != nil {
			fileResult.Error = file.Error.Error()
			var malformed *transcode.MalformedInputError
			if errors.As(file.Error, &malformed) {
				fileResult.Line = malformed.Line
			}
		}

		output.Files = append(output.Files, fileResult)
	}

	return output
}
