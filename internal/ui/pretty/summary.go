package pretty

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yaklabco/docgen/pkg/runner"
)

const (
	summaryDividerWidth = 40
	wordFile            = "file"
	wordFiles           = "files"
	wordDocument        = "document"
	wordDocuments       = "documents"
)

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// FormatSummaryOneLine formats run statistics as a single line.
// Example: "Generated 3 documents (1 unchanged) from 4 files, 1 failed, 2 skipped".
func (s *Styles) FormatSummaryOneLine(stats runner.Stats, dryRun bool) string {
	if stats.Planned == 0 {
		return s.Dim.Render("No documents to generate.") + "\n"
	}

	var parts []string

	generated := stats.Written + stats.Unchanged
	verb := "Generated"
	if dryRun {
		verb = "Would generate"
		generated = stats.Processed - stats.Failed
	}

	head := fmt.Sprintf("%s %d %s", verb, generated, plural(generated, wordDocument, wordDocuments))
	if stats.Unchanged > 0 {
		head += fmt.Sprintf(" (%d unchanged)", stats.Unchanged)
	}
	head += fmt.Sprintf(" from %d %s", stats.Planned, plural(stats.Planned, wordFile, wordFiles))

	if stats.Failed > 0 {
		parts = append(parts, s.Failure.Render(head))
		parts = append(parts, s.Error.Render(fmt.Sprintf("%d failed", stats.Failed)))
	} else {
		parts = append(parts, s.Success.Render(head))
	}

	if stats.Stale > 0 {
		parts = append(parts, s.Warning.Render(fmt.Sprintf("%d stale", stats.Stale)))
	}

	if stats.Skipped > 0 {
		parts = append(parts, s.Dim.Render(fmt.Sprintf("%d skipped", stats.Skipped)))
	}

	if stats.Warnings > 0 {
		parts = append(parts, s.Warning.Render(fmt.Sprintf("%d %s", stats.Warnings, plural(stats.Warnings, "warning", "warnings"))))
	}

	return strings.Join(parts, ", ") + "\n"
}

// FormatSummary formats run statistics as a summary block.
func (s *Styles) FormatSummary(stats runner.Stats) string {
	var builder strings.Builder

	builder.WriteString("\n")
	builder.WriteString(s.SummaryTitle.Render("Summary"))
	builder.WriteString("\n")
	builder.WriteString(strings.Repeat("-", summaryDividerWidth))
	builder.WriteString("\n")

	row := func(label string, value int, style lipgloss.Style) {
		fmt.Fprintf(&builder, "  %-19s %s\n", label+":", style.Render(strconv.Itoa(value)))
	}

	row("Files planned", stats.Planned, s.SummaryValue)
	row("Files processed", stats.Processed, s.SummaryValue)
	if stats.Written > 0 {
		row("Documents written", stats.Written, s.Success)
	}
	if stats.Unchanged > 0 {
		row("Unchanged", stats.Unchanged, s.SummaryValue)
	}
	if stats.Failed > 0 {
		row("Failed", stats.Failed, s.Failure)
	}
	if stats.Stale > 0 {
		row("Stale", stats.Stale, s.Warning)
	}
	if stats.Skipped > 0 {
		row("Skipped", stats.Skipped, s.Dim)
	}

	builder.WriteString("\n")
	row("Doc blocks", stats.DocBlocks, s.SummaryValue)
	row("Code regions", stats.CodeRegions, s.SummaryValue)
	if stats.Warnings > 0 {
		row("Warnings", stats.Warnings, s.Warning)
	}

	builder.WriteString("\n")

	switch {
	case stats.Failed > 0:
		builder.WriteString(s.Failure.Render("Generation failed"))
	case stats.Stale > 0:
		builder.WriteString(s.Warning.Render("Documents are out of date"))
	case stats.Warnings > 0:
		builder.WriteString(s.Warning.Render("Generation completed with warnings"))
	default:
		builder.WriteString(s.Success.Render("Generation succeeded"))
	}
	builder.WriteString("\n")

	return builder.String()
}
