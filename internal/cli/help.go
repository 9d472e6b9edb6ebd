package cli

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yaklabco/docgen/internal/ui/pretty"
)

// flagGroupAnnotation names the help section a flag is listed under.
const flagGroupAnnotation = "docgen_flag_group"

// Help sections for generate flags, in display order. Flags without a
// group are listed last under "Flags".
const (
	groupSources   = "Sources"
	groupOutput    = "Output"
	groupExecution = "Execution"
	groupReporting = "Reporting"
	groupDefault   = "Flags"
)

var flagGroupOrder = []string{groupSources, groupOutput, groupExecution, groupReporting, groupDefault}

// setFlagGroup files the named flags under a help section.
func setFlagGroup(cmd *cobra.Command, group string, names ...string) {
	for _, name := range names {
		_ = cmd.Flags().SetAnnotation(name, flagGroupAnnotation, []string{group})
	}
}

// HelpStyles contains Lipgloss styles for command help formatting.
type HelpStyles struct {
	Command     lipgloss.Style
	Heading     lipgloss.Style
	Subcommand  lipgloss.Style
	Flag        lipgloss.Style
	Description lipgloss.Style
	Comment     lipgloss.Style
	Dim         lipgloss.Style
}

// NewHelpStyles creates help styles based on color mode.
func NewHelpStyles(colorEnabled bool) *HelpStyles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return &HelpStyles{
			Command:     plain,
			Heading:     plain,
			Subcommand:  plain,
			Flag:        plain,
			Description: plain,
			Comment:     plain,
			Dim:         plain,
		}
	}
	return &HelpStyles{
		Command:     lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		Heading:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Subcommand:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Flag:        lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Description: lipgloss.NewStyle(),
		Comment:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true),
		Dim:         lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// HelpFormatter renders styled help for docgen commands.
type HelpFormatter struct {
	styles *HelpStyles
}

// NewHelpFormatter creates a help formatter for output written to writer.
func NewHelpFormatter(colorMode string, writer io.Writer) *HelpFormatter {
	return &HelpFormatter{styles: NewHelpStyles(pretty.IsColorEnabled(colorMode, writer))}
}

// flagSection is one titled block of flag usages.
type flagSection struct {
	Title string
	Usage string
}

const helpTemplate = `{{with (or .Long .Short)}}{{ trimTrailingWhitespaces . }}

{{end}}{{ styleHeading "Usage:" }}{{if .Runnable}}
  {{ styleCommand .UseLine }}{{end}}{{if .HasAvailableSubCommands}}
  {{ styleCommand .CommandPath }} [command]{{end}}

{{- if gt (len .Aliases) 0}}

{{ styleHeading "Aliases:" }}
  {{ styleDim (join .Aliases ", ") }}
{{- end}}

{{- if .HasExample}}

{{ styleHeading "Examples:" }}
{{ styleExamples .Example }}
{{- end}}

{{- if .HasAvailableSubCommands}}

{{ styleHeading "Commands:" }}{{range .Commands}}{{if .IsAvailableCommand}}
  {{ styleSubcommand (rpad .Name .NamePadding) }} {{ styleDescription .Short }}{{end}}{{end}}
{{- end}}

{{- range flagSections .}}

{{ styleHeading (print .Title ":") }}
{{ .Usage }}
{{- end}}

{{- if .HasAvailableInheritedFlags}}

{{ styleHeading "Global Flags:" }}
{{ styleFlagsUsage .InheritedFlags }}
{{- end}}

{{- if .HasAvailableSubCommands}}

Use "{{ styleCommand (print .CommandPath " [command] --help") }}" for more information about a command.
{{- end}}
`

func (h *HelpFormatter) template() (*template.Template, error) {
	funcs := template.FuncMap{
		"styleCommand":            h.styles.Command.Render,
		"styleHeading":            h.styles.Heading.Render,
		"styleSubcommand":         h.styles.Subcommand.Render,
		"styleDescription":        h.styles.Description.Render,
		"styleDim":                h.styles.Dim.Render,
		"styleExamples":           h.styleExamples,
		"styleFlagsUsage":         h.styleFlagsUsage,
		"flagSections":            h.flagSections,
		"rpad":                    rpad,
		"join":                    strings.Join,
		"trimTrailingWhitespaces": trimTrailingWhitespaces,
	}

	tmpl, err := template.New("help").Funcs(funcs).Parse(helpTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse help template: %w", err)
	}
	return tmpl, nil
}

// Render writes the help for cmd to w.
func (h *HelpFormatter) Render(w io.Writer, cmd *cobra.Command) error {
	tmpl, err := h.template()
	if err != nil {
		return err
	}
	return tmpl.Execute(w, cmd)
}

// flagSections splits the local flags of cmd into their help groups.
func (h *HelpFormatter) flagSections(cmd *cobra.Command) []flagSection {
	sets := make(map[string]*pflag.FlagSet)

	cmd.LocalFlags().VisitAll(func(flag *pflag.Flag) {
		group := groupDefault
		if names := flag.Annotations[flagGroupAnnotation]; len(names) > 0 {
			group = names[0]
		}
		set, ok := sets[group]
		if !ok {
			set = pflag.NewFlagSet(group, pflag.ContinueOnError)
			sets[group] = set
		}
		set.AddFlag(flag)
	})

	var sections []flagSection
	for _, group := range flagGroupOrder {
		set, ok := sets[group]
		if !ok {
			continue
		}
		if usage := h.styleFlagsUsage(set); usage != "" {
			sections = append(sections, flagSection{Title: group, Usage: usage})
		}
	}
	return sections
}

// styleExamples styles example lines of the form "docgen ... # comment".
func (h *HelpFormatter) styleExamples(example string) string {
	lines := strings.Split(strings.TrimRight(example, "\n"), "\n")
	for i, line := range lines {
		indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
		command, comment, found := strings.Cut(strings.TrimLeft(line, " "), "#")
		styled := indent + h.styles.Command.Render(strings.TrimRight(command, " "))
		if found {
			pad := command[len(strings.TrimRight(command, " ")):]
			styled += pad + h.styles.Comment.Render("#"+comment)
		}
		lines[i] = styled
	}
	return strings.Join(lines, "\n")
}

// styleFlagsUsage formats pflag usage lines with styled flag names.
func (h *HelpFormatter) styleFlagsUsage(flags *pflag.FlagSet) string {
	usages := flags.FlagUsages()
	if usages == "" {
		return ""
	}

	lines := strings.Split(strings.TrimSuffix(usages, "\n"), "\n")
	for i, line := range lines {
		lines[i] = h.styleFlagLine(line)
	}
	return strings.Join(lines, "\n")
}

// styleFlagLine styles "  -d, --dest-dir string   description", keeping
// the column layout pflag produced.
func (h *HelpFormatter) styleFlagLine(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	gapAt := strings.Index(trimmed, "  ")
	if gapAt < 0 {
		return line
	}
	flagPart, rest := trimmed[:gapAt], trimmed[gapAt:]
	desc := strings.TrimLeft(rest, " ")
	if desc == "" {
		return line
	}

	tokens := strings.Fields(flagPart)
	for i, token := range tokens {
		if strings.HasPrefix(token, "-") {
			clean := strings.TrimSuffix(token, ",")
			tokens[i] = h.styles.Flag.Render(clean) + token[len(clean):]
		} else {
			tokens[i] = h.styles.Dim.Render(token)
		}
	}

	indent := line[:len(line)-len(trimmed)]
	gap := rest[:len(rest)-len(desc)]
	return indent + strings.Join(tokens, " ") + gap + h.styles.Description.Render(desc)
}

// ApplyToCommand installs styled help on cmd and its subcommands. The color
// mode is read from the --color flag when help is rendered.
func (h *HelpFormatter) ApplyToCommand(cmd *cobra.Command) {
	cmd.SetHelpFunc(func(command *cobra.Command, _ []string) {
		formatter := h
		if mode, err := command.Flags().GetString("color"); err == nil {
			formatter = NewHelpFormatter(mode, command.OutOrStdout())
		}
		if err := formatter.Render(command.OutOrStdout(), command); err != nil {
			command.PrintErrln(err)
		}
	})
}

// rpad adds padding to the right of a string.
func rpad(str string, padding int) string {
	if len(str) >= padding {
		return str
	}
	return str + strings.Repeat(" ", padding-len(str))
}

// trimTrailingWhitespaces removes trailing whitespace from lines.
func trimTrailingWhitespaces(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
