// Package config defines the configuration types for docgen.
// These types are pure data structures; discovery and merging live in
// internal/configloader.
package config

import (
	"path/filepath"
	"strings"
)

// DefaultDestDir is the directory generated Markdown is written to.
const DefaultDestDir = "doc"

// MarkdownExt is the extension given to generated files.
const MarkdownExt = ".md"

// OutputFormat specifies the format of the run report.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Flavor specifies the Markdown flavor used when verifying or rendering output.
type Flavor string

const (
	FlavorCommonMark Flavor = "commonmark"
	FlavorGFM        Flavor = "gfm"
)

// Document maps one source file to the Markdown file generated from it.
type Document struct {
	// Source is the input path, relative to SourceDir unless absolute.
	Source string `yaml:"source"`

	// Dest is the output path. Empty means DestDir/<source base>.md.
	Dest string `yaml:"dest,omitempty"`
}

// BackupsConfig controls backups of destinations that are about to be overwritten.
type BackupsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Mode    string `yaml:"mode"` // "sidecar" or "none"
}

// Config is the root configuration structure for docgen.
type Config struct {
	// SourceDir is the base directory for relative document sources.
	SourceDir string `yaml:"source_dir"`

	// DestDir is the directory for documents without an explicit Dest.
	DestDir string `yaml:"dest_dir"`

	// Documents lists the files to convert, in processing order.
	Documents []Document `yaml:"documents"`

	// Extensions selects files when a directory is given on the command line.
	Extensions []string `yaml:"extensions"`

	// Ignore contains glob patterns for files to skip during directory discovery.
	Ignore []string `yaml:"ignore"`

	// FenceLanguage tags opening code fences with the detected source language.
	FenceLanguage bool `yaml:"fence_language"`

	// Verify parses generated Markdown and checks the code fences survived.
	Verify bool `yaml:"verify"`

	// HTML also renders each document to HTML next to its Markdown.
	HTML bool `yaml:"html"`

	// Flavor is the Markdown flavor used by Verify and HTML.
	Flavor Flavor `yaml:"flavor"`

	// Backups configures backups of overwritten destinations.
	Backups BackupsConfig `yaml:"backups"`

	// CLI-level options (not persisted to config files).

	// DryRun converts without writing anything.
	DryRun bool `yaml:"-"`

	// Format specifies the report format.
	Format OutputFormat `yaml:"-"`

	// Jobs specifies the number of parallel workers.
	Jobs int `yaml:"-"`

	// NoBackups disables backups regardless of Backups.Enabled.
	NoBackups bool `yaml:"-"`

	// Check compares each document with its destination without writing.
	Check bool `yaml:"-"`

	// Diff attaches a unified diff of each changed document to the result.
	Diff bool `yaml:"-"`
}

// DefaultExtensions returns the source extensions picked up from directories.
// They cover languages using /* */ block comments.
func DefaultExtensions() []string {
	return []string{
		".c", ".cc", ".cpp", ".cxx", ".h", ".hh", ".hpp",
		".cs", ".css", ".go", ".java", ".js", ".kt", ".rs", ".scala", ".swift", ".ts",
	}
}

// NewConfig returns a Config with defaults.
func NewConfig() *Config {
	return &Config{
		SourceDir:  ".",
		DestDir:    DefaultDestDir,
		Extensions: DefaultExtensions(),
		Flavor:     FlavorCommonMark,
		Backups: BackupsConfig{
			Enabled: false,
			Mode:    "sidecar",
		},
		Format: FormatText,
		Jobs:   1,
	}
}

// DestFor returns the destination for doc, applying the DestDir default.
func (c *Config) DestFor(doc Document) string {
	if doc.Dest != "" {
		return doc.Dest
	}
	return DefaultDest(c.DestDir, doc.Source)
}

// SourceFor returns the source path of doc resolved against SourceDir.
func (c *Config) SourceFor(doc Document) string {
	if filepath.IsAbs(doc.Source) || c.SourceDir == "" {
		return doc.Source
	}
	return filepath.Join(c.SourceDir, doc.Source)
}

// DefaultDest names the Markdown file generated for source inside destDir.
func DefaultDest(destDir, source string) string {
	base := filepath.Base(source)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		name = base
	}
	if destDir == "" {
		destDir = DefaultDestDir
	}
	return filepath.Join(destDir, name+MarkdownExt)
}
