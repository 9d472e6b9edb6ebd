// Package logging provides a structured logging wrapper around charmbracelet/log.
package logging

// Field name constants for structured logging.
const (
	// Common fields.
	FieldError      = "error"
	FieldPath       = "path"
	FieldPaths      = "paths"
	FieldLine       = "line"
	FieldWorkingDir = "working_dir"
	FieldConfig     = "config"

	// Document fields.
	FieldSource   = "source"
	FieldDest     = "dest"
	FieldLanguage = "language"
	FieldBackup   = "backup"

	// Configuration fields.
	FieldFlavor = "flavor"
	FieldDryRun = "dry_run"
	FieldJobs   = "jobs"
	FieldFormat = "format"

	// Statistics fields.
	FieldPlanned     = "planned"
	FieldProcessed   = "processed"
	FieldWritten     = "written"
	FieldUnchanged   = "unchanged"
	FieldFailed      = "failed"
	FieldDocBlocks   = "doc_blocks"
	FieldCodeRegions = "code_regions"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
