package runner

import (
	"github.com/yaklabco/docgen/pkg/docdiff"
	"github.com/yaklabco/docgen/pkg/markdown"
)

// Status is what happened to one job.
type Status string

const (
	// StatusWritten means the document was created or its content changed.
	StatusWritten Status = "written"

	// StatusUnchanged means the document already held the generated content.
	StatusUnchanged Status = "unchanged"

	// StatusDryRun means the document was generated but not written.
	StatusDryRun Status = "dry-run"

	// StatusStale means the destination is missing or differs from the
	// generated content. Only reported in check mode.
	StatusStale Status = "stale"

	// StatusFailed means the job stopped with an error.
	StatusFailed Status = "failed"

	// StatusSkipped means the job never started because an earlier job failed.
	StatusSkipped Status = "skipped"
)

// FileOutcome is the result of one job.
type FileOutcome struct {
	Job

	// Status is what happened to the job.
	Status Status

	// Error is set when Status is StatusFailed.
	Error error

	// Language is the fence info string used, if any.
	Language string

	// Lines is the number of source lines read.
	Lines int

	// DocBlocks is the number of /**md blocks extracted.
	DocBlocks int

	// CodeRegions is the number of fenced code regions generated.
	CodeRegions int

	// Outline is the parsed document structure when verification ran.
	Outline *markdown.Outline

	// Warnings are non-fatal findings, such as a fence count mismatch.
	Warnings []string

	// Backup is the backup path written before the document was replaced.
	Backup string

	// HTML is the rendered HTML path, when HTML output is enabled.
	HTML string

	// Diff is the change to the destination, when diffs are requested.
	Diff *docdiff.Diff
}

// Stats captures aggregate information about a run.
type Stats struct {
	// Planned is the number of jobs in the plan.
	Planned int `json:"planned"`

	// Processed is the number of jobs that started.
	Processed int `json:"processed"`

	// Written is the number of documents created or changed.
	Written int `json:"written"`

	// Unchanged is the number of documents already up to date.
	Unchanged int `json:"unchanged"`

	// Stale is the number of out-of-date documents found in check mode.
	Stale int `json:"stale"`

	// Failed is the number of jobs that stopped with an error.
	Failed int `json:"failed"`

	// Skipped is the number of jobs not started after a failure.
	Skipped int `json:"skipped"`

	// DocBlocks is the total number of doc blocks extracted.
	DocBlocks int `json:"docBlocks"`

	// CodeRegions is the total number of code regions generated.
	CodeRegions int `json:"codeRegions"`

	// Warnings is the total number of warnings.
	Warnings int `json:"warnings"`
}

// Result is the overall runner result.
type Result struct {
	// Files contains one outcome per planned job, in plan order.
	Files []FileOutcome

	// Stats contains aggregate statistics for the run.
	Stats Stats

	// DryRun records whether documents were left unwritten.
	DryRun bool
}

// Err returns the error of the first failed job in plan order, or nil.
func (r *Result) Err() error {
	if r == nil {
		return nil
	}
	for _, f := range r.Files {
		if f.Status == StatusFailed {
			return f.Error
		}
	}
	return nil
}

// Failed returns the first failed outcome in plan order, or nil.
func (r *Result) Failed() *FileOutcome {
	if r == nil {
		return nil
	}
	for i := range r.Files {
		if r.Files[i].Status == StatusFailed {
			return &r.Files[i]
		}
	}
	return nil
}

// Stale reports whether check mode found out-of-date documents.
func (r *Result) Stale() bool {
	return r != nil && r.Stats.Stale > 0
}

// HasWarnings reports whether any job produced warnings.
func (r *Result) HasWarnings() bool {
	return r != nil && r.Stats.Warnings > 0
}

// accumulate appends an outcome and updates the statistics.
func (r *Result) accumulate(outcome FileOutcome) {
	r.Files = append(r.Files, outcome)

	if outcome.Status == StatusSkipped {
		r.Stats.Skipped++
		return
	}

	r.Stats.Processed++
	r.Stats.Warnings += len(outcome.Warnings)

	switch outcome.Status {
	case StatusFailed:
		r.Stats.Failed++
		return
	case StatusWritten:
		r.Stats.Written++
	case StatusUnchanged:
		r.Stats.Unchanged++
	case StatusStale:
		r.Stats.Stale++
	case StatusDryRun, StatusSkipped:
	}

	r.Stats.DocBlocks += outcome.DocBlocks
	r.Stats.CodeRegions += outcome.CodeRegions
}
