package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/yaklabco/docgen/internal/logging"
	"github.com/yaklabco/docgen/pkg/config"
	"github.com/yaklabco/docgen/pkg/docdiff"
	"github.com/yaklabco/docgen/pkg/fsutil"
	"github.com/yaklabco/docgen/pkg/langdetect"
	"github.com/yaklabco/docgen/pkg/markdown"
	"github.com/yaklabco/docgen/pkg/transcode"
)

// Runner converts planned jobs into documents.
type Runner struct{}

// New creates a Runner.
func New() *Runner {
	return &Runner{}
}

// Run plans the jobs for opts and processes them.
//
// With one worker (the default) processing halts at the first failure and
// later jobs are reported as skipped. With more workers, jobs already handed
// to a worker finish and the rest are skipped.
//
// Job failures are reported through Result.Err, not the returned error,
// which is reserved for planning failures and cancellation.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	jobs, err := Plan(ctx, opts)
	if err != nil {
		return nil, err
	}

	cfg := opts.config()
	logger := logging.FromContext(ctx)

	result := &Result{
		Files:  make([]FileOutcome, 0, len(jobs)),
		DryRun: cfg.DryRun || cfg.Check,
	}
	result.Stats.Planned = len(jobs)

	if len(jobs) == 0 {
		return result, nil
	}

	workers := min(opts.jobs(), len(jobs))
	logger.Debug("starting run", logging.FieldPlanned, len(jobs), logging.FieldJobs, workers)

	p := &processor{
		cfg: cfg,
		md:  markdown.New(string(cfg.Flavor)),
	}

	outcomes := make([]FileOutcome, len(jobs))
	for i, job := range jobs {
		outcomes[i] = FileOutcome{Job: job, Status: StatusSkipped}
	}

	if workers == 1 {
		p.runSequential(ctx, jobs, outcomes)
	} else {
		p.runParallel(ctx, jobs, outcomes, workers)
	}

	for _, outcome := range outcomes {
		result.accumulate(outcome)
	}

	logger.Debug("run finished",
		logging.FieldProcessed, result.Stats.Processed,
		logging.FieldWritten, result.Stats.Written,
		logging.FieldUnchanged, result.Stats.Unchanged,
		logging.FieldFailed, result.Stats.Failed,
	)

	if ctx.Err() != nil {
		return result, fmt.Errorf("run cancelled: %w", ctx.Err())
	}

	return result, nil
}

// processor converts one job at a time. It is safe for concurrent use.
type processor struct {
	cfg *config.Config
	md  *markdown.Processor
}

// runSequential processes jobs in order and stops at the first failure.
func (p *processor) runSequential(ctx context.Context, jobs []Job, outcomes []FileOutcome) {
	for i, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		outcomes[i] = p.process(ctx, job)
		if outcomes[i].Status == StatusFailed {
			return
		}
	}
}

// runParallel processes jobs on up to workers goroutines. A worker slot is
// taken before the failure check, so once a job has failed no later job
// starts and the rest keep their skipped outcome.
func (p *processor) runParallel(ctx context.Context, jobs []Job, outcomes []FileOutcome, workers int) {
	var failed atomic.Bool
	slots := make(chan struct{}, workers)
	group := new(errgroup.Group)

	for i, job := range jobs {
		slots <- struct{}{}
		if failed.Load() || ctx.Err() != nil {
			<-slots
			break
		}
		group.Go(func() error {
			defer func() { <-slots }()
			outcomes[i] = p.process(ctx, job)
			if outcomes[i].Status == StatusFailed {
				failed.Store(true)
			}
			return nil
		})
	}

	_ = group.Wait() // Workers report failures through outcomes.
}

func (p *processor) process(ctx context.Context, job Job) FileOutcome {
	logger := logging.FromContext(ctx).With(logging.FieldSource, job.Source)
	outcome := FileOutcome{Job: job}

	fail := func(err error) FileOutcome {
		outcome.Status = StatusFailed
		outcome.Error = err

		var malformed *transcode.MalformedInputError
		if errors.As(err, &malformed) {
			logger.Debug("conversion failed", logging.FieldLine, malformed.Line, logging.FieldError, malformed.Reason)
		} else {
			logger.Debug("conversion failed", logging.FieldError, err)
		}
		return outcome
	}

	content, _, err := fsutil.ReadFile(ctx, job.Source)
	if err != nil {
		return fail(err)
	}

	if p.cfg.FenceLanguage {
		outcome.Language = langdetect.FenceInfo(job.Source, content)
		logger.Debug("detected language", logging.FieldLanguage, outcome.Language)
	}

	res, err := transcode.New(transcode.Options{FenceInfo: outcome.Language}).Run(bytes.NewReader(content))
	if err != nil {
		return fail(&SourceError{Path: job.Source, Err: err})
	}
	outcome.Lines = res.Lines
	outcome.DocBlocks = res.DocBlocks
	outcome.CodeRegions = res.CodeRegions

	doc := []byte(res.Text)

	if p.cfg.Verify {
		outline, warnings, verr := p.md.Verify(ctx, doc, res.CodeRegions)
		if verr != nil {
			return fail(verr)
		}
		outcome.Outline = outline
		outcome.Warnings = append(outcome.Warnings, warnings...)
	}

	var html []byte
	if p.cfg.HTML {
		html, err = p.md.HTML(ctx, doc)
		if err != nil {
			return fail(err)
		}
		outcome.HTML = HTMLPath(job.Dest)
	}

	existing, found, err := readExisting(ctx, job.Dest)
	if err != nil {
		return fail(err)
	}
	if p.cfg.Diff {
		outcome.Diff = docdiff.Compute(job.Dest, existing, doc)
	}
	upToDate := found && bytes.Equal(existing, doc)

	switch {
	case p.cfg.Check && upToDate:
		outcome.Status = StatusUnchanged
		return outcome
	case p.cfg.Check:
		outcome.Status = StatusStale
		logger.Debug("document is stale", logging.FieldDest, job.Dest)
		return outcome
	case p.cfg.DryRun:
		outcome.Status = StatusDryRun
		return outcome
	}

	changed := !upToDate
	if changed {
		if err := p.write(ctx, &outcome, doc, found); err != nil {
			return fail(err)
		}
	}

	if html != nil {
		if _, err := fsutil.WriteAtomicIfChanged(ctx, outcome.HTML, html, fsutil.DefaultFileMode); err != nil {
			return fail(err)
		}
	}

	if changed {
		outcome.Status = StatusWritten
		logger.Debug("wrote document", logging.FieldDest, job.Dest)
	} else {
		outcome.Status = StatusUnchanged
	}

	return outcome
}

// write replaces the destination, backing up an existing one first when
// backups are enabled.
func (p *processor) write(ctx context.Context, outcome *FileOutcome, doc []byte, exists bool) error {
	if exists {
		backup := fsutil.BackupConfig{
			Enabled: p.cfg.Backups.Enabled && !p.cfg.NoBackups,
			Mode:    fsutil.BackupMode(p.cfg.Backups.Mode),
		}
		created, err := fsutil.CreateBackup(ctx, outcome.Dest, backup)
		if err != nil {
			return err
		}
		if created {
			outcome.Backup = fsutil.BackupPath(outcome.Dest, backup.Mode)
		}
	}

	return fsutil.WriteAtomic(ctx, outcome.Dest, doc, fsutil.DefaultFileMode)
}

// readExisting returns the current destination content. A missing
// destination is not an error. Any other failure means the destination
// cannot be replaced, such as a directory in its place.
func readExisting(ctx context.Context, dest string) ([]byte, bool, error) {
	content, _, err := fsutil.ReadFile(ctx, dest)
	switch {
	case err == nil:
		return content, true, nil
	case errors.Is(err, fsutil.ErrNotFound):
		return nil, false, nil
	case ctx.Err() != nil:
		return nil, false, err
	default:
		return nil, false, fmt.Errorf("%w: %w", fsutil.ErrNotWritable, err)
	}
}

// HTMLPath returns the path the HTML rendering of dest is written to.
func HTMLPath(dest string) string {
	return strings.TrimSuffix(dest, filepath.Ext(dest)) + markdown.HTMLExt
}

// SourceError attaches the source path to a conversion error.
type SourceError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error {
	return e.Err
}
