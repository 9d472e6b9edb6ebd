package runner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/yaklabco/docgen/pkg/config"
)

// ErrDestinationConflict is returned by Plan when two sources would be
// written to the same document.
var ErrDestinationConflict = errors.New("destination conflict")

// Plan builds the ordered job list for a run.
//
// Command-line paths take precedence over configured documents. A path
// naming a directory is walked in lexical order, keeping files with one of
// the configured extensions, skipping hidden entries and ignore matches;
// its documents mirror the directory layout below the destination
// directory. A path that does not exist is still planned, so the run
// reports it as not found.
//
// Jobs are deduplicated by source and keep input order.
func Plan(ctx context.Context, opts Options) ([]Job, error) {
	workDir, err := resolveWorkDir(opts.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	cfg := opts.config()
	destDir := absFrom(workDir, cfg.DestDir)

	p := &planner{
		seen:  make(map[string]struct{}),
		dests: make(map[string]string),
	}

	if len(opts.Paths) == 0 {
		for _, doc := range cfg.Documents {
			job := Job{
				Source: absFrom(workDir, cfg.SourceFor(doc)),
				Dest:   absFrom(workDir, cfg.DestFor(doc)),
			}
			if err := p.add(job); err != nil {
				return nil, err
			}
		}
		return p.jobs, nil
	}

	ignore, err := compileGlobs(cfg.Ignore)
	if err != nil {
		return nil, err
	}

	for _, inputPath := range opts.Paths {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("planning cancelled: %w", ctx.Err())
		default:
		}

		absPath := filepath.Clean(absFrom(workDir, inputPath))

		info, statErr := os.Stat(absPath)
		if statErr != nil || !info.IsDir() {
			job := Job{Source: absPath, Dest: config.DefaultDest(destDir, absPath)}
			if err := p.add(job); err != nil {
				return nil, err
			}
			continue
		}

		w := walker{
			root:       absPath,
			workDir:    workDir,
			destDir:    destDir,
			extensions: cfg.Extensions,
			ignore:     ignore,
		}
		if err := w.walk(ctx, p); err != nil {
			return nil, err
		}
	}

	return p.jobs, nil
}

type planner struct {
	jobs  []Job
	seen  map[string]struct{}
	dests map[string]string
}

func (p *planner) add(job Job) error {
	if _, ok := p.seen[job.Source]; ok {
		return nil
	}

	dest := filepath.Clean(job.Dest)
	if other, ok := p.dests[dest]; ok {
		return fmt.Errorf("%w: %s and %s both generate %s", ErrDestinationConflict, other, job.Source, dest)
	}

	p.seen[job.Source] = struct{}{}
	p.dests[dest] = job.Source
	p.jobs = append(p.jobs, job)
	return nil
}

type walker struct {
	root       string
	workDir    string
	destDir    string
	extensions []string
	ignore     []glob.Glob
}

func (w walker) walk(ctx context.Context, p *planner) error {
	err := filepath.WalkDir(w.root, func(path string, entry fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			if os.IsPermission(walkErr) {
				return nil
			}
			return walkErr
		}

		if path == w.root {
			return nil
		}

		if strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		candidates := []string{relOrAbs(w.workDir, path), relOrAbs(w.root, path)}

		if entry.IsDir() {
			if matchesAny(w.ignore, true, candidates...) {
				return filepath.SkipDir
			}
			return nil
		}

		// Directory symlinks are not followed; WalkDir reports them as files.
		if entry.Type()&fs.ModeSymlink != 0 {
			info, statErr := os.Stat(path)
			if statErr != nil || info.IsDir() {
				return nil //nolint:nilerr // Broken or directory symlinks are skipped.
			}
		}

		if !hasMatchingExtension(path, w.extensions) || matchesAny(w.ignore, false, candidates...) {
			return nil
		}

		sub := filepath.Dir(relOrAbs(w.root, path))
		return p.add(Job{
			Source: path,
			Dest:   config.DefaultDest(filepath.Join(w.destDir, sub), path),
		})
	})
	if err != nil {
		return fmt.Errorf("walk directory %s: %w", w.root, err)
	}

	return nil
}

// resolveWorkDir resolves the working directory, defaulting to os.Getwd().
func resolveWorkDir(workDir string) (string, error) {
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		return wd, nil
	}
	absPath, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	return absPath, nil
}

func absFrom(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func relOrAbs(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}

func hasMatchingExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// compileGlobs compiles ignore patterns with '/' as the separator, so "*"
// stays within one path element and "**" crosses elements.
func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(filepath.ToSlash(pattern), '/')
		if err != nil {
			return nil, fmt.Errorf("compile ignore pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// matchesAny reports whether any of the relative paths, or their base name,
// matches a pattern. Directories also match patterns of the form "dir/**".
func matchesAny(globs []glob.Glob, isDir bool, relPaths ...string) bool {
	for _, g := range globs {
		for _, rel := range relPaths {
			path := filepath.ToSlash(rel)
			if g.Match(path) || g.Match(filepath.Base(rel)) {
				return true
			}
			if isDir && g.Match(path+"/") {
				return true
			}
		}
	}
	return false
}
