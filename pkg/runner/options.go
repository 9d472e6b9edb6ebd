// Package runner drives a docgen run: it plans which source files become
// which documents, converts them, and aggregates the outcome.
package runner

import "github.com/yaklabco/docgen/pkg/config"

// Options controls a run.
type Options struct {
	// Paths are the user-specified sources (files or directories).
	// When non-empty they replace Config.Documents.
	Paths []string

	// WorkingDir is the base directory used to resolve relative paths.
	// If empty, the current process working directory is used.
	WorkingDir string

	// Config is the resolved configuration for this run.
	// Nil means config.NewConfig().
	Config *config.Config
}

// Job is one source file and the document generated from it.
type Job struct {
	Source string `json:"source"`
	Dest   string `json:"dest"`
}

func (o Options) config() *config.Config {
	if o.Config == nil {
		return config.NewConfig()
	}
	return o.Config
}

// jobs returns the worker count. Anything below one means one worker.
func (o Options) jobs() int {
	if n := o.config().Jobs; n > 1 {
		return n
	}
	return 1
}
