package cli

import (
	"errors"

	"github.com/yaklabco/docgen/internal/configloader"
	"github.com/yaklabco/docgen/pkg/fsutil"
	"github.com/yaklabco/docgen/pkg/runner"
	"github.com/yaklabco/docgen/pkg/transcode"
)

// Exit codes for docgen.
const (
	// ExitSuccess indicates every document was generated.
	ExitSuccess = 0

	// ExitIOError indicates a source could not be read or a destination
	// could not be written.
	ExitIOError = 1

	// ExitTranscodeError indicates malformed comment markup in a source.
	ExitTranscodeError = 2

	// ExitStaleDocuments indicates --check found out-of-date documents.
	ExitStaleDocuments = 3

	// ExitInvalidUsage indicates invalid command-line usage.
	ExitInvalidUsage = 64

	// ExitConfigError indicates a configuration error.
	ExitConfigError = 65

	// ExitInternalError indicates an unexpected internal error.
	ExitInternalError = 70
)

var (
	// ErrUsage marks errors caused by how the command was invoked.
	ErrUsage = errors.New("invalid usage")

	// ErrStaleDocuments is returned by generate --check when a document
	// does not match its source.
	ErrStaleDocuments = errors.New("documents are out of date")
)

// ExitCodeFromError maps an error returned by a command to a process exit code.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *configloader.ValidationError

	switch {
	case errors.Is(err, ErrStaleDocuments):
		return ExitStaleDocuments
	case errors.Is(err, ErrUsage), errors.Is(err, runner.ErrDestinationConflict):
		return ExitInvalidUsage
	case errors.As(err, &validationErr):
		return ExitConfigError
	case errors.Is(err, transcode.ErrMalformedInput):
		return ExitTranscodeError
	case errors.Is(err, fsutil.ErrNotFound),
		errors.Is(err, fsutil.ErrNotWritable),
		errors.Is(err, fsutil.ErrPermissionDenied),
		errors.Is(err, fsutil.ErrIsDirectory):
		return ExitIOError
	default:
		return ExitInternalError
	}
}
