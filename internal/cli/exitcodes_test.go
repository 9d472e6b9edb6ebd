package cli_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yaklabco/docgen/internal/cli"
	"github.com/yaklabco/docgen/internal/configloader"
	"github.com/yaklabco/docgen/pkg/fsutil"
	"github.com/yaklabco/docgen/pkg/runner"
	"github.com/yaklabco/docgen/pkg/transcode"
)

func TestExitCodeFromError(t *testing.T) {
	t.Parallel()

	malformed := &transcode.MalformedInputError{Line: 3, Reason: transcode.ReasonRepeatedStart}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, cli.ExitSuccess},
		{"source not found", fmt.Errorf("read: %w", fsutil.ErrNotFound), cli.ExitIOError},
		{"destination not writable", fmt.Errorf("write: %w", fsutil.ErrNotWritable), cli.ExitIOError},
		{"permission denied", fsutil.ErrPermissionDenied, cli.ExitIOError},
		{"malformed input", &runner.SourceError{Path: "vm.cpp", Err: malformed}, cli.ExitTranscodeError},
		{"reported failure", &cli.ReportedError{Err: malformed}, cli.ExitTranscodeError},
		{"stale documents", &cli.ReportedError{Err: cli.ErrStaleDocuments}, cli.ExitStaleDocuments},
		{"usage", fmt.Errorf("%w: bad flag", cli.ErrUsage), cli.ExitInvalidUsage},
		{"destination conflict", fmt.Errorf("plan: %w", runner.ErrDestinationConflict), cli.ExitInvalidUsage},
		{
			"config validation",
			fmt.Errorf("load: %w", &configloader.ValidationError{Field: "flavor", Message: "bad"}),
			cli.ExitConfigError,
		},
		{"unknown", errors.New("boom"), cli.ExitInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cli.ExitCodeFromError(tt.err))
		})
	}
}

func TestIsReported(t *testing.T) {
	t.Parallel()

	assert.True(t, cli.IsReported(fmt.Errorf("wrapped: %w", &cli.ReportedError{Err: fsutil.ErrNotFound})))
	assert.False(t, cli.IsReported(fsutil.ErrNotFound))
	assert.False(t, cli.IsReported(nil))
}
