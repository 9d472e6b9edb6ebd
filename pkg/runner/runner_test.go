package runner_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/docgen/pkg/config"
	"github.com/yaklabco/docgen/pkg/fsutil"
	"github.com/yaklabco/docgen/pkg/runner"
	"github.com/yaklabco/docgen/pkg/transcode"
)

const vmSource = `#include "vm.h"
/**md
 * # Virtual machine
 *
 * Executes bytecode.
 */
int run() { return 0; }
`

const vmDoc = "```\n#include \"vm.h\"\n```\n# Virtual machine\n\nExecutes bytecode.\n```\nint run() { return 0; }\n```\n"

// project writes sources under dir/src and returns a config listing them.
func project(t *testing.T, dir string, sources map[string]string, order ...string) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.SourceDir = filepath.Join(dir, "src")
	cfg.DestDir = filepath.Join(dir, "doc")
	for name, content := range sources {
		writeFile(t, filepath.Join(dir, "src", name), content)
	}
	for _, name := range order {
		cfg.Documents = append(cfg.Documents, config.Document{Source: name})
	}
	return cfg
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunner_Run_WritesDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := project(t, dir, map[string]string{"vm.cpp": vmSource}, "vm.cpp")

	result, err := runner.New().Run(context.Background(), runner.Options{WorkingDir: dir, Config: cfg})
	require.NoError(t, err)
	require.NoError(t, result.Err())

	assert.Equal(t, vmDoc, readFile(t, filepath.Join(dir, "doc", "vm.md")))

	require.Len(t, result.Files, 1)
	outcome := result.Files[0]
	assert.Equal(t, runner.StatusWritten, outcome.Status)
	assert.Equal(t, 7, outcome.Lines)
	assert.Equal(t, 1, outcome.DocBlocks)
	assert.Equal(t, 2, outcome.CodeRegions)

	assert.Equal(t, runner.Stats{
		Planned:     1,
		Processed:   1,
		Written:     1,
		DocBlocks:   1,
		CodeRegions: 2,
	}, result.Stats)
}

func TestRunner_Run_SecondRunIsUnchanged(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := project(t, dir, map[string]string{"vm.cpp": vmSource}, "vm.cpp")
	opts := runner.Options{WorkingDir: dir, Config: cfg}

	_, err := runner.New().Run(context.Background(), opts)
	require.NoError(t, err)

	result, err := runner.New().Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, runner.StatusUnchanged, result.Files[0].Status)
	assert.Equal(t, 1, result.Stats.Unchanged)
	assert.Equal(t, 0, result.Stats.Written)
}

func TestRunner_Run_HaltsOnMissingSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := project(t, dir, map[string]string{
		"a.cpp": vmSource,
		"c.cpp": vmSource,
	}, "a.cpp", "missing.cpp", "c.cpp")

	result, err := runner.New().Run(context.Background(), runner.Options{WorkingDir: dir, Config: cfg})
	require.NoError(t, err)

	require.Len(t, result.Files, 3)
	assert.Equal(t, runner.StatusWritten, result.Files[0].Status)
	assert.Equal(t, runner.StatusFailed, result.Files[1].Status)
	assert.Equal(t, runner.StatusSkipped, result.Files[2].Status)

	require.ErrorIs(t, result.Err(), fsutil.ErrNotFound)
	assert.Equal(t, filepath.Join(dir, "src", "missing.cpp"), result.Failed().Source)

	assert.FileExists(t, filepath.Join(dir, "doc", "a.md"))
	assert.NoFileExists(t, filepath.Join(dir, "doc", "c.md"))

	assert.Equal(t, 1, result.Stats.Failed)
	assert.Equal(t, 1, result.Stats.Skipped)
	assert.Equal(t, 2, result.Stats.Processed)
}

func TestRunner_Run_FirstJobFailureStopsSequentialRun(t *testing.T) {
	t.Parallel()

	for i := range 25 {
		dir := t.TempDir()
		cfg := project(t, dir, map[string]string{
			"a.cpp": vmSource,
			"c.cpp": vmSource,
		}, "missing.cpp", "a.cpp", "c.cpp")

		result, err := runner.New().Run(context.Background(), runner.Options{WorkingDir: dir, Config: cfg})
		require.NoError(t, err)

		require.Len(t, result.Files, 3)
		assert.Equal(t, runner.StatusFailed, result.Files[0].Status, "run %d", i)
		assert.Equal(t, runner.StatusSkipped, result.Files[1].Status, "run %d", i)
		assert.Equal(t, runner.StatusSkipped, result.Files[2].Status, "run %d", i)
		assert.Equal(t, 1, result.Stats.Processed, "run %d", i)
		assert.NoDirExists(t, filepath.Join(dir, "doc"), "run %d", i)
	}
}

func TestRunner_Run_MalformedInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := project(t, dir, map[string]string{
		"bad.cpp": "int a;\n/**md\n * x\n/**md\n */\n",
	}, "bad.cpp")

	result, err := runner.New().Run(context.Background(), runner.Options{WorkingDir: dir, Config: cfg})
	require.NoError(t, err)

	runErr := result.Err()
	require.ErrorIs(t, runErr, transcode.ErrMalformedInput)

	var malformed *transcode.MalformedInputError
	require.ErrorAs(t, runErr, &malformed)
	assert.Equal(t, 4, malformed.Line)

	var srcErr *runner.SourceError
	require.ErrorAs(t, runErr, &srcErr)
	assert.Equal(t, filepath.Join(dir, "src", "bad.cpp"), srcErr.Path)
	assert.True(t, strings.HasSuffix(runErr.Error(), "bad.cpp: line 4: repeated comment start sequence"))

	assert.NoFileExists(t, filepath.Join(dir, "doc", "bad.md"))
}

func TestRunner_Run_DestinationNotWritable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := project(t, dir, map[string]string{"vm.cpp": vmSource}, "vm.cpp")
	// A regular file where the destination directory should be.
	writeFile(t, filepath.Join(dir, "doc"), "")

	result, err := runner.New().Run(context.Background(), runner.Options{WorkingDir: dir, Config: cfg})
	require.NoError(t, err)
	require.ErrorIs(t, result.Err(), fsutil.ErrNotWritable)
}

func TestRunner_Run_DestinationIsDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := project(t, dir, map[string]string{"vm.cpp": vmSource}, "vm.cpp")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "doc", "vm.md"), 0o755))

	result, err := runner.New().Run(context.Background(), runner.Options{WorkingDir: dir, Config: cfg})
	require.NoError(t, err)
	require.ErrorIs(t, result.Err(), fsutil.ErrNotWritable)
}

func TestRunner_Run_DryRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := project(t, dir, map[string]string{"vm.cpp": vmSource}, "vm.cpp")
	cfg.DryRun = true

	result, err := runner.New().Run(context.Background(), runner.Options{WorkingDir: dir, Config: cfg})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, runner.StatusDryRun, result.Files[0].Status)
	assert.NoDirExists(t, filepath.Join(dir, "doc"))
}

func TestRunner_Run_LanguageVerifyAndHTML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := project(t, dir, map[string]string{"vm.cpp": vmSource}, "vm.cpp")
	cfg.FenceLanguage = true
	cfg.Verify = true
	cfg.HTML = true
	cfg.Flavor = config.FlavorGFM

	result, err := runner.New().Run(context.Background(), runner.Options{WorkingDir: dir, Config: cfg})
	require.NoError(t, err)
	require.NoError(t, result.Err())

	outcome := result.Files[0]
	assert.Equal(t, "cpp", outcome.Language)
	assert.Empty(t, outcome.Warnings)
	require.NotNil(t, outcome.Outline)
	assert.Len(t, outcome.Outline.Fences, 2)

	doc := readFile(t, filepath.Join(dir, "doc", "vm.md"))
	assert.True(t, strings.HasPrefix(doc, "```cpp\n"))

	htmlPath := filepath.Join(dir, "doc", "vm.html")
	assert.Equal(t, htmlPath, outcome.HTML)
	assert.Contains(t, readFile(t, htmlPath), "<h1 id=\"virtual-machine\">Virtual machine</h1>")
}

func TestRunner_Run_VerifyWarning(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := project(t, dir, map[string]string{"odd.c": "/**md\n * ```\n */\nint y;\n"}, "odd.c")
	cfg.Verify = true

	result, err := runner.New().Run(context.Background(), runner.Options{WorkingDir: dir, Config: cfg})
	require.NoError(t, err)
	require.NoError(t, result.Err())

	assert.True(t, result.HasWarnings())
	assert.Len(t, result.Files[0].Warnings, 1)
}

func TestRunner_Run_Backups(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := project(t, dir, map[string]string{"vm.cpp": vmSource}, "vm.cpp")
	cfg.Backups.Enabled = true
	dest := filepath.Join(dir, "doc", "vm.md")
	writeFile(t, dest, "old\n")

	result, err := runner.New().Run(context.Background(), runner.Options{WorkingDir: dir, Config: cfg})
	require.NoError(t, err)

	backup := dest + fsutil.BackupSuffix
	assert.Equal(t, backup, result.Files[0].Backup)
	assert.Equal(t, "old\n", readFile(t, backup))
	assert.Equal(t, vmDoc, readFile(t, dest))
}

func TestRunner_Run_NoBackupsOverridesConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := project(t, dir, map[string]string{"vm.cpp": vmSource}, "vm.cpp")
	cfg.Backups.Enabled = true
	cfg.NoBackups = true
	dest := filepath.Join(dir, "doc", "vm.md")
	writeFile(t, dest, "old\n")

	result, err := runner.New().Run(context.Background(), runner.Options{WorkingDir: dir, Config: cfg})
	require.NoError(t, err)

	assert.Empty(t, result.Files[0].Backup)
	assert.NoFileExists(t, dest+fsutil.BackupSuffix)
}

func TestRunner_Run_ParallelKeepsPlanOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sources := make(map[string]string)
	var order []string
	for i := range 12 {
		name := fmt.Sprintf("f%02d.c", i)
		sources[name] = fmt.Sprintf("int v%d;\n/**md\n * File %d\n */\n", i, i)
		order = append(order, name)
	}
	cfg := project(t, dir, sources, order...)
	cfg.Jobs = 4

	result, err := runner.New().Run(context.Background(), runner.Options{WorkingDir: dir, Config: cfg})
	require.NoError(t, err)
	require.NoError(t, result.Err())

	require.Len(t, result.Files, len(order))
	for i, outcome := range result.Files {
		assert.Equal(t, order[i], filepath.Base(outcome.Source))
		assert.Equal(t, runner.StatusWritten, outcome.Status)
	}
	assert.Equal(t, 12, result.Stats.Written)
}

func TestRunner_Run_ParallelStopsStartingAfterFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sources := map[string]string{"a.c": "/**md\n"}
	order := []string{"a.c"}
	for i := range 20 {
		name := fmt.Sprintf("f%02d.c", i)
		sources[name] = "int x;\n"
		order = append(order, name)
	}
	cfg := project(t, dir, sources, order...)
	cfg.Jobs = 2

	result, err := runner.New().Run(context.Background(), runner.Options{WorkingDir: dir, Config: cfg})
	require.NoError(t, err)

	require.ErrorIs(t, result.Err(), transcode.ErrMalformedInput)
	assert.Equal(t, "a.c", filepath.Base(result.Failed().Source))
	assert.Equal(t, result.Stats.Planned, result.Stats.Processed+result.Stats.Skipped)
	assert.Equal(t, 1, result.Stats.Failed)

	// Nothing is started once the failure is seen.
	sawSkip := false
	for _, outcome := range result.Files {
		if outcome.Status == runner.StatusSkipped {
			sawSkip = true
			continue
		}
		assert.False(t, sawSkip, "%s started after a skipped job", outcome.Source)
	}
}

func TestRunner_Run_Cancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := project(t, dir, map[string]string{"vm.cpp": vmSource}, "vm.cpp")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := runner.New().Run(ctx, runner.Options{WorkingDir: dir, Config: cfg})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Stats.Skipped)
}

func TestRunner_Run_NothingPlanned(t *testing.T) {
	t.Parallel()

	result, err := runner.New().Run(context.Background(), runner.Options{WorkingDir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, result.Files)
	assert.NoError(t, result.Err())
}

func TestHTMLPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "doc/vm.html", runner.HTMLPath("doc/vm.md"))
	assert.Equal(t, "doc/README.html", runner.HTMLPath("doc/README"))
}

func TestRunner_Run_Check(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := project(t, dir, map[string]string{
		"vm.cpp":    vmSource,
		"lexer.cpp": "int next();\n",
		"new.cpp":   "int fresh;\n",
	}, "vm.cpp", "lexer.cpp", "new.cpp")
	writeFile(t, filepath.Join(dir, "doc", "vm.md"), vmDoc)
	writeFile(t, filepath.Join(dir, "doc", "lexer.md"), "outdated\n")
	cfg.Check = true

	result, err := runner.New().Run(context.Background(), runner.Options{WorkingDir: dir, Config: cfg})
	require.NoError(t, err)
	require.NoError(t, result.Err())

	assert.True(t, result.DryRun)
	assert.True(t, result.Stale())
	assert.Equal(t, runner.StatusUnchanged, result.Files[0].Status)
	assert.Equal(t, runner.StatusStale, result.Files[1].Status)
	assert.Equal(t, runner.StatusStale, result.Files[2].Status)
	assert.Equal(t, 2, result.Stats.Stale)

	assert.Equal(t, "outdated\n", readFile(t, filepath.Join(dir, "doc", "lexer.md")))
	assert.NoFileExists(t, filepath.Join(dir, "doc", "new.md"))
}

func TestRunner_Run_Diff(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := project(t, dir, map[string]string{"lexer.cpp": "int next();\n"}, "lexer.cpp")
	dest := filepath.Join(dir, "doc", "lexer.md")
	writeFile(t, dest, "```\nint prev();\n```\n")
	cfg.Diff = true

	result, err := runner.New().Run(context.Background(), runner.Options{WorkingDir: dir, Config: cfg})
	require.NoError(t, err)
	require.NoError(t, result.Err())

	outcome := result.Files[0]
	assert.Equal(t, runner.StatusWritten, outcome.Status)
	require.NotNil(t, outcome.Diff)
	assert.Equal(t, 1, outcome.Diff.Added)
	assert.Equal(t, 1, outcome.Diff.Removed)
	assert.Contains(t, outcome.Diff.String(), "-int prev();\n+int next();\n")

	// Nothing left to change on the second run.
	again, err := runner.New().Run(context.Background(), runner.Options{WorkingDir: dir, Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, runner.StatusUnchanged, again.Files[0].Status)
	assert.Nil(t, again.Files[0].Diff)
}
