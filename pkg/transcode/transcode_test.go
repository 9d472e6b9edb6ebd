package transcode_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/docgen/pkg/transcode"
)

func TestTranscodeLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			name:  "empty input",
			lines: nil,
			want:  "",
		},
		{
			name: "code between blocks",
			lines: []string{
				"int x;\n",
				"/**md\n",
				" * Title\n",
				" */\n",
				"int y;\n",
			},
			want: "```\nint x;\n```\nTitle\n```\nint y;\n```\n",
		},
		{
			name: "first line opens a block",
			lines: []string{
				"/**md\n",
				" * # Heading\n",
				" *\n",
				" * Body text.\n",
				" */\n",
				"int main() {}\n",
			},
			want: "# Heading\n\nBody text.\n```\nint main() {}\n```\n",
		},
		{
			name: "trailing text on start marker",
			lines: []string{
				"/**md Intro\n",
				" */\n",
			},
			want: " Intro\n```\n```\n",
		},
		{
			name: "leading and trailing text on end marker",
			lines: []string{
				"/**md\n",
				" * last words */ int z;\n",
			},
			want: "last words \n```\n int z;\n```\n",
		},
		{
			name: "prefix without space",
			lines: []string{
				"/**md\n",
				" *tight\n",
				" */\n",
			},
			want: "tight\n```\n```\n",
		},
		{
			name: "unprefixed line inside block is copied verbatim",
			lines: []string{
				"/**md\n",
				"plain line\n",
				"  * indented star\n",
				" */\n",
			},
			want: "plain line\n  * indented star\n```\n```\n",
		},
		{
			name: "end marker outside a block is code",
			lines: []string{
				"a */ b\n",
			},
			want: "```\na */ b\n```\n",
		},
		{
			name: "ordinary comments stay in code",
			lines: []string{
				"/**\n",
				" * not markdown\n",
				" */\n",
			},
			want: "```\n/**\n * not markdown\n */\n```\n",
		},
		{
			name: "missing final newline",
			lines: []string{
				"int x;",
			},
			want: "```\nint x;\n```\n",
		},
		{
			name: "crlf terminators",
			lines: []string{
				"/**md\r\n",
				" * Title\r\n",
				" */\r\n",
				"int y;\r\n",
			},
			want: "Title\n```\nint y;\r\n```\n",
		},
		{
			name: "crlf kept on unprefixed doc lines",
			lines: []string{
				"/**md\r\n",
				" * Title\r\n",
				"plain\r\n",
				" */\r\n",
			},
			want: "Title\nplain\r\n```\n```\n",
		},
		{
			name: "end marker closes at first occurrence",
			lines: []string{
				"/**md\n",
				" * a */ b */\n",
			},
			want: "a \n```\n b */\n```\n",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got, err := transcode.TranscodeLines(testCase.lines)
			require.NoError(t, err)

			if diff := cmp.Diff(testCase.want, got); diff != "" {
				t.Errorf("TranscodeLines() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTranscode_NoMarkersWrapsInput(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"x\n",
		"line one\nline two\n\nline four\n",
		"/* C comment */\nint a = 1; // trailing\n",
		"\n\n\n",
	}

	for _, input := range inputs {
		got, err := transcode.Transcode(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, "```\n"+input+"```\n", got)
	}
}

func TestTranscode_SingleBlockHasNoFenceInside(t *testing.T) {
	t.Parallel()

	input := "/**md\n * one\n *\n * two\n */\n"

	got, err := transcode.Transcode(strings.NewReader(input))
	require.NoError(t, err)

	prose, code, found := strings.Cut(got, "```\n")
	require.True(t, found)
	assert.Equal(t, "one\n\ntwo\n", prose)
	assert.Equal(t, "```\n", code)
}

func TestTranscode_RepeatedStart(t *testing.T) {
	t.Parallel()

	input := "int a;\n/**md\n * text\n/**md\n */\n"

	got, err := transcode.Transcode(strings.NewReader(input))
	require.Error(t, err)
	assert.Empty(t, got)
	assert.ErrorIs(t, err, transcode.ErrMalformedInput)

	var malformed *transcode.MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 4, malformed.Line)
	assert.Equal(t, transcode.ReasonRepeatedStart, malformed.Reason)
	assert.Equal(t, "line 4: repeated comment start sequence", err.Error())
}

func TestTranscode_ConsecutiveStartsOnFirstLines(t *testing.T) {
	t.Parallel()

	_, err := transcode.TranscodeLines([]string{"/**md\n", "/**md\n"})

	var malformed *transcode.MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 2, malformed.Line)
}

// An unterminated block is rejected and reported at its opening marker.
func TestTranscode_UnterminatedBlock(t *testing.T) {
	t.Parallel()

	input := "int a;\nint b;\n/**md\n * never closed\n"

	_, err := transcode.Transcode(strings.NewReader(input))

	var malformed *transcode.MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 3, malformed.Line)
	assert.Equal(t, transcode.ReasonUnterminated, malformed.Reason)
}

func TestTranscode_Stable(t *testing.T) {
	t.Parallel()

	input := "#include <x.h>\n/**md\n * # Doc\n */\nint f();\n/**md More\n * text */\n"

	first, err := transcode.Transcode(strings.NewReader(input))
	require.NoError(t, err)
	second, err := transcode.Transcode(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestTranscoder_Concurrent(t *testing.T) {
	t.Parallel()

	tr := transcode.New(transcode.Options{})
	input := "a\n/**md\n * b\n */\nc\n"
	want := "```\na\n```\nb\n```\nc\n```\n"

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := tr.Run(strings.NewReader(input))
			if err == nil {
				results[i] = res.Text
			}
		}()
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestTranscoder_Run_Counts(t *testing.T) {
	t.Parallel()

	input := "a\n/**md\n * b\n */\nc\n/**md\n */\n"

	res, err := transcode.New(transcode.Options{}).Run(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 7, res.Lines)
	assert.Equal(t, 2, res.DocBlocks)
	assert.Equal(t, 3, res.CodeRegions)
}

func TestTranscoder_FenceInfo(t *testing.T) {
	t.Parallel()

	input := "int x;\n/**md\n * T\n */\nint y;\n"

	res, err := transcode.New(transcode.Options{FenceInfo: "cpp"}).Run(strings.NewReader(input))
	require.NoError(t, err)

	want := "```cpp\nint x;\n```\nT\n```cpp\nint y;\n```\n"
	if diff := cmp.Diff(want, res.Text); diff != "" {
		t.Errorf("Run() mismatch (-want +got):\n%s", diff)
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no-block-start", transcode.NoBlockStart.String())
	assert.Equal(t, "no-block", transcode.NoBlock.String())
	assert.Equal(t, "in-doc-block", transcode.InDocBlock.String())
	assert.Equal(t, "State(7)", transcode.State(7).String())
}
