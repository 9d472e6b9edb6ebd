package markdown_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/docgen/pkg/markdown"
	"github.com/yaklabco/docgen/pkg/transcode"
)

func TestNew_Flavor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, markdown.FlavorGFM, markdown.New("gfm").Flavor())
	assert.Equal(t, markdown.FlavorCommonMark, markdown.New("commonmark").Flavor())
	assert.Equal(t, markdown.FlavorCommonMark, markdown.New("rst").Flavor())
}

func TestOutline(t *testing.T) {
	t.Parallel()

	content := "# Title\n\nSome *text*.\n\n## Next `step`\n```cpp\nint x;\nint y;\n```\n```\n```\n"

	outline, err := markdown.New(markdown.FlavorCommonMark).Outline(context.Background(), []byte(content))
	require.NoError(t, err)

	assert.Equal(t, []markdown.Heading{
		{Level: 1, Text: "Title", Line: 1},
		{Level: 2, Text: "Next step", Line: 5},
	}, outline.Headings)

	require.Len(t, outline.Fences, 2)
	assert.Equal(t, markdown.Fence{Info: "cpp", Line: 6, Lines: 2}, outline.Fences[0])
	assert.Equal(t, 0, outline.Fences[1].Lines)
}

func TestVerify_TranscodedOutput(t *testing.T) {
	t.Parallel()

	input := "int x;\n/**md\n * # Doc\n *\n * Prose.\n */\nint y;\n/**md\n * More.\n */\n"
	res, err := transcode.New(transcode.Options{FenceInfo: "cpp"}).Run(strings.NewReader(input))
	require.NoError(t, err)

	outline, warnings, err := markdown.New(markdown.FlavorGFM).Verify(context.Background(), []byte(res.Text), res.CodeRegions)
	require.NoError(t, err)

	assert.Empty(t, warnings)
	assert.Len(t, outline.Fences, res.CodeRegions)
	require.Len(t, outline.Headings, 1)
	assert.Equal(t, "Doc", outline.Headings[0].Text)
}

func TestVerify_FenceInsideProse(t *testing.T) {
	t.Parallel()

	// A fence written inside a doc block pushes the code out of its fence.
	input := "/**md\n * ```\n */\nint y;\n"
	res, err := transcode.New(transcode.Options{}).Run(strings.NewReader(input))
	require.NoError(t, err)

	_, warnings, err := markdown.New(markdown.FlavorCommonMark).Verify(context.Background(), []byte(res.Text), res.CodeRegions)
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "expected 1")
}

func TestVerify_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := markdown.New("").Verify(ctx, []byte("x"), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTML(t *testing.T) {
	t.Parallel()

	content := []byte("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n```go\nx := 1\n```\n")

	tests := []struct {
		flavor    string
		wantTable bool
	}{
		{flavor: markdown.FlavorCommonMark, wantTable: false},
		{flavor: markdown.FlavorGFM, wantTable: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.flavor, func(t *testing.T) {
			t.Parallel()

			out, err := markdown.New(testCase.flavor).HTML(context.Background(), content)
			require.NoError(t, err)

			html := string(out)
			assert.Contains(t, html, `<h1 id="title">Title</h1>`)
			assert.Contains(t, html, `<pre><code class="language-go">x := 1`)
			assert.Equal(t, testCase.wantTable, strings.Contains(html, "<table>"))
		})
	}
}
