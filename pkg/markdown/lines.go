package markdown

import (
	"sort"

	"github.com/yuin/goldmark/ast"
)

// lineIndex maps byte offsets to 1-indexed line numbers.
type lineIndex struct {
	starts []int
}

func newLineIndex(content []byte) *lineIndex {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' && i+1 < len(content) {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

// lineOf returns the line containing offset, or 0 for a negative offset.
func (x *lineIndex) lineOf(offset int) int {
	if offset < 0 {
		return 0
	}
	return sort.Search(len(x.starts), func(i int) bool { return x.starts[i] > offset })
}

// fenceLine returns the line of the opening fence of a code block, or 0 for
// an empty block without an info string. goldmark records only content
// lines, so the fence sits on the line before the first one.
func (x *lineIndex) fenceLine(node *ast.FencedCodeBlock) int {
	if node.Info != nil {
		return x.lineOf(node.Info.Segment.Start)
	}
	if start := blockStart(node); start >= 0 {
		return x.lineOf(start) - 1
	}
	return 0
}
