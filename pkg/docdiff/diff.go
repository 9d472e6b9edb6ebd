// Package docdiff computes line diffs between a document on disk and the
// content generated for it, rendered in unified diff format.
package docdiff

import (
	"fmt"
	"strings"
)

// Context is the number of unchanged lines shown around each change.
const Context = 3

// Op is the edit applied to one line.
type Op int

const (
	// Equal lines are present in both versions.
	Equal Op = iota
	// Insert lines are only present in the generated version.
	Insert
	// Delete lines are only present in the existing version.
	Delete
)

// Line is one line of an edit script, without its terminator.
type Line struct {
	Op   Op
	Text string
}

// Hunk is a run of changes with surrounding context.
// Starts are 1-indexed; a zero count means the hunk only adds or only removes.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []Line
}

// Diff describes how a document would change.
type Diff struct {
	// Path names the document in the diff header.
	Path string

	// Hunks lists the changed regions in document order.
	Hunks []Hunk

	// Added is the number of inserted lines.
	Added int

	// Removed is the number of deleted lines.
	Removed int
}

// Compute returns the diff from old to updated, or nil if they hold the
// same lines. A missing document is passed as nil old content.
func Compute(path string, old, updated []byte) *Diff {
	a, b := splitLines(old), splitLines(updated)

	script := editScript(a, b)

	d := &Diff{Path: path}
	for _, line := range script {
		switch line.Op {
		case Insert:
			d.Added++
		case Delete:
			d.Removed++
		case Equal:
		}
	}
	if d.Added == 0 && d.Removed == 0 {
		return nil
	}

	d.Hunks = group(script)
	return d
}

// String renders the diff in unified format.
func (d *Diff) String() string {
	if d == nil {
		return ""
	}

	path := strings.TrimPrefix(d.Path, "/")

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", path, path)
	for _, h := range d.Hunks {
		sb.WriteString(h.Header())
		sb.WriteByte('\n')
		for _, line := range h.Lines {
			sb.WriteString(line.Op.prefix())
			sb.WriteString(line.Text)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Header returns the "@@ -a,b +c,d @@" line of the hunk.
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldLines, h.NewStart, h.NewLines)
}

func (o Op) prefix() string {
	switch o {
	case Insert:
		return "+"
	case Delete:
		return "-"
	default:
		return " "
	}
}

// editScript returns a shortest edit script from a to b built from the
// longest common subsequence. Deletions are ordered before insertions.
func editScript(a, b []string) []Line {
	n, m := len(a), len(b)

	// lcs[i][j] is the LCS length of a[i:] and b[j:].
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	script := make([]Line, 0, max(n, m))
	i, j := 0, 0
	for i < n || j < m {
		switch {
		case i < n && j < m && a[i] == b[j]:
			script = append(script, Line{Op: Equal, Text: a[i]})
			i++
			j++
		case i < n && (j == m || lcs[i+1][j] >= lcs[i][j+1]):
			script = append(script, Line{Op: Delete, Text: a[i]})
			i++
		default:
			script = append(script, Line{Op: Insert, Text: b[j]})
			j++
		}
	}
	return script
}

// group splits an edit script into hunks. Changes separated by at most
// 2*Context equal lines share a hunk.
func group(script []Line) []Hunk {
	// oldPos[k] and newPos[k] count the lines consumed before script[k].
	oldPos := make([]int, len(script)+1)
	newPos := make([]int, len(script)+1)
	for k, line := range script {
		oldPos[k+1], newPos[k+1] = oldPos[k], newPos[k]
		if line.Op != Insert {
			oldPos[k+1]++
		}
		if line.Op != Delete {
			newPos[k+1]++
		}
	}

	var hunks []Hunk
	for k := 0; k < len(script); {
		if script[k].Op == Equal {
			k++
			continue
		}

		start := max(0, k-Context)
		end := k + 1
		for j := k + 1; j < len(script); j++ {
			if script[j].Op != Equal {
				end = j + 1
				continue
			}
			if j-end+1 > 2*Context {
				break
			}
		}
		stop := min(len(script), end+Context)

		h := Hunk{
			OldLines: oldPos[stop] - oldPos[start],
			NewLines: newPos[stop] - newPos[start],
			Lines:    script[start:stop],
		}
		h.OldStart = hunkStart(oldPos[start], h.OldLines)
		h.NewStart = hunkStart(newPos[start], h.NewLines)
		hunks = append(hunks, h)

		k = stop
	}
	return hunks
}

// hunkStart follows the unified format: an empty range names the line
// before it.
func hunkStart(consumed, count int) int {
	if count == 0 {
		return consumed
	}
	return consumed + 1
}

// splitLines splits content at '\n', dropping the empty tail after a final
// newline. A trailing '\r' stays part of its line.
func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	lines := strings.Split(string(content), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
