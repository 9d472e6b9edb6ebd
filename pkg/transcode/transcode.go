// Package transcode converts source files carrying /**md comment blocks into
// Markdown. Comment block text becomes prose and everything between blocks is
// wrapped in fenced code blocks.
//
// The conversion is a single forward pass over the input lines. It keeps no
// state between calls, so a Transcoder may be shared by concurrent callers.
package transcode

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Fence is the token that opens and closes a fenced code region.
const Fence = "```"

// Marker patterns. They are matched against a line with its terminator removed.
//
//nolint:gochecknoglobals // Compiled once, read-only.
var (
	blockStart      = regexp.MustCompile(`^/\*\*md(.*)$`)
	blockEnd        = regexp.MustCompile(`^(.*?)\*/(.*)$`)
	prefixed        = regexp.MustCompile(`^ \* (.*)$`)
	prefixedNoSpace = regexp.MustCompile(`^ \*(.*)$`)
)

// State is the scanner position relative to comment blocks.
type State int

const (
	// NoBlockStart holds only until the first line has been seen.
	NoBlockStart State = iota
	// NoBlock means code is being copied into an open fence.
	NoBlock
	// InDocBlock means comment block text is being extracted as prose.
	InDocBlock
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case NoBlockStart:
		return "no-block-start"
	case NoBlock:
		return "no-block"
	case InDocBlock:
		return "in-doc-block"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures a Transcoder.
type Options struct {
	// FenceInfo is appended to every opening fence (e.g. "cpp").
	// Empty keeps the bare fence token. Closing fences are always bare.
	FenceInfo string
}

// Result is the outcome of a successful conversion.
type Result struct {
	// Text is the generated Markdown.
	Text string

	// Lines is the number of input lines consumed.
	Lines int

	// DocBlocks is the number of comment blocks extracted.
	DocBlocks int

	// CodeRegions is the number of fenced code regions opened.
	CodeRegions int
}

// Transcoder converts marked-up source into Markdown.
type Transcoder struct {
	opts Options
}

// New creates a Transcoder with the given options.
func New(opts Options) *Transcoder {
	return &Transcoder{opts: opts}
}

// Transcode converts r with default options and returns the Markdown text.
func Transcode(r io.Reader) (string, error) {
	res, err := New(Options{}).Run(r)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// TranscodeLines converts an in-memory sequence of lines. Each line should
// carry its own terminator, as a line reader would return it.
func TranscodeLines(lines []string) (string, error) {
	return Transcode(strings.NewReader(strings.Join(lines, "")))
}

// Run consumes r line by line until EOF.
// On failure no partial output is returned.
func (t *Transcoder) Run(r io.Reader) (*Result, error) {
	sc := &scan{
		state:     NoBlockStart,
		openFence: Fence + t.opts.FenceInfo + "\n",
	}

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if stepErr := sc.step(line); stepErr != nil {
				return nil, stepErr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", sc.line+1, err)
		}
	}

	if err := sc.finish(); err != nil {
		return nil, err
	}

	return &Result{
		Text:        sc.out.String(),
		Lines:       sc.line,
		DocBlocks:   sc.docBlocks,
		CodeRegions: sc.codeRegions,
	}, nil
}

// scan holds the per-call mutable state.
type scan struct {
	state       State
	out         strings.Builder
	openFence   string
	line        int
	blockLine   int
	docBlocks   int
	codeRegions int
}

func (s *scan) step(line string) error {
	s.line++
	body := trimEOL(line)

	if s.state == NoBlockStart {
		if m := blockStart.FindStringSubmatch(body); m != nil {
			s.openBlock(m[1])
			return nil
		}
		s.openCode()
	}

	switch s.state {
	case NoBlock:
		if m := blockStart.FindStringSubmatch(body); m != nil {
			s.out.WriteString(Fence + "\n")
			s.openBlock(m[1])
			return nil
		}
		s.out.WriteString(line)

	case InDocBlock:
		if blockStart.MatchString(body) {
			return &MalformedInputError{Line: s.line, Reason: ReasonRepeatedStart}
		}
		if m := blockEnd.FindStringSubmatch(body); m != nil {
			s.closeBlock(m[1], m[2])
			return nil
		}
		if m := prefixed.FindStringSubmatch(body); m != nil {
			s.writeLine(m[1])
			return nil
		}
		if m := prefixedNoSpace.FindStringSubmatch(body); m != nil {
			s.writeLine(m[1])
			return nil
		}
		s.out.WriteString(line)

	case NoBlockStart:
		// Unreachable: resolved above.
	}

	return nil
}

func (s *scan) openBlock(trailing string) {
	s.state = InDocBlock
	s.blockLine = s.line
	s.docBlocks++
	if trailing != "" {
		s.writeLine(trailing)
	}
}

func (s *scan) closeBlock(leading, trailing string) {
	leading = stripPrefix(leading)
	if strings.TrimSpace(leading) != "" {
		s.writeLine(leading)
	}
	s.openCode()
	if trailing != "" {
		s.writeLine(trailing)
	}
}

func (s *scan) openCode() {
	s.state = NoBlock
	s.codeRegions++
	s.out.WriteString(s.openFence)
}

func (s *scan) writeLine(text string) {
	s.out.WriteString(text)
	s.out.WriteByte('\n')
}

func (s *scan) finish() error {
	switch s.state {
	case NoBlock:
		text := s.out.String()
		if text != "" && !strings.HasSuffix(text, "\n") {
			s.out.WriteByte('\n')
		}
		s.out.WriteString(Fence + "\n")
	case InDocBlock:
		return &MalformedInputError{Line: s.blockLine, Reason: ReasonUnterminated}
	case NoBlockStart:
		// Empty input produces empty output.
	}
	return nil
}

// stripPrefix removes a leading " * " or " *" from the text before a block end.
func stripPrefix(text string) string {
	if m := prefixed.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := prefixedNoSpace.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
