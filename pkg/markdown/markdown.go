// Package markdown post-processes generated documents with goldmark: it
// checks that the fenced code regions survive a real Markdown parse and
// renders documents to HTML.
package markdown

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Supported flavors.
const (
	FlavorCommonMark = "commonmark"
	FlavorGFM        = "gfm"
)

// HTMLExt is the extension of rendered documents.
const HTMLExt = ".html"

// Heading is a section title found in a document.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	Line  int    `json:"line"`
}

// Fence is a fenced code block found in a document.
type Fence struct {
	Info  string `json:"info,omitempty"`
	Line  int    `json:"line"`
	Lines int    `json:"lines"`
}

// Outline is the structure goldmark sees in a document.
type Outline struct {
	Headings []Heading `json:"headings,omitempty"`
	Fences   []Fence   `json:"fences,omitempty"`
}

// Processor parses and renders Markdown for one flavor.
// It is safe for concurrent use.
type Processor struct {
	flavor string
	md     goldmark.Markdown
}

// New creates a Processor for the given flavor.
// Invalid flavors default to "commonmark".
func New(flavor string) *Processor {
	f := flavorOrDefault(flavor)
	return &Processor{
		flavor: f,
		md:     newGoldmarkInstance(f),
	}
}

// Flavor returns the configured Markdown flavor.
func (p *Processor) Flavor() string {
	return p.flavor
}

// Outline parses content and lists its headings and fenced code blocks.
func (p *Processor) Outline(ctx context.Context, content []byte) (*Outline, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse cancelled: %w", err)
	}

	doc := p.md.Parser().Parse(text.NewReader(content), parser.WithContext(parser.NewContext()))
	lines := newLineIndex(content)
	out := &Outline{}

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			out.Headings = append(out.Headings, Heading{
				Level: node.Level,
				Text:  plainText(node, content),
				Line:  lines.lineOf(blockStart(node)),
			})
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			fence := Fence{
				Line:  lines.fenceLine(node),
				Lines: node.Lines().Len(),
			}
			if node.Info != nil {
				fence.Info = string(node.Info.Value(content))
			}
			out.Fences = append(out.Fences, fence)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk document: %w", err)
	}

	return out, nil
}

// Verify parses content and compares the number of fenced code blocks with
// the number of code regions the document was generated with. A difference
// means prose or code contained fence-like lines that changed the document
// structure. The returned warnings are empty when the counts agree.
func (p *Processor) Verify(ctx context.Context, content []byte, codeRegions int) (*Outline, []string, error) {
	outline, err := p.Outline(ctx, content)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	if got := len(outline.Fences); got != codeRegions {
		warnings = append(warnings, fmt.Sprintf(
			"%s parser found %d fenced code blocks, expected %d", p.flavor, got, codeRegions))
	}

	return outline, warnings, nil
}

// HTML renders content to an HTML fragment.
func (p *Processor) HTML(ctx context.Context, content []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render cancelled: %w", err)
	}

	var buf bytes.Buffer
	if err := p.md.Convert(content, &buf); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

func flavorOrDefault(flavor string) string {
	switch flavor {
	case FlavorCommonMark, FlavorGFM:
		return flavor
	default:
		return FlavorCommonMark
	}
}

//nolint:ireturn // goldmark.Markdown is an external interface type
func newGoldmarkInstance(flavor string) goldmark.Markdown {
	var opts []goldmark.Option

	switch flavor {
	case FlavorGFM:
		opts = append(opts, goldmark.WithExtensions(extension.GFM))
	case FlavorCommonMark:
		// No extensions for pure CommonMark.
	}

	opts = append(opts, goldmark.WithParserOptions(parser.WithAutoHeadingID()))

	return goldmark.New(opts...)
}

// plainText concatenates the text segments below n.
func plainText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(plainText(c, source))
		}
	}
	return buf.String()
}

// blockStart returns the offset of the first content line of a block, or -1.
func blockStart(n ast.Node) int {
	if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		return lines.At(0).Start
	}
	return -1
}
