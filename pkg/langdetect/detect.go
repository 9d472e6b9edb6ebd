// Package langdetect names the language of a source file for use as a
// Markdown fence info string. It uses go-enry, the Go port of GitHub's
// linguist.
package langdetect

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// classifierCandidates are the block-comment languages docgen is used with.
//
//nolint:gochecknoglobals // Read-only lookup table.
var classifierCandidates = []string{
	"C", "C++", "C#", "CSS", "Go", "Java", "JavaScript",
	"Kotlin", "Objective-C", "Rust", "Scala", "Swift", "TypeScript",
}

// fenceTags maps linguist names whose lowercase form is not the usual fence tag.
//
//nolint:gochecknoglobals // Read-only lookup table.
var fenceTags = map[string]string{
	"C++":         "cpp",
	"C#":          "csharp",
	"F#":          "fsharp",
	"Objective-C": "objc",
	"Shell":       "bash",
}

// FenceInfo returns the fence tag for a source file, or "" when the
// language cannot be determined. The file name is tried first; content is
// only used to disambiguate extensions shared by several languages. An empty
// path, or "-" for standard input, falls back to content detection alone.
func FenceInfo(path string, content []byte) string {
	if path == "" || path == "-" {
		return Detect(content)
	}

	if lang, safe := enry.GetLanguageByExtension(path); safe {
		return FenceTag(lang)
	}
	if lang, safe := enry.GetLanguageByFilename(path); safe {
		return FenceTag(lang)
	}
	if lang, safe := enry.GetLanguageByShebang(content); safe {
		return FenceTag(lang)
	}

	// Ambiguous extensions such as .h carry several candidates.
	if candidates := enry.GetLanguagesByExtension(path, content, nil); len(candidates) > 0 {
		return FenceTag(enry.GetLanguage(filepath.Base(path), content))
	}

	return ""
}

// Detect returns the fence tag for content with no file name, or "" when
// confidence is low.
func Detect(content []byte) string {
	if len(bytes.TrimSpace(content)) == 0 {
		return ""
	}

	if lang, safe := enry.GetLanguageByShebang(content); safe {
		return FenceTag(lang)
	}

	if lang := detectByPattern(bytes.TrimSpace(content)); lang != "" {
		return lang
	}

	if lang, safe := enry.GetLanguageByClassifier(content, classifierCandidates); safe && lang != "" {
		return FenceTag(lang)
	}

	return ""
}

// detectByPattern checks openings that identify a language outright.
func detectByPattern(trimmed []byte) string {
	switch {
	case bytes.HasPrefix(trimmed, []byte("package ")):
		return "go"
	case bytes.HasPrefix(trimmed, []byte("#include <")),
		bytes.HasPrefix(trimmed, []byte(`#include "`)):
		if bytes.Contains(trimmed, []byte("std::")) ||
			bytes.Contains(trimmed, []byte("class ")) ||
			bytes.Contains(trimmed, []byte("namespace ")) {
			return "cpp"
		}
		return "c"
	case bytes.HasPrefix(trimmed, []byte("use std::")),
		bytes.Contains(trimmed, []byte("fn main()")):
		return "rust"
	}
	return ""
}

// FenceTag converts a linguist language name to a fence tag.
func FenceTag(lang string) string {
	if lang == "" {
		return ""
	}
	if tag, ok := fenceTags[lang]; ok {
		return tag
	}
	return strings.ReplaceAll(strings.ToLower(lang), " ", "-")
}
