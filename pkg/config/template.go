package config

import "fmt"

// TemplateOptions controls configuration template generation.
type TemplateOptions struct {
	// Full writes every setting with its default value instead of the
	// commented starter file.
	Full bool
}

// DefaultTemplateHeader returns the default header for generated configs.
func DefaultTemplateHeader() string {
	return `# docgen configuration
# See: https://github.com/yaklabco/docgen`
}

// GenerateTemplate creates a configuration file template.
func GenerateTemplate(opts TemplateOptions) ([]byte, error) {
	if opts.Full {
		content, err := NewConfig().ToYAMLWithHeader(DefaultTemplateHeader())
		if err != nil {
			return nil, fmt.Errorf("generate full template: %w", err)
		}
		return content, nil
	}
	return []byte(minimalTemplate), nil
}

const minimalTemplate = `# docgen configuration
# See: https://github.com/yaklabco/docgen

# Base directory for relative sources
source_dir: .

# Where generated Markdown goes when a document has no dest
dest_dir: doc

# Files to convert, in order
documents:
  # - source: tokenizer.cpp
  # - source: vm.cpp
  #   dest: doc/virtual-machine.md

# Tag code fences with the detected language (e.g. ` + "```cpp" + `)
# fence_language: false

# Parse the generated Markdown and check every code fence survived
# verify: false

# Also render each document to HTML
# html: false

# Markdown flavor for verify/html: commonmark or gfm
# flavor: commonmark

# Glob patterns skipped when a directory is converted
# ignore:
#   - "vendor/**"

# Keep a copy of a destination before overwriting it
# backups:
#   enabled: false
#   mode: sidecar
`
