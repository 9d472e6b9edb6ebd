package configloader

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/yaklabco/docgen/pkg/config"
)

// EnvPrefix is the prefix for all docgen environment variables.
const EnvPrefix = "DOCGEN_"

type envKind int

const (
	envString envKind = iota
	envBool
	envInt
	envList
)

// envVar binds one environment variable to a config field.
type envVar struct {
	suffix string
	kind   envKind
	help   string
	apply  func(cfg *config.Config, v envValue)
}

type envValue struct {
	s    string
	b    bool
	i    int
	list []string
}

// envVars lists the supported variables in documentation order.
//
//nolint:gochecknoglobals // Read-only lookup table.
var envVars = []envVar{
	{"SOURCE_DIR", envString, "Directory document sources are relative to",
		func(c *config.Config, v envValue) { c.SourceDir = v.s }},
	{"DEST_DIR", envString, "Directory generated Markdown is written to",
		func(c *config.Config, v envValue) { c.DestDir = v.s }},
	{"FENCE_LANGUAGE", envBool, "Tag code fences with the detected language: true or false",
		func(c *config.Config, v envValue) { c.FenceLanguage = v.b }},
	{"VERIFY", envBool, "Verify generated Markdown: true or false",
		func(c *config.Config, v envValue) { c.Verify = v.b }},
	{"HTML", envBool, "Also render HTML next to each document: true or false",
		func(c *config.Config, v envValue) { c.HTML = v.b }},
	{"FLAVOR", envString, "Markdown flavor for verify and HTML: commonmark or gfm",
		func(c *config.Config, v envValue) { c.Flavor = config.Flavor(v.s) }},
	{"FORMAT", envString, "Report format: text or json",
		func(c *config.Config, v envValue) { c.Format = config.OutputFormat(v.s) }},
	{"JOBS", envInt, "Number of parallel workers",
		func(c *config.Config, v envValue) { c.Jobs = v.i }},
	{"IGNORE", envList, "Comma-separated list of ignore patterns",
		func(c *config.Config, v envValue) { c.Ignore = v.list }},
	{"DRY_RUN", envBool, "Dry-run mode: true or false",
		func(c *config.Config, v envValue) { c.DryRun = v.b }},
	{"BACKUPS_ENABLED", envBool, "Back up destinations before overwriting: true or false",
		func(c *config.Config, v envValue) { c.Backups.Enabled = v.b }},
}

// LoadFromEnv applies environment variable overrides to the configuration.
// Environment variables are prefixed with DOCGEN_ (e.g., DOCGEN_DEST_DIR).
func LoadFromEnv(cfg *config.Config) error {
	if cfg == nil {
		return nil
	}

	for _, ev := range envVars {
		name := EnvPrefix + ev.suffix
		raw := os.Getenv(name)
		if raw == "" {
			continue
		}

		value, err := parseEnvValue(ev.kind, name, raw)
		if err != nil {
			return err
		}
		ev.apply(cfg, value)
	}

	return nil
}

func parseEnvValue(kind envKind, name, raw string) (envValue, error) {
	switch kind {
	case envString:
		return envValue{s: raw}, nil
	case envBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return envValue{}, fmt.Errorf("invalid boolean for %s: %q (expected true/false/1/0)", name, raw)
		}
		return envValue{b: b}, nil
	case envInt:
		i, err := strconv.Atoi(raw)
		if err != nil {
			return envValue{}, fmt.Errorf("invalid integer for %s: %q", name, raw)
		}
		return envValue{i: i}, nil
	case envList:
		return envValue{list: parseSliceValue(raw)}, nil
	default:
		return envValue{}, fmt.Errorf("unknown field type for %s", name)
	}
}

// parseSliceValue parses a comma-separated string into a slice.
// Each element is trimmed of whitespace.
func parseSliceValue(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ListEnvVars returns all supported environment variables with their descriptions.
func ListEnvVars() map[string]string {
	out := make(map[string]string, len(envVars))
	for _, ev := range envVars {
		out[EnvPrefix+ev.suffix] = ev.help
	}
	return out
}
