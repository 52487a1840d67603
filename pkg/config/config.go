// Package config loads the differential engine's ignore-pattern set and the
// renderer's syntax-highlighting rules from an optional TOML file, falling
// back to the built-in defaults when no file is given.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/pelletier/go-toml/v2"

	"github.com/netlogdiff/netlogdiff/pkg/diffengine"
)

// Config is the engine/renderer configuration surface named in spec.md §6:
// IgnorePatterns feeds diffengine.New; SyntaxHighlighting feeds the HTML
// renderer's token classifier.
type Config struct {
	IgnorePatterns     []string          `toml:"ignore_patterns"`
	SyntaxHighlighting map[string]string `toml:"syntax_highlighting"`
}

// file is the on-disk TOML shape; kept distinct from Config so callers never
// need to think about (un)marshaling concerns.
type file struct {
	IgnorePatterns     []string          `toml:"ignore_patterns"`
	SyntaxHighlighting map[string]string `toml:"syntax_highlighting"`
}

// defaultSyntaxHighlighting mirrors original_source/config.py's
// SYNTAX_HIGHLIGHTING table: CSS class name to the regex it tags.
var defaultSyntaxHighlighting = map[string]string{
	"syntax-ip":      `\b(?:\d{1,3}\.){3}\d{1,3}(?:/\d+)?\b`,
	"syntax-mac":     `\b(?:[0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}\b`,
	"syntax-string":  `"[^"]*"`,
	"syntax-date":    `\b\d{4}-\d{2}-\d{2}\b|\b\d{2}/\d{2}/\d{2,4}\b|\b\d{2}:\d{2}:\d{2}\b`,
	"syntax-error":   `(?i)\b(error|fail|failed|failure|critical|major|down|shutdown)\b`,
	"syntax-success": `(?i)\b(success|ok|up|connected|active)\b`,
	"syntax-keyword": `(?i)\b(description|interface|port|vlan|sap|lag|service|customer|create|exit|no)\b`,
}

// Default returns the built-in configuration: spec.md §4.1's ignore patterns
// and the original's syntax-highlighting table.
func Default() *Config {
	return &Config{
		IgnorePatterns:     append([]string(nil), diffengine.DefaultIgnorePatterns...),
		SyntaxHighlighting: cloneStringMap(defaultSyntaxHighlighting),
	}
}

// Load reads a TOML file at path and overlays it on Default(): fields absent
// from the file keep their default value, so a config file only needs to
// name the rules it wants to change. A missing file is not an error — the
// caller gets Default() back.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if f.IgnorePatterns != nil {
		cfg.IgnorePatterns = f.IgnorePatterns
	}
	for class, pattern := range f.SyntaxHighlighting {
		cfg.SyntaxHighlighting[class] = pattern
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate compiles every regex in the configuration, surfacing the first
// malformed pattern as a configuration error (spec.md §7). It does not
// mutate Config; compiled patterns are rebuilt by whoever consumes them
// (diffengine.New, render.NewHighlighter).
func (c *Config) Validate() error {
	for i, p := range c.IgnorePatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("config: invalid ignore_patterns[%d] %q: %w", i, p, err)
		}
	}
	for class, p := range c.SyntaxHighlighting {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("config: invalid syntax_highlighting[%q] %q: %w", class, p, err)
		}
	}
	return nil
}

func cloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
