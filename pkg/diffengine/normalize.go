package diffengine

import (
	"fmt"
	"regexp"
)

// ignoredSentinel replaces every ignore-pattern match during normalization.
const ignoredSentinel = "[[IGNORED]]"

// DefaultIgnorePatterns is the built-in ignore set: volatile substrings that
// a network device emits fresh on every capture (timestamps, uptime,
// temperature, memory) and that must not register as differences.
var DefaultIgnorePatterns = []string{
	`last login\s*:.*`,
	`# Generated.*UTC`,
	`# Finished.*UTC`,
	`Up Time\s*:.*`,
	`Temperature\s*:.*`,
	`Memory Usage\s*:.*`,
}

// Normalizer erases configured substrings from a line to produce a
// comparison key. The original line is never mutated; normalization only
// gates equality tests.
type Normalizer struct {
	patterns []*regexp.Regexp
}

// NewNormalizer compiles patterns in declaration order. A malformed pattern
// is a configuration error, reported immediately rather than surfacing at
// comparison time.
func NewNormalizer(patterns []string) (*Normalizer, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("diffengine: invalid ignore pattern %d (%q): %w", i, p, err)
		}
		compiled = append(compiled, re)
	}
	return &Normalizer{patterns: compiled}, nil
}

// Normalize applies every pattern in order, each over the previous pattern's
// output, replacing every non-overlapping match with the ignored sentinel.
// Normalization is total: a compiled pattern cannot fail at this point, so
// there is no error return.
func (n *Normalizer) Normalize(line string) string {
	out := line
	for _, re := range n.patterns {
		out = re.ReplaceAllString(out, ignoredSentinel)
	}
	return out
}
