package render

import (
	"html"
	"regexp"
	"sort"
)

// Highlighter wraps regions of a line matching configured syntax classes in
// <span class="{class}"> tags, mirroring the architectural slot the
// original's _apply_syntax_highlighting fills with ad-hoc re.sub calls
// (original_source/config.py's SYNTAX_HIGHLIGHTING table).
//
// chroma's lexer machinery (github.com/alecthomas/chroma/v2, wired
// elsewhere in the corpus's go.mod files) is built around stateful,
// ordered rule stacks for whole-language grammars; the rule set here is a
// flat list of independent regexes applied to a single already-tokenized
// log line, so a lexer with mutator stacks buys nothing a direct
// regexp pass doesn't already give. No example repo exercises chroma's
// Lexer/Rules API with real code (only its go.mod line is present), so it
// is left unwired here rather than guessed at; see DESIGN.md.
type Highlighter struct {
	classes []string
	res     []*regexp.Regexp
}

// NewHighlighter compiles class -> pattern into priority order (longest
// pattern first, then class name, for determinism when two classes could
// tag the same text).
func NewHighlighter(rules map[string]string) (*Highlighter, error) {
	classes := make([]string, 0, len(rules))
	for class := range rules {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool {
		if len(rules[classes[i]]) != len(rules[classes[j]]) {
			return len(rules[classes[i]]) > len(rules[classes[j]])
		}
		return classes[i] < classes[j]
	})

	h := &Highlighter{classes: classes, res: make([]*regexp.Regexp, len(classes))}
	for i, class := range classes {
		re, err := regexp.Compile(rules[class])
		if err != nil {
			return nil, err
		}
		h.res[i] = re
	}
	return h, nil
}

type span struct {
	start, end int
	class      string
}

// Apply HTML-escapes text and wraps every match of each configured rule
// (scanned in priority order) in a <span>, skipping any match that overlaps
// a region an earlier rule already tagged.
func (h *Highlighter) Apply(text string) string {
	if h == nil || text == "" {
		return html.EscapeString(text)
	}

	taken := make([]bool, len(text))
	var spans []span
	for i, re := range h.res {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			if overlaps(taken, start, end) {
				continue
			}
			for k := start; k < end; k++ {
				taken[k] = true
			}
			spans = append(spans, span{start, end, h.classes[i]})
		}
	}
	if len(spans) == 0 {
		return html.EscapeString(text)
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var out []byte
	pos := 0
	for _, sp := range spans {
		out = append(out, html.EscapeString(text[pos:sp.start])...)
		out = append(out, `<span class="`...)
		out = append(out, sp.class...)
		out = append(out, `">`...)
		out = append(out, html.EscapeString(text[sp.start:sp.end])...)
		out = append(out, `</span>`...)
		pos = sp.end
	}
	out = append(out, html.EscapeString(text[pos:])...)
	return string(out)
}

func overlaps(taken []bool, start, end int) bool {
	for k := start; k < end; k++ {
		if taken[k] {
			return true
		}
	}
	return false
}
