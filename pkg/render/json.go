package render

import (
	"encoding/json"
	"io"

	"github.com/netlogdiff/netlogdiff/pkg/diffengine"
)

// JSON renders a DiffResult as one object holding id, is_different, the
// four stats (identical, changed, added, removed) as top-level fields, and
// one entry per line with tag and a pre/post side of {num, segments:
// [{kind, text}]}. The stats are not nested under a "stats" key, and an
// absent line number is omitted rather than written as null.
type JSON struct {
	Indent string
}

var _ Renderer = (*JSON)(nil)

type jsonSegment struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

type jsonSide struct {
	Num      int           `json:"num,omitempty"`
	Segments []jsonSegment `json:"segments,omitempty"`
}

type jsonLine struct {
	Tag  string   `json:"tag"`
	Pre  jsonSide `json:"pre"`
	Post jsonSide `json:"post"`
}

type jsonResult struct {
	ID          string     `json:"id"`
	Lines       []jsonLine `json:"lines"`
	Identical   int        `json:"identical"`
	Changed     int        `json:"changed"`
	Added       int        `json:"added"`
	Removed     int        `json:"removed"`
	IsDifferent bool       `json:"is_different"`
}

func (j JSON) Render(w io.Writer, id string, result diffengine.DiffResult) error {
	out := jsonResult{
		ID:          id,
		Lines:       make([]jsonLine, len(result.Lines)),
		Identical:   result.Stats.Identical,
		Changed:     result.Stats.Changed,
		Added:       result.Stats.Added,
		Removed:     result.Stats.Removed,
		IsDifferent: result.IsDifferent,
	}
	for i, line := range result.Lines {
		out.Lines[i] = jsonLine{
			Tag:  line.Tag.String(),
			Pre:  jsonSideOf(line.Pre),
			Post: jsonSideOf(line.Post),
		}
	}

	enc := json.NewEncoder(w)
	if j.Indent != "" {
		enc.SetIndent("", j.Indent)
	}
	return enc.Encode(out)
}

// jsonSideOf carries every segment's kind/text through to the wire form, so
// a JSON consumer of a replace/moved_from/moved_to row can still recover
// which characters were inserted or deleted within the line (spec.md §6).
func jsonSideOf(side diffengine.Side) jsonSide {
	out := jsonSide{Num: side.Num}
	if len(side.Segments) == 0 {
		return out
	}
	out.Segments = make([]jsonSegment, len(side.Segments))
	for i, seg := range side.Segments {
		out.Segments[i] = jsonSegment{Kind: seg.Kind.String(), Text: seg.Text}
	}
	return out
}
