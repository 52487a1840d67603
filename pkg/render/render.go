// Package render turns a diffengine.DiffResult into one of the exported
// formats named in spec.md §6: HTML (for humans), JSON and CSV (for
// tooling). Every implementation only reads from diffengine's exported
// types, so a new format never has to touch the engine.
package render

import (
	"io"

	"github.com/netlogdiff/netlogdiff/pkg/diffengine"
)

// Renderer writes the diff for one host pair to w.
type Renderer interface {
	Render(w io.Writer, id string, result diffengine.DiffResult) error
}

// hunkClass maps a DiffLine's Tag to the CSS class spec.md §6 names for a
// table row. Called by the HTML renderer, which passes the resulting class
// string to diff.tmpl in the row data.
func hunkClass(tag diffengine.Tag) string {
	switch tag {
	case diffengine.TagEqual:
		return "diff-row equal"
	case diffengine.TagReplace:
		return "diff-row replace"
	case diffengine.TagDelete:
		return "diff-row delete"
	case diffengine.TagInsert:
		return "diff-row insert"
	case diffengine.TagMovedFrom:
		return "diff-row moved_from"
	case diffengine.TagMovedTo:
		return "diff-row moved_to"
	default:
		return "diff-row"
	}
}

func segmentClass(kind diffengine.SegmentKind) string {
	switch kind {
	case diffengine.SegDel:
		return "diff-change-del"
	case diffengine.SegIns:
		return "diff-change-ins"
	default:
		return ""
	}
}
