package render

import (
	"html/template"
	"io"

	"github.com/netlogdiff/netlogdiff/pkg/diffengine"
	"github.com/netlogdiff/netlogdiff/templates"
)

// HTML renders a DiffResult as a standalone report page via diff.tmpl,
// escaping and syntax-highlighting every segment with an optional
// Highlighter.
type HTML struct {
	Address     string
	PreFile     string
	PostFile    string
	Highlighter *Highlighter
}

var _ Renderer = (*HTML)(nil)

func (h HTML) Render(w io.Writer, id string, result diffengine.DiffResult) error {
	data := templates.DiffTemplateData{
		ID:          id,
		Address:     h.Address,
		PreFile:     h.PreFile,
		PostFile:    h.PostFile,
		Identical:   result.Stats.Identical,
		Changed:     result.Stats.Changed,
		Added:       result.Stats.Added,
		Removed:     result.Stats.Removed,
		IsDifferent: result.IsDifferent,
		Rows:        make([]templates.Row, len(result.Lines)),
	}
	for i, line := range result.Lines {
		data.Rows[i] = templates.Row{
			Class:    hunkClass(line.Tag),
			PreNum:   line.Pre.Num,
			PreHTML:  h.renderSide(line.Pre),
			PostNum:  line.Post.Num,
			PostHTML: h.renderSide(line.Post),
		}
	}
	return templates.Templates.ExecuteTemplate(w, "diff.tmpl", data)
}

func (h HTML) renderSide(side diffengine.Side) template.HTML {
	var out template.HTML
	for _, seg := range side.Segments {
		text := seg.Text
		var rendered string
		if h.Highlighter != nil {
			rendered = h.Highlighter.Apply(text)
		} else {
			rendered = template.HTMLEscapeString(text)
		}
		if class := segmentClass(seg.Kind); class != "" {
			out += template.HTML(`<span class="` + class + `">` + rendered + `</span>`)
		} else {
			out += template.HTML(rendered)
		}
	}
	return out
}
