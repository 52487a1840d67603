// Package templates holds the HTML templates served by pkg/http and
// written by pkg/render's HTML renderer, embedded into the binary so a
// deployed build never depends on a template directory on disk (teacher
// style, templates/templates.go).
package templates

import (
	"embed"
	"html/template"
)

//go:embed *.tmpl
var templateFS embed.FS

// FuncMap is the func map the template set is parsed with. It is empty:
// pkg/render maps a Tag/SegmentKind to a CSS class itself and hands the
// templates ready-made class strings, keeping that mapping in one place.
var FuncMap = template.FuncMap{}

// Templates is the parsed set of every *.tmpl file embedded in this
// package. Callers add their own func map entries with Templates.Funcs
// before first use if they need more than FuncMap provides.
var Templates = template.Must(
	template.New("").Funcs(FuncMap).ParseFS(templateFS, "*.tmpl"),
)

// DiffTemplateData is the data passed to diff.tmpl: one host pair's
// rendered comparison.
type DiffTemplateData struct {
	ID          string
	Address     string
	PreFile     string
	PostFile    string
	Rows        []Row
	Identical   int
	Changed     int
	Added       int
	Removed     int
	IsDifferent bool
}

// Row is one rendered table row: the CSS row class plus pre-escaped,
// highlighted HTML for each side.
type Row struct {
	Class    string
	PreNum   int
	PreHTML  template.HTML
	PostNum  int
	PostHTML template.HTML
}

// IndexTemplateData is the data passed to index.tmpl: the batch summary
// page listing every processed host pair (original's Reporter.generate /
// index.html), grouped by folder the way Reporter._prepare_report_data
// sorts host_results by (folder, ip).
type IndexTemplateData struct {
	GeneratedAt string
	Folders     []FolderSummary
	Total       Stats
}

// FolderSummary groups the index page's rows by the site/device folder
// discovery.HostPair.Folder assigns them to.
type FolderSummary struct {
	Folder string
	Hosts  []HostSummary
}

// HostSummary is one row of the index page.
type HostSummary struct {
	Address string
	Status  string
	Link    string
	Changed int
	Added   int
	Removed int
}

// Stats mirrors diffengine.Stats for template consumption, so this
// low-level package does not import pkg/diffengine.
type Stats struct {
	Identical int
	Changed   int
	Added     int
	Removed   int
}
