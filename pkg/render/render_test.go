package render_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netlogdiff/netlogdiff/pkg/diffengine"
	"github.com/netlogdiff/netlogdiff/pkg/render"
)

func sampleResult() diffengine.DiffResult {
	eng := diffengine.NewDefault()
	return eng.Diff(
		[]string{"interface eth0", "description old", "vlan 10"},
		[]string{"interface eth0", "description new", "vlan 10"},
	)
}

func TestHTMLRenderProducesRows(t *testing.T) {
	res := sampleResult()
	h := render.HTML{Address: "10.0.0.1", PreFile: "pre.log", PostFile: "post.log"}

	var buf bytes.Buffer
	require.NoError(t, h.Render(&buf, "abc123", res))

	out := buf.String()
	assert.Contains(t, out, "10.0.0.1")
	assert.Contains(t, out, "diff-row")
	assert.Contains(t, out, "description")
}

func TestJSONRenderRoundTripsFields(t *testing.T) {
	res := sampleResult()
	j := render.JSON{}

	var buf bytes.Buffer
	require.NoError(t, j.Render(&buf, "abc123", res))
	assert.Contains(t, buf.String(), `"tag"`)
	assert.Contains(t, buf.String(), `"is_different"`)

	var decoded struct {
		Lines []struct {
			Tag string `json:"tag"`
			Pre struct {
				Segments []struct {
					Kind string `json:"kind"`
					Text string `json:"text"`
				} `json:"segments"`
			} `json:"pre"`
			Post struct {
				Segments []struct {
					Kind string `json:"kind"`
					Text string `json:"text"`
				} `json:"segments"`
			} `json:"post"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	var sawReplace bool
	for _, line := range decoded.Lines {
		if line.Tag != "replace" {
			continue
		}
		sawReplace = true
		require.NotEmpty(t, line.Pre.Segments)
		require.NotEmpty(t, line.Post.Segments)
		var sawDel, sawIns bool
		for _, seg := range line.Pre.Segments {
			if seg.Kind == "del" {
				sawDel = true
			}
		}
		for _, seg := range line.Post.Segments {
			if seg.Kind == "ins" {
				sawIns = true
			}
		}
		assert.True(t, sawDel, "expected a del segment on the pre side of a replace row")
		assert.True(t, sawIns, "expected an ins segment on the post side of a replace row")
	}
	assert.True(t, sawReplace, "sample result should contain a replace row")
}

func TestCSVRenderHasHeaderAndOneRowPerLine(t *testing.T) {
	res := sampleResult()
	c := render.CSV{}

	var buf bytes.Buffer
	require.NoError(t, c.Render(&buf, "abc123", res))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "tag,pre_num,pre_text,post_num,post_text", lines[0])
	assert.Equal(t, len(res.Lines)+1, len(lines))
}

func TestHighlighterWrapsNonOverlappingMatches(t *testing.T) {
	h, err := render.NewHighlighter(map[string]string{
		"syntax-ip": `\b(?:\d{1,3}\.){3}\d{1,3}\b`,
	})
	require.NoError(t, err)

	out := h.Apply("host 10.0.0.1 is up")
	assert.Contains(t, out, `<span class="syntax-ip">10.0.0.1</span>`)
}

func TestHighlighterEscapesPlainText(t *testing.T) {
	h, err := render.NewHighlighter(map[string]string{"syntax-string": `"[^"]*"`})
	require.NoError(t, err)

	out := h.Apply(`a<b> "quoted"`)
	assert.Contains(t, out, "a&lt;b&gt;")
	assert.Contains(t, out, `<span class="syntax-string">&#34;quoted&#34;</span>`)
}
