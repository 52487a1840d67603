package render

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/netlogdiff/netlogdiff/pkg/diffengine"
)

// CSV renders a DiffResult as one row per DiffLine: tag, pre line number,
// pre text, post line number, post text.
type CSV struct{}

var _ Renderer = (*CSV)(nil)

func (CSV) Render(w io.Writer, id string, result diffengine.DiffResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"tag", "pre_num", "pre_text", "post_num", "post_text"}); err != nil {
		return err
	}
	for _, line := range result.Lines {
		record := []string{
			line.Tag.String(),
			numField(line.Pre.Num),
			line.Pre.Text(),
			numField(line.Post.Num),
			line.Post.Text(),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func numField(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
