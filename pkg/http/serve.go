package http

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/netlogdiff/netlogdiff/pkg/render"
)

type diffFile struct {
	Name    string
	Content string
}

func (s *Server) getFiles(ctx context.Context, id string) ([]diffFile, error) {
	rec, err := s.DB.GetReport(id)
	if err != nil {
		return nil, err
	}
	if rec.IsZero() {
		return nil, nil
	}

	data, err := s.Storage.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	files, err := tgzReadFiles(data)
	if err != nil {
		return nil, err
	}
	if len(files) != 2 {
		return nil, fmt.Errorf("expected 2 files got %d", len(files))
	}
	return files, nil
}

func tgzReadFiles(data []byte) ([]diffFile, error) {
	gzrd, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var files []diffFile
	rd := tar.NewReader(gzrd)
	for {
		f, err := rd.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		data, err := io.ReadAll(rd)
		if err != nil {
			return nil, err
		}
		files = append(files, diffFile{Name: f.Name, Content: string(data)})
	}
	if err := gzrd.Close(); err != nil {
		return nil, err
	}
	return files, nil
}

// serveReport diffs the stored pair for id with the engine and renders it
// as HTML for a browser, or as JSON for non-browser clients (curl etc.).
func (s *Server) serveReport(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")

	files, err := s.getFiles(r.Context(), id)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		w.WriteHeader(404)
		w.Write([]byte("not found"))
		return nil
	}

	result := s.Engine.Diff(splitPreserveLineBreaks(files[0].Content), splitPreserveLineBreaks(files[1].Content))

	var renderer render.Renderer
	if isBrowser(r) {
		renderer = render.HTML{Address: id, PreFile: files[0].Name, PostFile: files[1].Name}
	} else {
		renderer = render.JSON{Indent: "  "}
		w.Header().Set(ctHeader, "application/json")
	}
	return renderer.Render(w, id, result)
}

func (s *Server) serveFile(n int) http.HandlerFunc {
	return s.e(func(w http.ResponseWriter, r *http.Request) error {
		id := chi.URLParam(r, "id")
		files, err := s.getFiles(r.Context(), id)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			w.WriteHeader(404)
			w.Write([]byte("not found"))
			return nil
		}
		fn := files[n]
		w.Header().Set(ctHeader, ctPlain)
		w.Header().Set("Content-Disposition", "inline; filename="+strconv.Quote(fn.Name))
		w.Write([]byte(fn.Content))
		return nil
	})
}

func splitPreserveLineBreaks(text string) []string {
	if text == "" {
		return nil
	}
	if text[len(text)-1] == '\n' {
		text = text[:len(text)-1]
	}
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, trimCR(text[start:i]))
			start = i + 1
		}
	}
	return append(lines, trimCR(text[start:]))
}

func trimCR(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\r' {
		return s[:len(s)-1]
	}
	return s
}
