// Package orchestrator fans a batch of host pairs out across goroutines,
// running the differential engine and renderer for each and collecting a
// per-host summary for the index page. Adapted from
// original_source/reporting.py's Reporter._prepare_report_data, which uses
// a ProcessPoolExecutor for the same fan-out; goroutines serve the same
// role here since diffengine.Engine holds no per-call mutable state.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/netlogdiff/netlogdiff/pkg/db"
	"github.com/netlogdiff/netlogdiff/pkg/diffengine"
	"github.com/netlogdiff/netlogdiff/pkg/discovery"
	"github.com/netlogdiff/netlogdiff/pkg/render"
)

// Result is one host pair's outcome: either a rendered report or a reason
// it could not be produced.
type Result struct {
	Pair   discovery.HostPair
	Report db.ReportRecord
	Err    error
}

// Run fans out one goroutine per host pair (bounded to GOMAXPROCS, since
// the work is CPU-bound LCS matching, not I/O-bound), diffs, renders to
// outDir/diffs/diff_{folder}_{address}.{ext}, and returns one Result per
// pair in (folder, address) order, the same grouping
// original_source/reporting.py's host_results.sort(key=(folder, ip)) uses.
// A pair missing its pre or post file is reported with
// Result.Err == nil and a zero Report — the caller surfaces it as
// "missing" rather than an error, matching spec.md §7.
func Run(ctx context.Context, pairs []discovery.HostPair, eng *diffengine.Engine, renderer render.Renderer, ext, outDir string) ([]Result, error) {
	diffsDir := filepath.Join(outDir, "diffs")
	if err := os.MkdirAll(diffsDir, 0o755); err != nil {
		return nil, fmt.Errorf("orchestrator: creating output dir: %w", err)
	}

	results := make([]Result, len(pairs))
	sem := make(chan struct{}, max(1, runtime.GOMAXPROCS(0)))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs error

	for i, pair := range pairs {
		wg.Add(1)
		go func(i int, pair discovery.HostPair) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = Result{Pair: pair, Err: ctx.Err()}
				return
			}

			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("panic diffing %s: %v\n%s", pair.Address, rec, smallStacktrace())
					results[i] = Result{Pair: pair, Err: fmt.Errorf("panic: %v", rec)}
					mu.Lock()
					errs = multierr.Append(errs, fmt.Errorf("%s: panic: %v", pair.Address, rec))
					mu.Unlock()
				}
			}()

			res, err := runOne(pair, eng, renderer, ext, diffsDir)
			res.Err = err
			results[i] = res
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", pair.Address, err))
				mu.Unlock()
			}
		}(i, pair)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i].Pair, results[j].Pair
		if a.Folder != b.Folder {
			return a.Folder < b.Folder
		}
		return a.Address < b.Address
	})
	return results, errs
}

func runOne(pair discovery.HostPair, eng *diffengine.Engine, renderer render.Renderer, ext, diffsDir string) (Result, error) {
	if pair.Status != discovery.StatusOK {
		return Result{Pair: pair}, nil
	}

	pre, err := readLines(pair.PreFile)
	if err != nil {
		return Result{Pair: pair}, err
	}
	post, err := readLines(pair.PostFile)
	if err != nil {
		return Result{Pair: pair}, err
	}

	result := eng.Diff(pre, post)
	id := pair.Address

	out, err := os.Create(filepath.Join(diffsDir, "diff_"+ReportFileStem(pair)+"."+ext))
	if err != nil {
		return Result{Pair: pair}, err
	}
	defer out.Close()
	if err := renderer.Render(out, id, result); err != nil {
		return Result{Pair: pair}, err
	}

	rec := db.ReportRecord{
		ID:          id,
		Address:     pair.Address,
		Folder:      pair.Folder,
		Stats:       result.Stats,
		IsDifferent: result.IsDifferent,
	}
	return Result{Pair: pair, Report: rec}, nil
}

// ReportFileStem disambiguates the rendered report's filename by folder as
// well as address, since the same device address can legitimately recur
// under different sites once discovery recurses into subdirectories.
// Exposed so callers building links to the report (the batch index page)
// can reproduce the same filename without re-deriving the convention.
func ReportFileStem(pair discovery.HostPair) string {
	folder := strings.NewReplacer("/", "_", `\`, "_").Replace(pair.Folder)
	if folder == "" || folder == "Root" {
		return pair.Address
	}
	return folder + "_" + pair.Address
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return splitLines(f)
}

func splitLines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := string(data)
	if text == "" {
		return nil, nil
	}
	// Trailing newline does not produce a trailing empty line, matching
	// Python's str.splitlines() that original_source/reporting.py relies on.
	if text[len(text)-1] == '\n' {
		text = text[:len(text)-1]
	}
	lines := []string{}
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, trimCR(text[start:i]))
			start = i + 1
		}
	}
	lines = append(lines, trimCR(text[start:]))
	return lines, nil
}

func trimCR(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\r' {
		return s[:len(s)-1]
	}
	return s
}
