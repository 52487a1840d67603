// Package discovery finds pre-check/post-check log pairs in a directory
// tree by filename convention, keyed by the IPv4 address embedded in the
// name and grouped by the subdirectory ("folder") they were found in.
//
// Grounded on original_source/reporting.py's Reporter._collect_pairs,
// which walks recursively (src.rglob("*_preCheck.log")) rather than
// flatly, and _prepare_report_data, which tags every host with a
// site/device folder (the pre file's directory, relative to the scan
// root) and sorts/groups the report by (folder, ip) — real hierarchical
// site/device organization that the distilled spec.md dropped and this
// expansion restores.
package discovery

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// Status classifies how complete a discovered HostPair is.
type Status int

const (
	// StatusOK means both the pre and post file were found.
	StatusOK Status = iota
	// StatusMissingPre means only the post file was found.
	StatusMissingPre
	// StatusMissingPost means only the pre file was found.
	StatusMissingPost
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMissingPre:
		return "missing"
	case StatusMissingPost:
		return "missing"
	default:
		return "unknown"
	}
}

// HostPair is one device address's pre/post log files. PreFile or PostFile
// is empty when Status is not StatusOK; the engine must never be invoked for
// such a pair (spec.md §7). Folder is the pair's directory relative to the
// scan root ("Root" for the root itself), mirroring
// original_source/reporting.py's site/device grouping.
type HostPair struct {
	Address  string
	Folder   string
	PreFile  string
	PostFile string
	Status   Status
}

var (
	preRE  = regexp.MustCompile(`(?i)^(\d{1,3}(?:\.\d{1,3}){3})_preCheck\.log$`)
	postRE = regexp.MustCompile(`(?i)^(\d{1,3}(?:\.\d{1,3}){3})_postCheck\.log$`)
)

// Find walks dir recursively, the same rglob("*_preCheck.log") convention
// original_source/reporting.py's Reporter._collect_pairs uses, and groups
// files into HostPairs by the IPv4 address captured from their name within
// each directory. Results are sorted by (Folder, Address) for deterministic
// orchestrator fan-out order, matching the original's host_results.sort.
func Find(dir string) ([]HostPair, error) {
	var pairs []HostPair

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}

		pre := make(map[string]string)
		post := make(map[string]string)
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			if m := preRE.FindStringSubmatch(name); m != nil {
				pre[m[1]] = filepath.Join(path, name)
				continue
			}
			if m := postRE.FindStringSubmatch(name); m != nil {
				post[m[1]] = filepath.Join(path, name)
			}
		}
		if len(pre) == 0 && len(post) == 0 {
			return nil
		}

		folder, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			folder = "External"
		} else if folder == "." {
			folder = "Root"
		}

		addresses := make(map[string]struct{}, len(pre)+len(post))
		for addr := range pre {
			addresses[addr] = struct{}{}
		}
		for addr := range post {
			addresses[addr] = struct{}{}
		}
		for addr := range addresses {
			preFile, havePre := pre[addr]
			postFile, havePost := post[addr]
			status := StatusOK
			switch {
			case !havePre:
				status = StatusMissingPre
			case !havePost:
				status = StatusMissingPost
			}
			pairs = append(pairs, HostPair{
				Address:  addr,
				Folder:   folder,
				PreFile:  preFile,
				PostFile: postFile,
				Status:   status,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Folder != pairs[j].Folder {
			return pairs[i].Folder < pairs[j].Folder
		}
		return pairs[i].Address < pairs[j].Address
	})
	return pairs, nil
}
