package diffengine

import "strings"

// anchor is a pair of indices whose normalized, trimmed form is identical
// between the two sequences and appears exactly once in each.
type anchor struct {
	pre, post int
}

// findAnchors implements C4 steps 1-4: index both sequences by trimmed
// normalized form, keep keys unique in both, sort by pre index, then
// greedily keep an anchor only if its post index strictly increases. This is
// a deliberate simplicity/quality trade-off over an LIS-based filter
// (spec.md §9, "Anchor monotonization") — it is not optimal, but stable and
// sufficient in practice.
func findAnchors(normPre, normPost []string) []anchor {
	preIdx := indexUnique(normPre)
	postIdx := indexUnique(normPost)

	type candidate struct{ pre, post int }
	var candidates []candidate
	for key, pi := range preIdx {
		if pj, ok := postIdx[key]; ok {
			candidates = append(candidates, candidate{pi, pj})
		}
	}
	// Sort by pre index (insertion sort: anchor counts are small relative to
	// total input size for the adversarial cases this guards against).
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].pre < candidates[j-1].pre; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	var anchors []anchor
	lastPost := -1
	for _, c := range candidates {
		if c.post > lastPost {
			anchors = append(anchors, anchor{c.pre, c.post})
			lastPost = c.post
		}
	}
	return anchors
}

// indexUnique maps each trimmed normalized line to its index, keeping only
// keys that occur exactly once and skipping empty-after-trim lines.
func indexUnique(norm []string) map[string]int {
	counts := make(map[string]int, len(norm))
	first := make(map[string]int, len(norm))
	for i, s := range norm {
		key := strings.TrimSpace(s)
		if key == "" {
			continue
		}
		counts[key]++
		if counts[key] == 1 {
			first[key] = i
		}
	}
	out := make(map[string]int, len(first))
	for key, idx := range first {
		if counts[key] == 1 {
			out[key] = idx
		}
	}
	return out
}

// diffWithAnchors implements C4 in full: find anchors, frame with virtual
// start/end sentinels, run the Sequence Differ (C3) on each inter-anchor
// slice, and stitch the anchor lines and sub-results into one DiffResult.
func diffWithAnchors(pre, post, normPre, normPost []string) DiffResult {
	anchors := findAnchors(normPre, normPost)

	type point struct{ pre, post int }
	points := make([]point, 0, len(anchors)+2)
	points = append(points, point{-1, -1})
	for _, a := range anchors {
		points = append(points, point{a.pre, a.post})
	}
	points = append(points, point{len(pre), len(post)})

	var lines []DiffLine
	var stats Stats

	for k := 0; k < len(points)-1; k++ {
		start, end := points[k], points[k+1]

		subPre := pre[start.pre+1 : end.pre]
		subPost := post[start.post+1 : end.post]
		subNormPre := normPre[start.pre+1 : end.pre]
		subNormPost := normPost[start.post+1 : end.post]

		subLines, subStats := diffSequence(subPre, subPost, subNormPre, subNormPost, start.pre+1, start.post+1)
		lines = append(lines, subLines...)
		stats.Identical += subStats.Identical
		stats.Changed += subStats.Changed
		stats.Added += subStats.Added
		stats.Removed += subStats.Removed

		if k < len(points)-2 {
			// Emit the real anchor itself as a single equal row, using
			// original (non-normalized) text on both sides.
			lines = append(lines, DiffLine{
				Tag:  TagEqual,
				Pre:  Side{Num: end.pre + 1, Segments: []Segment{{SegPlain, pre[end.pre]}}},
				Post: Side{Num: end.post + 1, Segments: []Segment{{SegPlain, post[end.post]}}},
			})
			stats.Identical++
		}
	}

	detectMoves(lines)

	result := DiffResult{Lines: lines, Stats: stats}
	result.IsDifferent = stats.Changed+stats.Added+stats.Removed > 0
	return result
}
