package diffengine

// movedBlock is a maximal contiguous run of same-tagged rows, keyed by the
// concatenation of their raw (non-normalized) text.
type movedBlock struct {
	start, end int // [start, end) into lines
	key        string
}

// detectMoves implements C5: it mutates lines in place, reclassifying
// delete/insert runs that are bit-identical to a not-yet-matched run of the
// opposite kind as moved_from/moved_to. Equality is exact over raw text — no
// normalization — and there is no minimum length filter, so single-line
// moves qualify. Both scans and the matching loop process rows in their
// existing order, which is what makes the pass idempotent: the second run
// finds no more delete/insert rows to reclassify.
func detectMoves(lines []DiffLine) {
	deleted := collectRuns(lines, TagDelete, func(l DiffLine) string { return l.Pre.Text() })
	inserted := collectRuns(lines, TagInsert, func(l DiffLine) string { return l.Post.Text() })

	used := make([]bool, len(inserted))
	for _, del := range deleted {
		for ii, ins := range inserted {
			if used[ii] {
				continue
			}
			if del.key != ins.key {
				continue
			}
			used[ii] = true
			for i := del.start; i < del.end; i++ {
				lines[i].Tag = TagMovedFrom
			}
			for i := ins.start; i < ins.end; i++ {
				lines[i].Tag = TagMovedTo
			}
			break
		}
	}
}

func collectRuns(lines []DiffLine, tag Tag, text func(DiffLine) string) []movedBlock {
	var runs []movedBlock
	start := -1
	var key string
	flush := func(end int) {
		if start >= 0 {
			runs = append(runs, movedBlock{start, end, key})
			start, key = -1, ""
		}
	}
	for i, l := range lines {
		if l.Tag == tag {
			if start < 0 {
				start = i
			}
			key += text(l)
		} else {
			flush(i)
		}
	}
	flush(len(lines))
	return runs
}
