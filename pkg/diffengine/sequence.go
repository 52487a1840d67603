package diffengine

// diffSequence runs C3, the Sequence Differ: an LCS match over the
// normalized forms of pre/post, converted into a contiguous DiffLine run
// using the *original* text for display. preOffset/postOffset are the
// 0-based indexes of this slice's first line in the full sequences; a row's
// line number is offset + local index + 1, letting C4 reuse this exact
// function on arbitrary inter-anchor slices.
func diffSequence(pre, post, normPre, normPost []string, preOffset, postOffset int) ([]DiffLine, Stats) {
	m := newMatcher(normPre, normPost)
	var lines []DiffLine
	var stats Stats

	for _, op := range m.opcodes() {
		switch op.Tag {
		case OpEqual:
			stats.Identical += op.I2 - op.I1
			for k := 0; k < op.I2-op.I1; k++ {
				i, j := op.I1+k, op.J1+k
				lines = append(lines, DiffLine{
					Tag:  TagEqual,
					Pre:  Side{Num: preOffset + i + 1, Segments: []Segment{{SegPlain, pre[i]}}},
					Post: Side{Num: postOffset + j + 1, Segments: []Segment{{SegPlain, post[j]}}},
				})
			}
		case OpReplace:
			preLen, postLen := op.I2-op.I1, op.J2-op.J1
			n := min(preLen, postLen)
			// The overlap (element-wise paired lines) contributes to
			// changed; excess on the longer side contributes to
			// removed/added, per spec.md §8 invariant 3 ("overlap
			// contributes to changed; excess on pre side contributes to
			// removed, on post side to added").
			stats.Changed += n
			stats.Removed += preLen - n
			stats.Added += postLen - n
			for k := 0; k < n; k++ {
				i, j := op.I1+k, op.J1+k
				preSeg, postSeg := segmentsFor(pre[i], post[j])
				lines = append(lines, DiffLine{
					Tag:  TagReplace,
					Pre:  Side{Num: preOffset + i + 1, Segments: preSeg},
					Post: Side{Num: postOffset + j + 1, Segments: postSeg},
				})
			}
			// Excess on the longer side falls outside the element-wise
			// overlap and is emitted one-sided (spec.md §4.3 "Emission rules").
			for i := op.I1 + n; i < op.I2; i++ {
				lines = append(lines, DiffLine{
					Tag: TagReplace,
					Pre: Side{Num: preOffset + i + 1, Segments: []Segment{{SegDel, pre[i]}}},
				})
			}
			for j := op.J1 + n; j < op.J2; j++ {
				lines = append(lines, DiffLine{
					Tag:  TagReplace,
					Post: Side{Num: postOffset + j + 1, Segments: []Segment{{SegIns, post[j]}}},
				})
			}
		case OpDelete:
			stats.Removed += op.I2 - op.I1
			for i := op.I1; i < op.I2; i++ {
				lines = append(lines, DiffLine{
					Tag: TagDelete,
					Pre: Side{Num: preOffset + i + 1, Segments: []Segment{{SegPlain, pre[i]}}},
				})
			}
		case OpInsert:
			stats.Added += op.J2 - op.J1
			for j := op.J1; j < op.J2; j++ {
				lines = append(lines, DiffLine{
					Tag:  TagInsert,
					Post: Side{Num: postOffset + j + 1, Segments: []Segment{{SegPlain, post[j]}}},
				})
			}
		}
	}
	return lines, stats
}
