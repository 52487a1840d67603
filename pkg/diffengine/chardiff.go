package diffengine

// diffChars computes a minimal SegmentOpcode list transforming a into b at
// character granularity. Concatenating the a-slices reproduces a; the
// b-slices reproduce b.
//
// Matching is done over runes rather than bytes so multi-byte characters
// never get split across a segment boundary.
func diffChars(a, b string) []SegmentOpcode {
	ar, br := []rune(a), []rune(b)
	m := newMatcher(ar, br)
	blockCodes := m.opcodes()

	codes := make([]SegmentOpcode, 0, len(blockCodes))
	for _, c := range blockCodes {
		codes = append(codes, SegmentOpcode{
			Tag: c.Tag,
			A0:  runeIndexToByte(ar, c.I1), A1: runeIndexToByte(ar, c.I2),
			B0: runeIndexToByte(br, c.J1), B1: runeIndexToByte(br, c.J2),
		})
	}
	return codes
}

// runeIndexToByte converts a rune-slice index into the byte offset of a
// string built from that same rune slice.
func runeIndexToByte(runes []rune, idx int) int {
	n := 0
	for _, r := range runes[:idx] {
		n += len(string(r))
	}
	return n
}

// segmentsFor renders the SegmentOpcode list for a replace pair into the
// pre/post Segment slices per the mapping in spec.md §4.2:
//
//	equal   -> plain on both sides
//	replace -> del on pre, ins on post
//	delete  -> del on pre only
//	insert  -> ins on post only
func segmentsFor(a, b string) (pre, post []Segment) {
	for _, op := range diffChars(a, b) {
		switch op.Tag {
		case OpEqual:
			pre = append(pre, Segment{SegPlain, a[op.A0:op.A1]})
			post = append(post, Segment{SegPlain, b[op.B0:op.B1]})
		case OpReplace:
			pre = append(pre, Segment{SegDel, a[op.A0:op.A1]})
			post = append(post, Segment{SegIns, b[op.B0:op.B1]})
		case OpDelete:
			pre = append(pre, Segment{SegDel, a[op.A0:op.A1]})
		case OpInsert:
			post = append(post, Segment{SegIns, b[op.B0:op.B1]})
		}
	}
	return pre, post
}
