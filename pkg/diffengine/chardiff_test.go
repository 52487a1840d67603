package diffengine

import "testing"

func TestSegmentsForReconstructsBothStrings(t *testing.T) {
	cases := [][2]string{
		{"foo bar baz", "foo qux baz"},
		{"", ""},
		{"abc", ""},
		{"", "abc"},
		{"héllo wörld", "héllo wûrld"},
	}
	for _, c := range cases {
		pre, post := segmentsFor(c[0], c[1])
		var gotA, gotB string
		for _, s := range pre {
			gotA += s.Text
		}
		for _, s := range post {
			gotB += s.Text
		}
		if gotA != c[0] {
			t.Fatalf("pre reconstruction: got %q, want %q", gotA, c[0])
		}
		if gotB != c[1] {
			t.Fatalf("post reconstruction: got %q, want %q", gotB, c[1])
		}
	}
}
