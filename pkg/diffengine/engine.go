package diffengine

// Engine is the differential engine entry point. It is purely synchronous
// and holds no mutable state beyond its compiled ignore patterns, which are
// read-only after construction and safe to share across goroutines — one
// Engine can safely serve concurrent Diff calls from an orchestrator's
// fan-out.
type Engine struct {
	normalizer *Normalizer
}

// New constructs an Engine from a list of ignore-pattern regex strings. An
// unrecognized pattern is a configuration error, reported here rather than
// at Diff time.
func New(ignorePatterns []string) (*Engine, error) {
	n, err := NewNormalizer(ignorePatterns)
	if err != nil {
		return nil, err
	}
	return &Engine{normalizer: n}, nil
}

// NewDefault constructs an Engine using DefaultIgnorePatterns.
func NewDefault() *Engine {
	eng, err := New(DefaultIgnorePatterns)
	if err != nil {
		// The built-in pattern set is a compile-time constant under test;
		// a failure here means the defaults themselves are broken.
		panic("diffengine: default ignore patterns failed to compile: " + err.Error())
	}
	return eng
}

// Diff compares pre and post, two sequences of lines with trailing newlines
// already stripped, and returns the structured DiffResult. Diff accepts any
// input including empty slices; it never returns an error — failure modes
// belong to construction (New), not comparison.
func (e *Engine) Diff(pre, post []string) DiffResult {
	if len(pre) == 0 && len(post) == 0 {
		return DiffResult{}
	}

	normPre := make([]string, len(pre))
	for i, l := range pre {
		normPre[i] = e.normalizer.Normalize(l)
	}
	normPost := make([]string, len(post))
	for i, l := range post {
		normPost[i] = e.normalizer.Normalize(l)
	}

	return diffWithAnchors(pre, post, normPre, normPost)
}
