package orchestrator

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"
)

// smallStacktrace renders a compact, one-frame-per-line stacktrace for the
// panic log line above. Adapted from the teacher's root util.go, which used
// it in webServer.ServeHTTP's recover handler; here it serves the same
// purpose for a panicking per-host goroutine instead.
func smallStacktrace() string {
	const unicodeEllipsis = "…"

	var buf bytes.Buffer
	pc := make([]uintptr, 100)
	pc = pc[:runtime.Callers(3, pc)]
	frames := runtime.CallersFrames(pc)
	for {
		f, more := frames.Next()

		if idx := strings.LastIndexByte(f.Function, '/'); idx >= 0 {
			f.Function = f.Function[idx+1:]
		}

		fullPath := fmt.Sprintf("%s:%-4d", f.File, f.Line)
		if len(fullPath) > 30 {
			fullPath = unicodeEllipsis + fullPath[len(fullPath)-29:]
		}

		fmt.Fprintf(&buf, "%30s %s\n", fullPath, f.Function)

		if !more {
			return buf.String()
		}
	}
}
