// Package http serves ad-hoc pre/post comparisons over HTTP: upload a
// pair, get back a link to a rendered report, and fetch it back out in
// HTML or raw form. Routing and middleware are ported from the teacher's
// pkg/http/routes.go; the upload/serve handlers are generalized from
// "diff two uploaded files" to "diff two named log files".
package http

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/netlogdiff/netlogdiff/pkg/db"
	"github.com/netlogdiff/netlogdiff/pkg/diffengine"
	"github.com/netlogdiff/netlogdiff/pkg/storage"
)

// Server wires storage, the report index, the engine and a renderer
// together behind chi's router.
type Server struct {
	PublicURL string
	Storage   storage.Storage
	DB        *db.DB
	Engine    *diffengine.Engine
	Output    io.Writer
}

// Router builds the chi.Router serving this Server.
func (s *Server) Router() chi.Router {
	if s.Output == nil {
		s.Output = os.Stdout
	}
	rt := chi.NewRouter()
	rt.Use(
		middleware.RealIP,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger: log.New(s.Output, "", log.LstdFlags),
		}),
		middleware.Recoverer,
		middleware.Timeout(time.Second*60),
	)
	rt.Get("/", s.index)
	rt.Post("/", s.e(s.upload))
	fs := http.FileServer(http.Dir("static"))
	rt.Get("/static/*", fs.ServeHTTP)
	rt.Get("/{id}", s.e(s.serveReport))
	rt.Get("/{id}/pre", s.serveFile(0))
	rt.Get("/{id}/post", s.serveFile(1))
	return rt
}

const (
	ctHeader = "Content-Type"
	ctPlain  = "text/plain; charset=utf-8"

	maxBodySize        = 4 << 20 // 4M, larger than the teacher's 1M since device logs run long
	maxMultipartMemory = maxBodySize

	maxBytesWeek = (1 << 20) * 16 // 16M (compressed) per client per week
	maxCallsWeek = 200
)

var (
	reBrowser = regexp.MustCompile("(?i)(?:chrome|firefox|safari|gecko)/")
	errUsage  = errors.New("")
)

func isBrowser(r *http.Request) bool {
	return reBrowser.MatchString(r.UserAgent())
}

func (s *Server) usageString() []byte {
	return []byte("usage: curl -F pre=@before.log -F post=@after.log " + s.PublicURL + "\n")
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(ctHeader, ctPlain)
	w.Write(s.usageString())
}

// e wraps a handler returning an error: errUsage prints the usage string
// with a 400, anything else is logged and reported as a generic 500,
// matching the teacher's boundary-logging posture (never swallow silently,
// never leak internals to the client).
func (s *Server) e(fn func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		if errors.Is(err, errUsage) {
			w.WriteHeader(400)
			w.Write(s.usageString())
			return
		}
		log.Printf("request error: %v", err)
		w.WriteHeader(500)
		w.Write([]byte("500 internal server error\n"))
	}
}
