package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.etcd.io/bbolt"

	"github.com/netlogdiff/netlogdiff/pkg/config"
	"github.com/netlogdiff/netlogdiff/pkg/db"
	"github.com/netlogdiff/netlogdiff/pkg/diffengine"
	"github.com/netlogdiff/netlogdiff/pkg/discovery"
	nethttp "github.com/netlogdiff/netlogdiff/pkg/http"
	"github.com/netlogdiff/netlogdiff/pkg/locale"
	"github.com/netlogdiff/netlogdiff/pkg/orchestrator"
	"github.com/netlogdiff/netlogdiff/pkg/render"
	"github.com/netlogdiff/netlogdiff/pkg/storage"
	"github.com/netlogdiff/netlogdiff/templates"
)

type optsType struct {
	// batch mode
	src          string
	out          string
	format       string
	lang         string
	configPath   string

	// serve mode
	serve          bool
	listenAddr     string
	publicURL      string
	dbFile         string
	s3Endpoint     string
	s3AccessKey    string
	s3AccessSecret string
	s3Bucket       string
}

func defaultEnv(s, def string) string {
	if v, ok := os.LookupEnv(s); ok {
		return v
	}
	return def
}

func stringVar(p *string, fg, defaultValue, usage string) {
	ev := strings.ReplaceAll(strings.ToUpper(fg), "-", "_")
	flag.StringVar(p, fg, defaultEnv(ev, defaultValue), usage+". env var: "+ev)
}

func main() {
	var opts optsType
	flag.BoolVar(&opts.serve, "serve", false, "run the HTTP server instead of a one-shot batch comparison")
	flag.StringVar(&opts.format, "format", "html", "output format for batch mode: html, json, or csv")
	stringVar(&opts.lang, "lang", "en", "report language")
	stringVar(&opts.configPath, "config", "netlogdiff.toml", "path to an ignore-pattern/syntax-highlighting config file")

	stringVar(&opts.listenAddr, "listen-addr", ":18844", "listen address for the web server")
	stringVar(&opts.publicURL, "public-url", "localhost:18844", "url for the server, used in the curl example")
	stringVar(&opts.dbFile, "db-file", "data/db.bolt", "the file used for the database. "+
		"this will be a cache (if used together with s3) or the permanent database")
	stringVar(&opts.s3Endpoint, "s3-endpoint", "", "s3 endpoint")
	stringVar(&opts.s3AccessKey, "s3-access-key", "", "s3 access key")
	stringVar(&opts.s3AccessSecret, "s3-access-secret", "", "s3 access secret")
	stringVar(&opts.s3Bucket, "s3-bucket", "", "s3 bucket")
	flag.Parse()

	if opts.serve {
		runServe(opts)
		return
	}
	runBatch(opts)
}

func runBatch(opts optsType) {
	args := flag.Args()
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: netlogdiff [--format=html|json|csv] [--lang=en] [--config=path.toml] <src-dir> <out-dir>")
		os.Exit(2)
	}
	opts.src, opts.out = args[0], args[1]

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	eng, err := diffengine.New(cfg.IgnorePatterns)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}

	pairs, err := discovery.Find(opts.src)
	if err != nil {
		log.Fatalf("discovery: %v", err)
	}
	if len(pairs) == 0 {
		log.Fatal("no host pairs found")
	}

	renderer, ext, err := buildRenderer(opts.format, cfg)
	if err != nil {
		log.Fatalf("render: %v", err)
	}

	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		log.Fatalf("output dir: %v", err)
	}

	results, err := orchestrator.Run(context.Background(), pairs, eng, renderer, ext, opts.out)
	if err != nil {
		// Partial failures are logged but do not abort the batch; the
		// index still reflects every pair that did succeed.
		log.Printf("orchestrator: %v", err)
	}

	cat, err := locale.Load(opts.lang)
	if err != nil {
		log.Fatalf("locale: %v", err)
	}
	if err := writeIndex(opts.out, results, cat, ext); err != nil {
		log.Fatalf("index: %v", err)
	}

	fmt.Printf("wrote report for %d host pairs to %s\n", len(results), opts.out)
}

func buildRenderer(format string, cfg *config.Config) (render.Renderer, string, error) {
	switch format {
	case "json":
		return render.JSON{Indent: "  "}, "json", nil
	case "csv":
		return render.CSV{}, "csv", nil
	case "html", "":
		hl, err := render.NewHighlighter(cfg.SyntaxHighlighting)
		if err != nil {
			return nil, "", err
		}
		return render.HTML{Highlighter: hl}, "html", nil
	default:
		return nil, "", fmt.Errorf("unknown format %q", format)
	}
}

func writeIndex(outDir string, results []orchestrator.Result, cat *locale.Catalog, outputExt string) error {
	data := templates.IndexTemplateData{GeneratedAt: time.Now().Format("2006-01-02 15:04:05")}

	// results arrive pre-sorted by (Folder, Address) from orchestrator.Run;
	// group consecutive same-folder runs into one FolderSummary each,
	// matching original_source/reporting.py's (folder, ip)-grouped index.
	var cur *templates.FolderSummary
	for _, res := range results {
		if cur == nil || cur.Folder != res.Pair.Folder {
			data.Folders = append(data.Folders, templates.FolderSummary{Folder: res.Pair.Folder})
			cur = &data.Folders[len(data.Folders)-1]
		}

		status := cat.Get("status_missing")
		switch {
		case res.Pair.Status != discovery.StatusOK:
			status = cat.Get("status_missing")
		case res.Report.IsDifferent:
			status = cat.Get("status_different")
		default:
			status = cat.Get("status_identical")
		}
		cur.Hosts = append(cur.Hosts, templates.HostSummary{
			Address: res.Pair.Address,
			Status:  status,
			Link:    "diffs/diff_" + orchestrator.ReportFileStem(res.Pair) + "." + outputExt,
			Changed: res.Report.Stats.Changed,
			Added:   res.Report.Stats.Added,
			Removed: res.Report.Stats.Removed,
		})
		data.Total.Identical += res.Report.Stats.Identical
		data.Total.Changed += res.Report.Stats.Changed
		data.Total.Added += res.Report.Stats.Added
		data.Total.Removed += res.Report.Stats.Removed
	}

	f, err := os.Create(outDir + "/index.html")
	if err != nil {
		return err
	}
	defer f.Close()
	return templates.Templates.ExecuteTemplate(f, "index.tmpl", data)
}

func runServe(opts optsType) {
	bdb, err := bbolt.Open(opts.dbFile, 0o600, nil)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}

	var store storage.Storage
	if opts.s3Endpoint == "" {
		store = storage.NewDBStorage(bdb, []byte("storage"))
	} else {
		minioClient, err := minio.New(opts.s3Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(opts.s3AccessKey, opts.s3AccessSecret, ""),
			Secure: true,
		})
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		permanent := storage.NewMinioStorage(minioClient, opts.s3Bucket)
		cache := storage.NewDBStorage(bdb, []byte("cache")).(storage.ListStorage)
		store, err = storage.NewCachedStorage(cache, permanent, 64<<20)
		if err != nil {
			log.Fatalf("cache init error: %v", err)
		}
	}

	srv := &nethttp.Server{
		PublicURL: opts.publicURL,
		Storage:   store,
		DB:        &db.DB{DB: bdb},
		Engine:    diffengine.NewDefault(),
	}

	fmt.Println("listening on", opts.listenAddr)
	log.Fatal(http.ListenAndServe(opts.listenAddr, srv.Router()))
}
