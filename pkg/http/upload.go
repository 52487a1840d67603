package http

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/multierr"

	"github.com/netlogdiff/netlogdiff/pkg/db"
	"github.com/netlogdiff/netlogdiff/pkg/storage"
)

// upload accepts a multipart "pre"/"post" file pair, bundles them into a
// tar.gz (content-addressed by sha256), rate-limits by remote address, and
// stores the bundle for later diffing by serveReport/serveFile.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		w.WriteHeader(400)
		w.Write([]byte("error: " + err.Error() + "\n"))
		w.Write(s.usageString())
		return nil
	}
	defer r.MultipartForm.RemoveAll()

	arc, err := archiveFromFormFiles(r.MultipartForm)
	if err != nil {
		return err
	}

	id := storage.ContentID(arc)
	link := s.PublicURL + "/" + id
	output := func() {
		w.Header().Set(ctHeader, ctPlain)
		w.Header().Set("Location", link)
		w.WriteHeader(http.StatusFound)
		w.Write([]byte(link + "\n"))
	}

	has, err := s.DB.HasReport(id)
	if err != nil {
		return err
	}
	if has {
		output()
		return nil
	}

	now := time.Now().UTC()
	weekNum := (now.YearDay() - 1) / 7
	err = s.DB.AddAmountsAndCompare(
		r.RemoteAddr,
		db.UsageStat{
			Period:   fmt.Sprintf("%d/%d", now.Year(), weekNum),
			NumBytes: uint64(len(arc)),
			NumCalls: 1,
		},
		db.UploadLimits{MaxBytes: maxBytesWeek, MaxCalls: maxCallsWeek},
	)
	if err != nil {
		if errors.Is(err, db.ErrLimitsExceeded) {
			w.Header().Set(ctHeader, ctPlain)
			w.WriteHeader(http.StatusTooManyRequests)
			resetTime := time.Date(now.Year(), time.January, ((weekNum+1)*7)+1, 0, 0, 0, 0, time.UTC)
			w.Write([]byte(fmt.Sprintf(
				"limit exceeded; will reset on %s (in %s)\n",
				resetTime.Format(time.RFC3339), resetTime.Sub(now),
			)))
			return nil
		}
		return err
	}

	if err := s.Storage.Put(r.Context(), id, arc); err != nil {
		return err
	}

	sum := sha256.Sum256(arc)
	if err := s.DB.PutReport(id, db.ReportRecord{
		ID:        id,
		CreatedAt: time.Now(),
		Sum:       hex.EncodeToString(sum[:]),
	}); err != nil {
		return multierr.Combine(err, s.Storage.Del(context.Background(), id))
	}

	output()
	return nil
}

var gzipWriterPool = sync.Pool{
	New: func() any { return &gzip.Writer{} },
}

func archiveFromFormFiles(mf *multipart.Form) ([]byte, error) {
	preS, postS := mf.File["pre"], mf.File["post"]
	if len(preS) != 1 || len(postS) != 1 {
		return nil, errUsage
	}
	pre, post := preS[0], postS[0]

	var buf bytes.Buffer
	gz := gzipWriterPool.Get().(*gzip.Writer)
	gz.Reset(&buf)
	defer gzipWriterPool.Put(gz)
	tw := tar.NewWriter(gz)

	for _, f := range [...]*multipart.FileHeader{pre, post} {
		fr, err := f.Open()
		if err != nil {
			return nil, err
		}
		err = tarWriteMultipart(tw, f.Filename, f.Size, fr)
		fr.Close()
		if err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func tarWriteMultipart(tw *tar.Writer, name string, size int64, r io.Reader) error {
	err := tw.WriteHeader(&tar.Header{Name: name, Size: size, Mode: 0o600})
	if err != nil {
		return err
	}
	_, err = io.Copy(tw, r)
	return err
}

