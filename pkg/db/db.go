// Package db is a thin bbolt wrapper centralizing the report index and
// per-client upload rate limiting, adapted from the teacher's pkg/db.
package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/netlogdiff/netlogdiff/pkg/diffengine"
)

// DB centralizes the bbolt buckets this module uses: one report record per
// host pair, and one usage-stat entry per rate-limited client.
type DB struct {
	DB *bbolt.DB

	err  error
	once sync.Once
}

func (d *DB) init() error {
	d.once.Do(d._init)
	return d.err
}

var (
	bReports = []byte("reports")
	bStats   = []byte("stats")

	buckets = [...][]byte{bReports, bStats}
)

func (d *DB) _init() {
	err := d.DB.Update(func(tx *bbolt.Tx) error {
		for _, buck := range buckets {
			if _, err := tx.CreateBucketIfNotExists(buck); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		d.err = fmt.Errorf("db: initialization error: %w", err)
	}
}

// ReportRecord
// -----------------------------------------------------------------------------

// ReportRecord indexes one report by its ID (for an HTTP upload, the
// storage ID of the uploaded pre/post bundle) together with its top-level
// stats and metadata.
type ReportRecord struct {
	ID          string           `json:"id"`
	Address     string           `json:"address"`
	Folder      string           `json:"folder,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	Sum         string           `json:"sum,omitempty"`
	Stats       diffengine.Stats `json:"stats"`
	IsDifferent bool             `json:"is_different"`
}

// IsZero reports whether r is the zero value, i.e. no record was found.
func (r ReportRecord) IsZero() bool {
	return r.ID == ""
}

// HasReport reports whether a record exists for id.
func (d *DB) HasReport(id string) (bool, error) {
	if err := d.init(); err != nil {
		return false, err
	}
	var has bool
	err := d.DB.View(func(tx *bbolt.Tx) error {
		has = tx.Bucket(bReports).Get([]byte(id)) != nil
		return nil
	})
	return has, err
}

// PutReport indexes a report record by its storage ID.
func (d *DB) PutReport(id string, r ReportRecord) error {
	if err := d.init(); err != nil {
		return err
	}
	encoded, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return d.DB.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(bReports).Put([]byte(id), encoded)
	})
}

// GetReport looks up a record by its storage ID. A missing record returns
// the zero ReportRecord and a nil error, the same "absence is not an
// error" convention as the teacher's GetFile.
func (d *DB) GetReport(id string) (ReportRecord, error) {
	if err := d.init(); err != nil {
		return ReportRecord{}, err
	}
	var buf []byte
	err := d.DB.View(func(tx *bbolt.Tx) error {
		buf = append(buf, tx.Bucket(bReports).Get([]byte(id))...)
		return nil
	})
	if err != nil || len(buf) == 0 {
		return ReportRecord{}, err
	}
	var r ReportRecord
	err = json.Unmarshal(buf, &r)
	return r, err
}

// ListByAddress returns every indexed record for the given device
// address, in ascending order of their storage ID (bbolt key order).
func (d *DB) ListByAddress(address string) ([]ReportRecord, error) {
	if err := d.init(); err != nil {
		return nil, err
	}
	var out []ReportRecord
	err := d.DB.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bReports).ForEach(func(k, v []byte) error {
			var r ReportRecord
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			if r.Address == address {
				out = append(out, r)
			}
			return nil
		})
	})
	return out, err
}

// UsageStat
// -----------------------------------------------------------------------------

// UsageStat tracks cumulative upload volume for one client within one
// rate-limit period.
type UsageStat struct {
	Period   string `json:"p"`
	NumBytes uint64 `json:"nb"`
	NumCalls uint64 `json:"nc"`
}

// UploadLimits bounds UsageStat before AddAmountsAndCompare rejects a call.
type UploadLimits struct {
	MaxBytes uint64
	MaxCalls uint64
}

// ErrLimitsExceeded is returned by AddAmountsAndCompare when the updated
// usage for name would exceed limits.
var ErrLimitsExceeded = errors.New("limits exceeded")

// AddAmountsAndCompare increases the stats for name, and ensures that the
// updated stats are within the given limits. If the limits are exceeded,
// ErrLimitsExceeded is returned and the new totals are not persisted.
func (d *DB) AddAmountsAndCompare(name string, deltaStat UsageStat, limits UploadLimits) error {
	if err := d.init(); err != nil {
		return err
	}
	return d.DB.Batch(func(tx *bbolt.Tx) error {
		bk := tx.Bucket(bStats)
		val := bk.Get([]byte(name))
		var stat UsageStat
		if len(val) != 0 {
			if err := json.Unmarshal(val, &stat); err != nil {
				return err
			}
		}

		if stat.Period == deltaStat.Period {
			stat.NumCalls += deltaStat.NumCalls
			stat.NumBytes += deltaStat.NumBytes
		} else {
			stat = deltaStat
		}

		if stat.NumBytes > limits.MaxBytes || stat.NumCalls > limits.MaxCalls {
			return ErrLimitsExceeded
		}

		res, err := json.Marshal(stat)
		if err != nil {
			return err
		}
		return bk.Put([]byte(name), res)
	})
}
