// ABOUTME: Run store interface and history helpers
// ABOUTME: Enables testability and storage backend swapping

package storage

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/harper/runtrack/internal/models"
)

// RunStore persists completed runs keyed by models.RecordKey.
type RunStore interface {
	// Put inserts or replaces the record stored under key.
	Put(key string, rec *models.RunRecord) error
	// Get returns ErrNotFound when key has no record.
	Get(key string) (*models.RunRecord, error)
	// List returns every stored key in no particular order.
	List() ([]string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	Close() error
}

// storageErr marks err as a medium failure while keeping its message.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// KeyedRecord pairs a record with the key it is stored under.
type KeyedRecord struct {
	Key    string
	Record *models.RunRecord
}

// ListRecords loads every run, newest first.
func ListRecords(store RunStore) ([]KeyedRecord, error) {
	keys, err := store.List()
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	records := make([]KeyedRecord, 0, len(keys))
	for _, key := range keys {
		rec, err := store.Get(key)
		if err != nil {
			// Deleted between List and Get
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get run %s: %w", key, err)
		}
		records = append(records, KeyedRecord{Key: key, Record: rec})
	}

	sort.SliceStable(records, func(i, j int) bool {
		di, dj := records[i].Record.Date, records[j].Record.Date
		if di.Equal(dj) {
			return records[i].Key > records[j].Key
		}
		return di.After(dj)
	})
	return records, nil
}

// FilterSince keeps records dated at or after since. A zero since keeps everything.
func FilterSince(records []KeyedRecord, since time.Time) []KeyedRecord {
	if since.IsZero() {
		return records
	}
	var out []KeyedRecord
	for _, r := range records {
		if !r.Record.Date.Before(since) {
			out = append(out, r)
		}
	}
	return out
}

// FilterRange keeps records dated within [from, to]. Zero bounds are open.
func FilterRange(records []KeyedRecord, from, to time.Time) []KeyedRecord {
	var out []KeyedRecord
	for _, r := range records {
		if !from.IsZero() && r.Record.Date.Before(from) {
			continue
		}
		if !to.IsZero() && r.Record.Date.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Summary aggregates a set of runs.
type Summary struct {
	Runs            int
	DistanceMeters  float64
	DurationSeconds int64
	LongestMeters   float64
	FastestSpeed    float64
}

// AverageSpeed returns the overall meters per second across all runs.
func (s Summary) AverageSpeed() float64 {
	return models.AverageSpeed(s.DistanceMeters, s.DurationSeconds)
}

// Summarize totals records.
func Summarize(records []KeyedRecord) Summary {
	var s Summary
	for _, r := range records {
		s.Runs++
		s.DistanceMeters += r.Record.DistanceMeters
		s.DurationSeconds += r.Record.DurationSeconds
		if r.Record.DistanceMeters > s.LongestMeters {
			s.LongestMeters = r.Record.DistanceMeters
		}
		if r.Record.AverageSpeed > s.FastestSpeed {
			s.FastestSpeed = r.Record.AverageSpeed
		}
	}
	return s
}
