// ABOUTME: Badger key-value storage implementation for run records
// ABOUTME: Embedded LSM store with run: prefixed keys and JSON values

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v3"
	"github.com/harper/runtrack/internal/models"
)

// BadgerStore implements RunStore on an embedded Badger database.
// Badger holds an exclusive lock on its directory while open.
type BadgerStore struct {
	db  *badger.DB
	dir string
}

// Compile-time check that BadgerStore implements RunStore.
var _ RunStore = (*BadgerStore)(nil)

// badgerLogger routes Badger's internal messages through a charm logger.
type badgerLogger struct {
	l *log.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{})   { b.l.Errorf(format, args...) }
func (b badgerLogger) Warningf(format string, args ...interface{}) { b.l.Warnf(format, args...) }
func (b badgerLogger) Infof(format string, args ...interface{})    { b.l.Debugf(format, args...) }
func (b badgerLogger) Debugf(format string, args ...interface{})   { b.l.Debugf(format, args...) }

// NewBadgerStore opens or creates a Badger database in dir.
// A nil logger silences Badger.
func NewBadgerStore(dir string, logger *log.Logger) (*BadgerStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil { //nolint:gosec // 0750 is appropriate for user data directory
		return nil, fmt.Errorf("create directory: %w", err)
	}

	opts := badger.DefaultOptions(dir)
	if logger != nil {
		opts = opts.WithLogger(badgerLogger{l: logger.WithPrefix("badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db, dir: dir}, nil
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Put inserts or replaces a run.
func (s *BadgerStore) Put(key string, rec *models.RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return storageErr("marshal run", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return storageErr("set run", err)
	}
	return nil
}

// Get retrieves a run by key.
func (s *BadgerStore) Get(key string) (*models.RunRecord, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get run", err)
	}

	var rec models.RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, storageErr("unmarshal run", err)
	}
	return &rec, nil
}

// List returns every key with the run prefix.
func (s *BadgerStore) List() ([]string, error) {
	keys := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(models.RecordKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("list runs", err)
	}
	return keys, nil
}

// Delete removes a run. Missing keys are ignored.
func (s *BadgerStore) Delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return storageErr("delete run", err)
	}
	return nil
}

// Reset removes every run.
func (s *BadgerStore) Reset() error {
	if err := s.db.DropPrefix([]byte(models.RecordKeyPrefix)); err != nil {
		return storageErr("reset", err)
	}
	return nil
}
