// ABOUTME: Data migration between run storage backends
// ABOUTME: Copies every run from a source store into a destination store

package storage

import (
	"fmt"
	"os"
)

// MigrateSummary holds counts of migrated runs.
type MigrateSummary struct {
	Runs int
}

// MigrateData copies all runs from src to dst, keeping their keys.
// Runs already present in dst under the same key are replaced.
func MigrateData(src, dst RunStore) (*MigrateSummary, error) {
	summary := &MigrateSummary{}

	keys, err := src.List()
	if err != nil {
		return nil, fmt.Errorf("list source runs: %w", err)
	}

	for _, key := range keys {
		rec, err := src.Get(key)
		if err != nil {
			return nil, fmt.Errorf("get run %s: %w", key, err)
		}
		if err := dst.Put(key, rec); err != nil {
			return nil, fmt.Errorf("put run %s: %w", key, err)
		}
		summary.Runs++
	}

	return summary, nil
}

// IsDirNonEmpty checks whether a directory exists and contains any files or subdirectories.
// Returns false if the directory does not exist or is empty.
func IsDirNonEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read directory %q: %w", path, err)
	}
	return len(entries) > 0, nil
}
