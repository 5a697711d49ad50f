// ABOUTME: YAML file-based storage backend for run records
// ABOUTME: Stores one human-readable YAML file per run in a directory

package storage

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/runtrack/internal/models"
	"gopkg.in/yaml.v3"
)

const yamlExt = ".yaml"

// YAMLStore provides file-based storage with one YAML document per run.
type YAMLStore struct {
	dir string
}

// Compile-time check that YAMLStore implements RunStore.
var _ RunStore = (*YAMLStore)(nil)

// NewYAMLStore creates a YAML store rooted at dir.
func NewYAMLStore(dir string) (*YAMLStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil { //nolint:gosec // 0750 is appropriate for user data directory
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &YAMLStore{dir: dir}, nil
}

// Dir returns the directory holding run files.
func (s *YAMLStore) Dir() string {
	return s.dir
}

// Close releases resources. For YAMLStore this is a no-op.
func (s *YAMLStore) Close() error {
	return nil
}

// fileName maps a key to a filesystem-safe name.
func fileName(key string) string {
	return url.QueryEscape(key) + yamlExt
}

func (s *YAMLStore) path(key string) string {
	return filepath.Join(s.dir, fileName(key))
}

// Put writes the run file atomically.
func (s *YAMLStore) Put(key string, rec *models.RunRecord) error {
	if key == "" {
		return storageErr("write run", errors.New("empty key"))
	}
	data, err := yaml.Marshal(rec)
	if err != nil {
		return storageErr("marshal run", err)
	}
	if err := atomicWrite(s.path(key), data); err != nil {
		return storageErr("write run", err)
	}
	return nil
}

// Get reads a run file.
func (s *YAMLStore) Get(key string) (*models.RunRecord, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("read run", err)
	}

	var rec models.RunRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, storageErr("parse run", err)
	}
	if rec.Route == nil {
		rec.Route = []models.GeoPoint{}
	}
	return &rec, nil
}

// List returns the keys of all run files.
func (s *YAMLStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, storageErr("read data directory", err)
	}

	keys := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, yamlExt) || strings.HasPrefix(name, ".") {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, yamlExt))
		if err != nil {
			// Not one of ours
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Delete removes a run file. Missing files are ignored.
func (s *YAMLStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return storageErr("delete run", err)
	}
	return nil
}

// atomicWrite writes data to a temp file in the same directory and renames it into place.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
