// ABOUTME: Tests for runtrack config functionality
// ABOUTME: Verifies config load, save, path resolution, env overrides, and backend factory

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/runtrack/internal/storage"
)

// isolate points every XDG and RUNTRACK variable at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("XDG_DATA_HOME", tmpDir)
	t.Setenv(EnvBackend, "")
	t.Setenv(EnvDataDir, "")
	t.Setenv(EnvMinSampleMeters, "")
	return tmpDir
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()
	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
	if !filepath.IsAbs(path) {
		t.Errorf("GetConfigPath returned non-absolute path: %s", path)
	}
}

func TestGetConfigPathWithXDGConfigHome(t *testing.T) {
	tmpDir := isolate(t)

	path := GetConfigPath()
	if !strings.HasPrefix(path, tmpDir) {
		t.Errorf("GetConfigPath should use XDG_CONFIG_HOME, got %s", path)
	}
	if !strings.HasSuffix(path, filepath.Join("runtrack", "config.json")) {
		t.Errorf("GetConfigPath should end with runtrack/config.json, got %s", path)
	}
	if GetEnvPath() != filepath.Join(tmpDir, "runtrack", ".env") {
		t.Errorf("unexpected env path %s", GetEnvPath())
	}
}

func TestGetConfigPathWithoutXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	path := GetConfigPath()
	// Should fall back to ~/.config
	if !strings.Contains(path, ".config") {
		t.Errorf("GetConfigPath should use .config fallback, got %s", path)
	}
}

func TestLoadNonExistent(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed on non-existent config: %v", err)
	}
	if cfg.GetBackend() != BackendSQLite {
		t.Errorf("expected default backend 'sqlite', got %q", cfg.Backend)
	}
	if cfg.GetMinSampleMeters() != DefaultMinSampleMeters {
		t.Errorf("expected default threshold, got %f", cfg.GetMinSampleMeters())
	}

	// Verify config file was auto-created
	data, err := os.ReadFile(GetConfigPath())
	if err != nil {
		t.Fatalf("expected config file to be auto-created on first run: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("auto-created config is not valid JSON: %v", err)
	}
	if raw["backend"] != "sqlite" {
		t.Errorf("expected auto-created backend 'sqlite', got %v", raw["backend"])
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := isolate(t)

	configDir := filepath.Join(tmpDir, "runtrack")
	if err := os.MkdirAll(configDir, 0750); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte("invalid json {{{"), 0600); err != nil {
		t.Fatalf("failed to write invalid config: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Error("Load should fail on invalid JSON")
	}
}

func TestSaveAndLoadWithAllFields(t *testing.T) {
	isolate(t)

	meters := 2.5
	cfg := &Config{Backend: "badger", DataDir: "/custom/data", MinSampleMeters: &meters}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Backend != "badger" {
		t.Errorf("expected backend 'badger', got %q", loaded.Backend)
	}
	if loaded.DataDir != "/custom/data" {
		t.Errorf("expected data_dir '/custom/data', got %q", loaded.DataDir)
	}
	if loaded.GetMinSampleMeters() != 2.5 {
		t.Errorf("expected threshold 2.5, got %f", loaded.GetMinSampleMeters())
	}
}

func TestSaveUsesSnakeCaseKeys(t *testing.T) {
	isolate(t)

	meters := 0.0
	cfg := &Config{Backend: "yaml", DataDir: "~/my-data", MinSampleMeters: &meters}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(GetConfigPath())
	if err != nil {
		t.Fatalf("read config file: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw JSON: %v", err)
	}
	if raw["backend"] != "yaml" || raw["data_dir"] != "~/my-data" {
		t.Errorf("unexpected keys: %v", raw)
	}
	if raw["min_sample_meters"] != 0.0 {
		t.Errorf("expected explicit zero threshold to be kept, got %v", raw["min_sample_meters"])
	}
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)

	if err := (&Config{Backend: "sqlite", DataDir: "/from/file"}).Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	t.Setenv(EnvBackend, "yaml")
	t.Setenv(EnvDataDir, "/from/env")
	t.Setenv(EnvMinSampleMeters, "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GetBackend() != "yaml" {
		t.Errorf("expected env backend, got %q", cfg.Backend)
	}
	if cfg.GetDataDir() != "/from/env" {
		t.Errorf("expected env data dir, got %q", cfg.DataDir)
	}
	if cfg.GetMinSampleMeters() != 0 {
		t.Errorf("expected threshold 0, got %f", cfg.GetMinSampleMeters())
	}
}

func TestDotEnvFile(t *testing.T) {
	tmpDir := isolate(t)

	envDir := filepath.Join(tmpDir, "runtrack")
	if err := os.MkdirAll(envDir, 0750); err != nil {
		t.Fatal(err)
	}
	content := "RUNTRACK_BACKEND=badger\nRUNTRACK_MIN_SAMPLE_METERS=5\n"
	if err := os.WriteFile(filepath.Join(envDir, ".env"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	// Process environment wins over the file.
	t.Setenv(EnvMinSampleMeters, "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GetBackend() != "badger" {
		t.Errorf("expected dotenv backend, got %q", cfg.Backend)
	}
	if cfg.GetMinSampleMeters() != 3 {
		t.Errorf("expected process env threshold 3, got %f", cfg.GetMinSampleMeters())
	}
}

func TestInvalidMinSampleEnv(t *testing.T) {
	isolate(t)

	for _, v := range []string{"abc", "-1", "NaN", "Inf", "-Inf"} {
		t.Setenv(EnvMinSampleMeters, v)
		if _, err := Load(); err == nil {
			t.Errorf("expected error for %s=%q", EnvMinSampleMeters, v)
		}
	}
}

func TestDefaultBackend(t *testing.T) {
	cfg := &Config{}
	if backend := cfg.GetBackend(); backend != "sqlite" {
		t.Errorf("expected default backend 'sqlite', got %q", backend)
	}
	cfg.Backend = "YAML"
	if backend := cfg.GetBackend(); backend != "yaml" {
		t.Errorf("expected backend lowercased, got %q", backend)
	}
}

func TestDefaultDataDir(t *testing.T) {
	cfg := &Config{}
	dataDir := cfg.GetDataDir()
	if !filepath.IsAbs(dataDir) {
		t.Errorf("GetDataDir returned non-absolute path: %s", dataDir)
	}
	if filepath.Base(dataDir) != "runtrack" {
		t.Errorf("GetDataDir should end with 'runtrack', got %s", dataDir)
	}
	if cfg.UnsavedDir() != filepath.Join(dataDir, "unsaved") {
		t.Errorf("unexpected unsaved dir %s", cfg.UnsavedDir())
	}
}

func TestNegativeThresholdFallsBack(t *testing.T) {
	meters := -4.0
	cfg := &Config{MinSampleMeters: &meters}
	if cfg.GetMinSampleMeters() != DefaultMinSampleMeters {
		t.Errorf("expected default threshold, got %f", cfg.GetMinSampleMeters())
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("cannot get home dir: %v", err)
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/foo", filepath.Join(home, "foo")},
		{"~", home},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}

	for _, tt := range tests {
		result := ExpandPath(tt.input)
		if result != tt.expected {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestOpenStorageBackends(t *testing.T) {
	tests := []struct {
		backend string
		check   func(t *testing.T, s storage.RunStore, dir string)
	}{
		{"sqlite", func(t *testing.T, s storage.RunStore, dir string) {
			if _, ok := s.(*storage.SQLiteStore); !ok {
				t.Errorf("expected *SQLiteStore, got %T", s)
			}
			if _, err := os.Stat(filepath.Join(dir, "runs.db")); err != nil {
				t.Errorf("runs.db not created: %v", err)
			}
		}},
		{"badger", func(t *testing.T, s storage.RunStore, dir string) {
			if _, ok := s.(*storage.BadgerStore); !ok {
				t.Errorf("expected *BadgerStore, got %T", s)
			}
		}},
		{"yaml", func(t *testing.T, s storage.RunStore, dir string) {
			if _, ok := s.(*storage.YAMLStore); !ok {
				t.Errorf("expected *YAMLStore, got %T", s)
			}
			if info, err := os.Stat(filepath.Join(dir, "runs")); err != nil || !info.IsDir() {
				t.Errorf("runs/ not created: %v", err)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			dir := t.TempDir()
			cfg := &Config{Backend: tt.backend, DataDir: dir}
			store, err := cfg.OpenStorage(nil)
			if err != nil {
				t.Fatalf("OpenStorage failed for %s: %v", tt.backend, err)
			}
			defer store.Close()
			tt.check(t, store, dir)
		})
	}
}

func TestOpenStorageUnknownBackend(t *testing.T) {
	cfg := &Config{Backend: "redis", DataDir: t.TempDir()}

	_, err := cfg.OpenStorage(nil)
	if err == nil {
		t.Fatal("expected error for unknown backend, got nil")
	}
	if !strings.Contains(err.Error(), "unknown backend") {
		t.Errorf("expected 'unknown backend' error, got: %v", err)
	}
}
