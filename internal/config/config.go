// ABOUTME: Runtrack configuration management with backend selection
// ABOUTME: Handles settings, environment overrides, and storage backend factory

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/runtrack/internal/storage"
	"github.com/harper/runtrack/internal/tracker"
	"github.com/joho/godotenv"
)

// Backend names accepted in the config file and RUNTRACK_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendYAML   = "yaml"
)

// Environment variables that override the config file.
const (
	EnvBackend         = "RUNTRACK_BACKEND"
	EnvDataDir         = "RUNTRACK_DATA_DIR"
	EnvMinSampleMeters = "RUNTRACK_MIN_SAMPLE_METERS"
)

// DefaultMinSampleMeters is the route sampling threshold when none is configured.
const DefaultMinSampleMeters = 1.0

// defaultDBFilename is the SQLite database filename inside the data directory.
const defaultDBFilename = "runs.db"

// Config stores runtrack configuration.
type Config struct {
	// Backend selects the storage backend: "sqlite" (default), "badger" or "yaml".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for data storage.
	// SQLite puts runs.db here, Badger uses badger/, YAML uses runs/.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/runtrack.
	DataDir string `json:"data_dir,omitempty"`

	// MinSampleMeters is the minimum spacing between stored route samples.
	// Nil means the default of one meter.
	MinSampleMeters *float64 `json:"min_sample_meters,omitempty"`
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return BackendSQLite
	}
	return strings.ToLower(c.Backend)
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetMinSampleMeters returns the route sampling threshold.
func (c *Config) GetMinSampleMeters() float64 {
	if c.MinSampleMeters == nil || tracker.ValidateMinSampleDistance(*c.MinSampleMeters) != nil {
		return DefaultMinSampleMeters
	}
	return *c.MinSampleMeters
}

// UnsavedDir is where runs that could not reach the configured store are parked.
func (c *Config) UnsavedDir() string {
	return filepath.Join(c.GetDataDir(), "unsaved")
}

// defaultDataDir returns the default XDG data directory for runtrack.
func defaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "runtrack")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates a RunStore based on the configured backend.
// The logger receives Badger's internal messages and may be nil.
func (c *Config) OpenStorage(logger *log.Logger) (storage.RunStore, error) {
	return Open(c.GetBackend(), c.GetDataDir(), logger)
}

// Open creates a RunStore of the named backend rooted at dataDir.
func Open(backend, dataDir string, logger *log.Logger) (storage.RunStore, error) {
	switch backend {
	case BackendSQLite:
		return storage.NewSQLiteStore(filepath.Join(dataDir, defaultDBFilename))
	case BackendBadger:
		return storage.NewBadgerStore(filepath.Join(dataDir, "badger"), logger)
	case BackendYAML:
		return storage.NewYAMLStore(filepath.Join(dataDir, "runs"))
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "runtrack", "config.json")
}

// GetEnvPath returns the optional dotenv file read alongside the config.
func GetEnvPath() string {
	return filepath.Join(filepath.Dir(GetConfigPath()), ".env")
}

// Load reads config from disk and applies environment overrides.
// A default config file is written on first run.
func Load() (*Config, error) {
	path := GetConfigPath()
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		cfg = Config{Backend: BackendSQLite}
		if saveErr := cfg.Save(); saveErr != nil {
			fmt.Fprintf(os.Stderr, "warning: could not save default config: %v\n", saveErr)
		}
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overlays the process environment, then the dotenv file, onto c.
// Process variables take precedence over the file.
func (c *Config) applyEnv() error {
	vars, err := godotenv.Read(GetEnvPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read %s: %w", GetEnvPath(), err)
	}
	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return vars[key]
	}

	if v := lookup(EnvBackend); v != "" {
		c.Backend = v
	}
	if v := lookup(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := lookup(EnvMinSampleMeters); v != "" {
		meters, err := strconv.ParseFloat(v, 64)
		if err == nil {
			err = tracker.ValidateMinSampleDistance(meters)
		}
		if err != nil {
			return fmt.Errorf("invalid %s %q: must be a finite non-negative number", EnvMinSampleMeters, v)
		}
		c.MinSampleMeters = &meters
	}
	return nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil { //nolint:gosec // user config directory
		return err
	}
	return os.WriteFile(path, data, 0600)
}
