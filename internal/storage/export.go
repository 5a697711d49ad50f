// ABOUTME: Export and import functionality for run history
// ABOUTME: Supports YAML backup format and markdown export

package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/harper/runtrack/internal/models"
	"gopkg.in/yaml.v3"
)

// BackupVersion is the current backup format version.
const BackupVersion = "1.0"

// BackupTool identifies backups written by this program.
const BackupTool = "runtrack"

// Backup represents the YAML backup format.
type Backup struct {
	Version    string      `yaml:"version"`
	ExportedAt time.Time   `yaml:"exported_at"`
	Tool       string      `yaml:"tool"`
	Runs       []RunBackup `yaml:"runs"`
}

// RunBackup represents a run in the backup format.
type RunBackup struct {
	Key    string            `yaml:"key"`
	Record *models.RunRecord `yaml:"record"`
}

// ExportToYAML exports all runs to YAML format, newest first.
func ExportToYAML(store RunStore) ([]byte, error) {
	records, err := ListRecords(store)
	if err != nil {
		return nil, err
	}
	return MarshalBackup(records)
}

// MarshalBackup encodes records in the backup format.
func MarshalBackup(records []KeyedRecord) ([]byte, error) {
	backup := Backup{
		Version:    BackupVersion,
		ExportedAt: time.Now().UTC(),
		Tool:       BackupTool,
		Runs:       make([]RunBackup, len(records)),
	}
	for i, r := range records {
		backup.Runs[i] = RunBackup{Key: r.Key, Record: r.Record}
	}
	return yaml.Marshal(backup)
}

// ImportFromYAML restores runs from a YAML backup.
// Existing runs with the same key are replaced. Returns the number imported.
func ImportFromYAML(store RunStore, data []byte) (int, error) {
	var backup Backup
	if err := yaml.Unmarshal(data, &backup); err != nil {
		return 0, fmt.Errorf("parse yaml: %w", err)
	}

	if backup.Version != BackupVersion {
		return 0, fmt.Errorf("unsupported backup version: %s (expected %s)", backup.Version, BackupVersion)
	}

	if backup.Tool != BackupTool {
		return 0, fmt.Errorf("wrong tool: %s (expected %s)", backup.Tool, BackupTool)
	}

	for i, run := range backup.Runs {
		if run.Record == nil {
			return i, fmt.Errorf("run %d has no record", i)
		}
		key := run.Key
		if key == "" {
			key = run.Record.Key()
		} else if _, err := models.ParseRecordKey(key); err != nil {
			return i, err
		}
		if run.Record.Route == nil {
			run.Record.Route = []models.GeoPoint{}
		}
		if err := store.Put(key, run.Record); err != nil {
			return i, fmt.Errorf("import run %s: %w", key, err)
		}
	}

	return len(backup.Runs), nil
}

// ExportToMarkdown renders run history as a markdown table.
func ExportToMarkdown(records []KeyedRecord) []byte {
	var sb strings.Builder

	now := time.Now().UTC()
	sb.WriteString(fmt.Sprintf("# Run History - %s\n\n", now.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	if len(records) == 0 {
		sb.WriteString("No runs recorded.\n")
		return []byte(sb.String())
	}

	sb.WriteString("| Date | Distance (m) | Duration | Avg speed (m/s) | Samples |\n")
	sb.WriteString("|------|--------------|----------|-----------------|---------|\n")

	for _, r := range records {
		rec := r.Record
		sb.WriteString(fmt.Sprintf("| %s | %.2f | %s | %.2f | %d |\n",
			rec.Date.Format("2006-01-02 15:04"),
			models.Round2(rec.DistanceMeters),
			models.FormatClock(rec.DurationSeconds),
			models.Round2(rec.AverageSpeed),
			len(rec.Route)))
	}

	summary := Summarize(records)
	sb.WriteString(fmt.Sprintf("\n%d runs, %.2f m total, %s total time\n",
		summary.Runs, models.Round2(summary.DistanceMeters), models.FormatClock(summary.DurationSeconds)))

	return []byte(sb.String())
}
