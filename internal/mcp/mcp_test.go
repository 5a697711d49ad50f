// ABOUTME: Tests for MCP server, tools, and resources
// ABOUTME: Verifies MCP integration with the run store interface

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/harper/runtrack/internal/models"
	"github.com/harper/runtrack/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// mockStore implements storage.RunStore for testing.
type mockStore struct {
	runs map[string]*models.RunRecord

	putErr    error
	getErr    error
	listErr   error
	deleteErr error
	deleted   []string
}

func newMockStore() *mockStore {
	return &mockStore{runs: make(map[string]*models.RunRecord)}
}

func (m *mockStore) Put(key string, rec *models.RunRecord) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.runs[key] = rec
	return nil
}

func (m *mockStore) Get(key string) (*models.RunRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.runs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return rec, nil
}

func (m *mockStore) List() ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	keys := make([]string, 0, len(m.runs))
	for k := range m.runs {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *mockStore) Delete(key string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, key)
	delete(m.runs, key)
	return nil
}

func (m *mockStore) Close() error {
	return nil
}

var day = time.Date(2025, 3, 5, 7, 0, 0, 0, time.UTC)

// seed stores runs on consecutive days, oldest first, and returns their keys.
func seed(m *mockStore, distances ...float64) []string {
	keys := make([]string, len(distances))
	for i, d := range distances {
		rec := models.NewRunRecord(day.AddDate(0, 0, i), d, 600, []models.GeoPoint{
			{Latitude: 1, Longitude: 2},
			{Latitude: 1.001, Longitude: 2},
		})
		m.runs[rec.Key()] = rec
		keys[i] = rec.Key()
	}
	return keys
}

func newTestServer(t *testing.T, store *mockStore) *Server {
	t.Helper()
	server, err := NewServer(store, WithClock(func() time.Time { return day.AddDate(0, 0, 10) }))
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return server
}

// textOf returns the JSON text content of a tool result.
func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected 1 content, got %d", len(result.Content))
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return tc.Text
}

const testGPX = `<?xml version="1.0"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk><trkseg>
    <trkpt lat="0" lon="0"><time>2025-03-05T07:00:00Z</time></trkpt>
    <trkpt lat="0" lon="0.00001"><time>2025-03-05T07:00:02Z</time></trkpt>
    <trkpt lat="0" lon="0.00002"><time>2025-03-05T07:00:05Z</time></trkpt>
  </trkseg></trk>
</gpx>`

// Tests

func TestNewServer(t *testing.T) {
	store := newMockStore()
	server, err := NewServer(store)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if server.store == nil {
		t.Error("expected non-nil store")
	}
	if server.mcp == nil {
		t.Error("expected non-nil mcp server")
	}
	if server.minSampleMeters != 1 {
		t.Errorf("expected default threshold 1, got %f", server.minSampleMeters)
	}
}

func TestNewServer_NilStore(t *testing.T) {
	_, err := NewServer(nil)
	if err == nil {
		t.Error("expected error for nil store")
	}
}

func TestNewServer_Options(t *testing.T) {
	server, err := NewServer(newMockStore(), WithMinSampleMeters(5), WithLogger(nil))
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if server.minSampleMeters != 5 {
		t.Errorf("expected threshold 5, got %f", server.minSampleMeters)
	}
	if server.logger == nil {
		t.Error("nil logger option should keep the default logger")
	}
}

func TestHandleListRuns(t *testing.T) {
	store := newMockStore()
	keys := seed(store, 1000, 2000, 3000)
	server := newTestServer(t, store)

	result, output, err := server.handleListRuns(context.Background(), nil, ListRunsInput{})
	if err != nil {
		t.Fatalf("handleListRuns failed: %v", err)
	}
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if output.Count != 3 {
		t.Fatalf("expected 3 runs, got %d", output.Count)
	}
	// Newest first
	if output.Runs[0].Key != keys[2] || output.Runs[2].Key != keys[0] {
		t.Errorf("expected newest first, got %s ... %s", output.Runs[0].Key, output.Runs[2].Key)
	}
	if output.Runs[0].Route != nil {
		t.Error("list output should omit routes")
	}
	if output.Runs[0].Samples != 2 {
		t.Errorf("expected 2 samples, got %d", output.Runs[0].Samples)
	}
}

func TestHandleListRuns_SinceAndLimit(t *testing.T) {
	store := newMockStore()
	keys := seed(store, 1000, 2000, 3000)
	server := newTestServer(t, store)

	// The clock is day+10, so 8d keeps day+2 only.
	_, output, err := server.handleListRuns(context.Background(), nil, ListRunsInput{Since: "8d"})
	if err != nil {
		t.Fatalf("handleListRuns failed: %v", err)
	}
	if output.Count != 1 || output.Runs[0].Key != keys[2] {
		t.Errorf("expected only the newest run, got %+v", output.Runs)
	}

	_, output, err = server.handleListRuns(context.Background(), nil, ListRunsInput{Limit: 2})
	if err != nil {
		t.Fatalf("handleListRuns failed: %v", err)
	}
	if output.Count != 2 {
		t.Errorf("expected 2 runs, got %d", output.Count)
	}
}

func TestHandleListRuns_Errors(t *testing.T) {
	store := newMockStore()
	server := newTestServer(t, store)

	if _, _, err := server.handleListRuns(context.Background(), nil, ListRunsInput{Since: "soon"}); err == nil {
		t.Error("expected error for invalid since")
	}
	if _, _, err := server.handleListRuns(context.Background(), nil, ListRunsInput{Limit: -1}); err == nil {
		t.Error("expected error for negative limit")
	}

	store.listErr = errors.New("disk on fire")
	if _, _, err := server.handleListRuns(context.Background(), nil, ListRunsInput{}); err == nil {
		t.Error("expected error when store fails")
	}
}

func TestHandleListRuns_Empty(t *testing.T) {
	server := newTestServer(t, newMockStore())

	result, output, err := server.handleListRuns(context.Background(), nil, ListRunsInput{})
	if err != nil {
		t.Fatalf("handleListRuns failed: %v", err)
	}
	if output.Count != 0 {
		t.Errorf("expected 0 runs, got %d", output.Count)
	}
	if !strings.Contains(textOf(t, result), `"runs": []`) {
		t.Errorf("expected empty array in text output, got %s", textOf(t, result))
	}
}

func TestHandleGetRun_ByKey(t *testing.T) {
	store := newMockStore()
	keys := seed(store, 1234.5678)
	server := newTestServer(t, store)

	_, output, err := server.handleGetRun(context.Background(), nil, GetRunInput{Key: keys[0]})
	if err != nil {
		t.Fatalf("handleGetRun failed: %v", err)
	}
	if output.DistanceMeters != 1234.57 {
		t.Errorf("expected rounded distance 1234.57, got %f", output.DistanceMeters)
	}
	if len(output.Route) != 2 {
		t.Errorf("expected full route, got %d points", len(output.Route))
	}
}

func TestHandleGetRun_ByIndex(t *testing.T) {
	store := newMockStore()
	keys := seed(store, 1000, 2000)
	server := newTestServer(t, store)

	_, output, err := server.handleGetRun(context.Background(), nil, GetRunInput{Index: 1})
	if err != nil {
		t.Fatalf("handleGetRun failed: %v", err)
	}
	if output.Key != keys[1] {
		t.Errorf("index 1 should be the newest run, got %s", output.Key)
	}

	if _, _, err := server.handleGetRun(context.Background(), nil, GetRunInput{Index: 3}); err == nil {
		t.Error("expected out of range error")
	}
}

func TestHandleGetRun_Errors(t *testing.T) {
	store := newMockStore()
	server := newTestServer(t, store)

	if _, _, err := server.handleGetRun(context.Background(), nil, GetRunInput{}); err == nil {
		t.Error("expected error without key or index")
	}

	_, _, err := server.handleGetRun(context.Background(), nil, GetRunInput{Key: "run:missing"})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}

	store.getErr = storage.ErrStorage
	if _, _, err := server.handleGetRun(context.Background(), nil, GetRunInput{Key: "run:x"}); !errors.Is(err, storage.ErrStorage) {
		t.Errorf("expected storage error, got %v", err)
	}
}

func TestHandleDeleteRun(t *testing.T) {
	store := newMockStore()
	keys := seed(store, 1000)
	server := newTestServer(t, store)

	_, output, err := server.handleDeleteRun(context.Background(), nil, DeleteRunInput{Key: keys[0]})
	if err != nil {
		t.Fatalf("handleDeleteRun failed: %v", err)
	}
	if !output.Success {
		t.Error("expected success")
	}
	if len(store.runs) != 0 {
		t.Errorf("expected run to be removed, %d left", len(store.runs))
	}
}

func TestHandleDeleteRun_MissingSucceeds(t *testing.T) {
	store := newMockStore()
	server := newTestServer(t, store)

	_, output, err := server.handleDeleteRun(context.Background(), nil, DeleteRunInput{Key: "run:missing"})
	if err != nil {
		t.Fatalf("deleting a missing run should succeed: %v", err)
	}
	if !output.Success || !strings.Contains(output.Message, "nothing to delete") {
		t.Errorf("unexpected output %+v", output)
	}
	if len(store.deleted) != 1 {
		t.Error("expected Delete to still be called")
	}
}

func TestHandleDeleteRun_Errors(t *testing.T) {
	store := newMockStore()
	server := newTestServer(t, store)

	if _, _, err := server.handleDeleteRun(context.Background(), nil, DeleteRunInput{}); err == nil {
		t.Error("expected error for empty key")
	}

	store.deleteErr = storage.ErrStorage
	if _, _, err := server.handleDeleteRun(context.Background(), nil, DeleteRunInput{Key: "run:x"}); !errors.Is(err, storage.ErrStorage) {
		t.Errorf("expected storage error, got %v", err)
	}
}

func TestHandleRunStats(t *testing.T) {
	store := newMockStore()
	seed(store, 1000, 2000, 3000)
	server := newTestServer(t, store)

	_, output, err := server.handleRunStats(context.Background(), nil, RunStatsInput{})
	if err != nil {
		t.Fatalf("handleRunStats failed: %v", err)
	}
	if output.Runs != 3 {
		t.Errorf("expected 3 runs, got %d", output.Runs)
	}
	if output.DistanceMeters != 6000 {
		t.Errorf("expected 6000 m, got %f", output.DistanceMeters)
	}
	if output.DurationSeconds != 1800 {
		t.Errorf("expected 1800 s, got %d", output.DurationSeconds)
	}
	if output.AverageSpeed != 3.33 {
		t.Errorf("expected 3.33 m/s, got %f", output.AverageSpeed)
	}
	if output.LongestMeters != 3000 || output.FastestSpeed != 5 {
		t.Errorf("unexpected extremes %+v", output)
	}
}

func TestHandleRunStats_Empty(t *testing.T) {
	server := newTestServer(t, newMockStore())

	_, output, err := server.handleRunStats(context.Background(), nil, RunStatsInput{})
	if err != nil {
		t.Fatalf("handleRunStats failed: %v", err)
	}
	if output.Runs != 0 || output.AverageSpeed != 0 {
		t.Errorf("expected zero stats, got %+v", output)
	}
}

func TestHandleRecordRun_GPX(t *testing.T) {
	store := newMockStore()
	server := newTestServer(t, store)

	_, output, err := server.handleRecordRun(context.Background(), nil, RecordRunInput{Track: testGPX})
	if err != nil {
		t.Fatalf("handleRecordRun failed: %v", err)
	}
	if !output.Saved {
		t.Error("expected run to be saved")
	}
	if output.Run.DurationSeconds != 5 {
		t.Errorf("expected 5 s from fix timestamps, got %d", output.Run.DurationSeconds)
	}
	if output.Run.DistanceMeters != 2.22 {
		t.Errorf("expected 2.22 m, got %f", output.Run.DistanceMeters)
	}
	if output.Run.Samples != 3 {
		t.Errorf("expected 3 samples, got %d", output.Run.Samples)
	}
	if output.Run.AverageSpeed != 0.44 {
		t.Errorf("expected 0.44 m/s, got %f", output.Run.AverageSpeed)
	}

	want := models.RecordKey(day.AddDate(0, 0, 10))
	if output.Run.Key != want {
		t.Errorf("expected key %s, got %s", want, output.Run.Key)
	}
	if _, ok := store.runs[want]; !ok {
		t.Error("expected run in store")
	}
}

func TestHandleRecordRun_JSONLinesThreshold(t *testing.T) {
	store := newMockStore()
	server := newTestServer(t, store)

	track := `{"latitude": 0, "longitude": 0, "time": "2025-03-05T07:00:00Z"}
{"latitude": 0, "longitude": 0.00001, "time": "2025-03-05T07:00:01Z"}
{"latitude": 0, "longitude": 0.00002, "time": "2025-03-05T07:00:02Z"}`
	threshold := 2.0

	_, output, err := server.handleRecordRun(context.Background(), nil, RecordRunInput{
		Track:           track,
		Format:          "JSONL",
		MinSampleMeters: &threshold,
	})
	if err != nil {
		t.Fatalf("handleRecordRun failed: %v", err)
	}
	// The middle fix is only 1.11 m from the origin.
	if output.Run.Samples != 2 {
		t.Errorf("expected 2 samples with a 2 m threshold, got %d", output.Run.Samples)
	}
	if output.Run.DistanceMeters != 2.22 {
		t.Errorf("distance should include every fix, got %f", output.Run.DistanceMeters)
	}
}

func TestHandleRecordRun_DryRun(t *testing.T) {
	store := newMockStore()
	server := newTestServer(t, store)

	_, output, err := server.handleRecordRun(context.Background(), nil, RecordRunInput{Track: testGPX, DryRun: true})
	if err != nil {
		t.Fatalf("handleRecordRun failed: %v", err)
	}
	if output.Saved {
		t.Error("dry run should not report saved")
	}
	if len(store.runs) != 0 {
		t.Error("dry run should not touch the store")
	}
}

func TestHandleRecordRun_Errors(t *testing.T) {
	store := newMockStore()
	server := newTestServer(t, store)
	negative := -1.0
	notANumber := math.NaN()
	infinite := math.Inf(1)

	tests := []struct {
		name  string
		input RecordRunInput
	}{
		{"bad_xml", RecordRunInput{Track: "<gpx"}},
		{"empty_track", RecordRunInput{Track: "<gpx></gpx>"}},
		{"unknown_format", RecordRunInput{Track: testGPX, Format: "kml"}},
		{"negative_threshold", RecordRunInput{Track: testGPX, MinSampleMeters: &negative}},
		{"nan_threshold", RecordRunInput{Track: testGPX, MinSampleMeters: &notANumber}},
		{"infinite_threshold", RecordRunInput{Track: testGPX, MinSampleMeters: &infinite}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := server.handleRecordRun(context.Background(), nil, tt.input); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHandleRecordRun_CancelledContextSavesNothing(t *testing.T) {
	store := newMockStore()
	server := newTestServer(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, output, err := server.handleRecordRun(ctx, nil, RecordRunInput{Track: testGPX})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if output.Saved {
		t.Error("expected run not to be marked saved")
	}
	if len(store.runs) != 0 {
		t.Errorf("expected no runs stored, got %d", len(store.runs))
	}
}

func TestHandleRecordRun_StoreFailure(t *testing.T) {
	store := newMockStore()
	store.putErr = storage.ErrStorage
	server := newTestServer(t, store)

	_, _, err := server.handleRecordRun(context.Background(), nil, RecordRunInput{Track: testGPX})
	if !errors.Is(err, storage.ErrStorage) {
		t.Errorf("expected storage error, got %v", err)
	}
}

func TestHandleRunsResource(t *testing.T) {
	store := newMockStore()
	keys := seed(store, 1000, 2000)
	server := newTestServer(t, store)

	result, err := server.handleRunsResource(context.Background(), nil)
	if err != nil {
		t.Fatalf("handleRunsResource failed: %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(result.Contents))
	}
	content := result.Contents[0]
	if content.URI != "runtrack://runs" || content.MIMEType != "application/json" {
		t.Errorf("unexpected content header %s %s", content.URI, content.MIMEType)
	}

	var output ListRunsOutput
	if err := json.Unmarshal([]byte(content.Text), &output); err != nil {
		t.Fatalf("resource text is not valid JSON: %v", err)
	}
	if output.Count != 2 || output.Runs[0].Key != keys[1] {
		t.Errorf("unexpected resource contents %+v", output)
	}
}

func TestHandleRunsResource_Error(t *testing.T) {
	store := newMockStore()
	store.listErr = errors.New("boom")
	server := newTestServer(t, store)

	if _, err := server.handleRunsResource(context.Background(), nil); err == nil {
		t.Error("expected error when store fails")
	}
}
