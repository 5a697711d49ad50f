// ABOUTME: MCP tool definitions and handlers
// ABOUTME: Lets AI agents review, summarize, delete, and record runs

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harper/runtrack/internal/location"
	"github.com/harper/runtrack/internal/models"
	"github.com/harper/runtrack/internal/storage"
	"github.com/harper/runtrack/internal/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	s.registerListRunsTool()
	s.registerGetRunTool()
	s.registerDeleteRunTool()
	s.registerRunStatsTool()
	s.registerRecordRunTool()
}

// RunOutput describes a stored run. Values are rounded for display.
type RunOutput struct {
	Key             string            `json:"key"`
	Date            time.Time         `json:"date"`
	DistanceMeters  float64           `json:"distance_meters"`
	DurationSeconds int64             `json:"duration_seconds"`
	AverageSpeed    float64           `json:"average_speed"`
	Samples         int               `json:"samples"`
	Route           []models.GeoPoint `json:"route,omitempty"`
}

func toRunOutput(key string, rec *models.RunRecord, withRoute bool) RunOutput {
	out := RunOutput{
		Key:             key,
		Date:            rec.Date,
		DistanceMeters:  models.Round2(rec.DistanceMeters),
		DurationSeconds: rec.DurationSeconds,
		AverageSpeed:    models.Round2(rec.AverageSpeed),
		Samples:         len(rec.Route),
	}
	if withRoute {
		out.Route = rec.Route
	}
	return out
}

// textResult renders output as the tool's JSON text content.
func textResult(output any) *mcp.CallToolResult {
	jsonBytes, _ := json.MarshalIndent(output, "", "  ") //nolint:errchkjson // output is always serializable
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(jsonBytes)}},
	}
}

// ListRunsInput defines input for list_runs tool.
type ListRunsInput struct {
	Since string `json:"since,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// ListRunsOutput defines output for list_runs tool.
type ListRunsOutput struct {
	Runs  []RunOutput `json:"runs"`
	Count int         `json:"count"`
}

func (s *Server) registerListRunsTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_runs",
		Description: "List recorded runs, newest first, with distance, duration and average speed.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"since": map[string]interface{}{
					"type":        "string",
					"description": "Optional relative filter (e.g., '24h', '7d', '1w', '1m')",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Optional maximum number of runs to return",
				},
			},
		},
	}, s.handleListRuns)
}

// loadRuns returns stored runs newest first, filtered by a relative since.
func (s *Server) loadRuns(since string) ([]storage.KeyedRecord, error) {
	records, err := storage.ListRecords(s.store)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if since != "" {
		sinceTime, err := storage.ParseSince(since, s.now())
		if err != nil {
			return nil, fmt.Errorf("invalid since: %w", err)
		}
		records = storage.FilterSince(records, sinceTime)
	}
	return records, nil
}

func (s *Server) handleListRuns(_ context.Context, req *mcp.CallToolRequest, input ListRunsInput) (*mcp.CallToolResult, ListRunsOutput, error) {
	if input.Limit < 0 {
		return nil, ListRunsOutput{}, fmt.Errorf("limit must not be negative")
	}
	records, err := s.loadRuns(input.Since)
	if err != nil {
		return nil, ListRunsOutput{}, err
	}
	if input.Limit > 0 && len(records) > input.Limit {
		records = records[:input.Limit]
	}

	runs := make([]RunOutput, len(records))
	for i, r := range records {
		runs[i] = toRunOutput(r.Key, r.Record, false)
	}

	output := ListRunsOutput{
		Runs:  runs,
		Count: len(runs),
	}
	return textResult(output), output, nil
}

// GetRunInput defines input for get_run tool.
type GetRunInput struct {
	Key   string `json:"key,omitempty"`
	Index int    `json:"index,omitempty"`
}

func (s *Server) registerGetRunTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_run",
		Description: "Get one run with its full route. Identify it by key, or by index where 1 is the newest run.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"key": map[string]interface{}{
					"type":        "string",
					"description": "Run key as returned by list_runs (e.g., 'run:20250305T073000.000000000Z')",
				},
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "1-based position in the newest-first history",
				},
			},
		},
	}, s.handleGetRun)
}

func (s *Server) handleGetRun(_ context.Context, req *mcp.CallToolRequest, input GetRunInput) (*mcp.CallToolResult, RunOutput, error) {
	switch {
	case input.Key != "":
		rec, err := s.store.Get(input.Key)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, RunOutput{}, fmt.Errorf("run '%s' not found", input.Key)
		}
		if err != nil {
			return nil, RunOutput{}, fmt.Errorf("failed to get run: %w", err)
		}
		output := toRunOutput(input.Key, rec, true)
		return textResult(output), output, nil

	case input.Index > 0:
		records, err := s.loadRuns("")
		if err != nil {
			return nil, RunOutput{}, err
		}
		if input.Index > len(records) {
			return nil, RunOutput{}, fmt.Errorf("run index %d out of range (%d runs)", input.Index, len(records))
		}
		r := records[input.Index-1]
		output := toRunOutput(r.Key, r.Record, true)
		return textResult(output), output, nil

	default:
		return nil, RunOutput{}, fmt.Errorf("key or index is required")
	}
}

// DeleteRunInput defines input for delete_run tool.
type DeleteRunInput struct {
	Key string `json:"key"`
}

// DeleteRunOutput defines output for delete_run tool.
type DeleteRunOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) registerDeleteRunTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_run",
		Description: "Permanently delete a run. Deleting a run that does not exist succeeds. This cannot be undone.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"key": map[string]interface{}{
					"type":        "string",
					"description": "Run key as returned by list_runs",
				},
			},
			"required": []string{"key"},
		},
	}, s.handleDeleteRun)
}

func (s *Server) handleDeleteRun(_ context.Context, req *mcp.CallToolRequest, input DeleteRunInput) (*mcp.CallToolResult, DeleteRunOutput, error) {
	if input.Key == "" {
		return nil, DeleteRunOutput{}, fmt.Errorf("key is required")
	}

	message := fmt.Sprintf("Deleted run '%s'", input.Key)
	if _, err := s.store.Get(input.Key); errors.Is(err, storage.ErrNotFound) {
		message = fmt.Sprintf("No run stored under '%s', nothing to delete", input.Key)
	}

	if err := s.store.Delete(input.Key); err != nil {
		return nil, DeleteRunOutput{}, fmt.Errorf("failed to delete run: %w", err)
	}

	output := DeleteRunOutput{
		Success: true,
		Message: message,
	}
	return textResult(output), output, nil
}

// RunStatsInput defines input for run_stats tool.
type RunStatsInput struct {
	Since string `json:"since,omitempty"`
}

// RunStatsOutput defines output for run_stats tool.
type RunStatsOutput struct {
	Runs            int     `json:"runs"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds int64   `json:"duration_seconds"`
	AverageSpeed    float64 `json:"average_speed"`
	LongestMeters   float64 `json:"longest_meters"`
	FastestSpeed    float64 `json:"fastest_speed"`
}

func (s *Server) registerRunStatsTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "run_stats",
		Description: "Summarize run history: total distance and time, overall average speed, longest and fastest run.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"since": map[string]interface{}{
					"type":        "string",
					"description": "Optional relative filter (e.g., '7d', '1m')",
				},
			},
		},
	}, s.handleRunStats)
}

func (s *Server) handleRunStats(_ context.Context, req *mcp.CallToolRequest, input RunStatsInput) (*mcp.CallToolResult, RunStatsOutput, error) {
	records, err := s.loadRuns(input.Since)
	if err != nil {
		return nil, RunStatsOutput{}, err
	}

	sum := storage.Summarize(records)
	output := RunStatsOutput{
		Runs:            sum.Runs,
		DistanceMeters:  models.Round2(sum.DistanceMeters),
		DurationSeconds: sum.DurationSeconds,
		AverageSpeed:    models.Round2(sum.AverageSpeed()),
		LongestMeters:   models.Round2(sum.LongestMeters),
		FastestSpeed:    models.Round2(sum.FastestSpeed),
	}
	return textResult(output), output, nil
}

// RecordRunInput defines input for record_run tool.
type RecordRunInput struct {
	Track           string   `json:"track"`
	Format          string   `json:"format,omitempty"`
	MinSampleMeters *float64 `json:"min_sample_meters,omitempty"`
	DryRun          bool     `json:"dry_run,omitempty"`
}

// RecordRunOutput defines output for record_run tool.
type RecordRunOutput struct {
	Run   RunOutput `json:"run"`
	Saved bool      `json:"saved"`
}

func (s *Server) registerRecordRunTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "record_run",
		Description: "Record a run by replaying a GPS track. Elapsed time follows the fix timestamps. The run is saved unless dry_run is set.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"track": map[string]interface{}{
					"type":        "string",
					"description": "Track contents: a GPX document, or JSON lines of {latitude, longitude, time}",
				},
				"format": map[string]interface{}{
					"type":        "string",
					"description": "Track format: 'gpx' (default) or 'jsonl'",
				},
				"min_sample_meters": map[string]interface{}{
					"type":        "number",
					"description": "Optional minimum spacing between stored route samples",
				},
				"dry_run": map[string]interface{}{
					"type":        "boolean",
					"description": "Compute the run without saving it",
				},
			},
			"required": []string{"track"},
		},
	}, s.handleRecordRun)
}

func (s *Server) handleRecordRun(ctx context.Context, req *mcp.CallToolRequest, input RecordRunInput) (*mcp.CallToolResult, RecordRunOutput, error) {
	format := location.Format(strings.ToLower(input.Format))
	if format == "" {
		format = location.FormatGPX
	}
	fixes, err := location.Read(strings.NewReader(input.Track), format)
	if err != nil {
		return nil, RecordRunOutput{}, fmt.Errorf("invalid track: %w", err)
	}
	if len(fixes) == 0 {
		return nil, RecordRunOutput{}, fmt.Errorf("track contains no fixes")
	}

	threshold := s.minSampleMeters
	if input.MinSampleMeters != nil {
		if err := tracker.ValidateMinSampleDistance(*input.MinSampleMeters); err != nil {
			return nil, RecordRunOutput{}, fmt.Errorf("invalid min_sample_meters: %w", err)
		}
		threshold = *input.MinSampleMeters
	}

	session := tracker.NewSession(
		tracker.WithMinSampleDistance(threshold),
		tracker.WithLogger(s.logger),
		tracker.WithClock(s.now),
	)
	runner := tracker.NewRunner(session, location.NewSliceSource(fixes), tracker.WithFixClock())
	if err := runner.Run(ctx); err != nil {
		return nil, RecordRunOutput{}, fmt.Errorf("replay failed: %w", err)
	}
	// Run returns early without error on cancellation; the partial run is discarded.
	if err := ctx.Err(); err != nil {
		return nil, RecordRunOutput{}, fmt.Errorf("replay interrupted, run not recorded: %w", err)
	}

	var rec *models.RunRecord
	if input.DryRun {
		rec, err = session.Record()
	} else {
		rec, err = session.Save(s.store)
	}
	if err != nil {
		return nil, RecordRunOutput{}, fmt.Errorf("failed to record run: %w", err)
	}

	output := RecordRunOutput{
		Run:   toRunOutput(rec.Key(), rec, false),
		Saved: !input.DryRun,
	}
	return textResult(output), output, nil
}
