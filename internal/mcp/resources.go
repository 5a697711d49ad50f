// ABOUTME: MCP resource definitions
// ABOUTME: Provides read-only views of run history for AI agents

package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const runsResourceURI = "runtrack://runs"

func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		Name:        runsResourceURI,
		Description: "All recorded runs, newest first, without routes",
		URI:         runsResourceURI,
		MIMEType:    "application/json",
	}, s.handleRunsResource)
}

func (s *Server) handleRunsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	records, err := s.loadRuns("")
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]RunOutput, len(records))
	for i, r := range records {
		runs[i] = toRunOutput(r.Key, r.Record, false)
	}

	output := ListRunsOutput{
		Runs:  runs,
		Count: len(runs),
	}

	jsonBytes, _ := json.MarshalIndent(output, "", "  ") //nolint:errchkjson // output is always serializable

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      runsResourceURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		},
	}, nil
}
