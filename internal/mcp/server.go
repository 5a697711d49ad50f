// ABOUTME: MCP server initialization and configuration
// ABOUTME: Sets up server with run history tools and resources for AI agents

package mcp

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/runtrack/internal/storage"
	"github.com/harper/runtrack/internal/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps MCP server with a run store.
type Server struct {
	mcp             *mcp.Server
	store           storage.RunStore
	logger          *log.Logger
	minSampleMeters float64
	now             func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger handed to recording sessions.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMinSampleMeters sets the default route sampling threshold for record_run.
func WithMinSampleMeters(m float64) Option {
	return func(s *Server) {
		if m >= 0 {
			s.minSampleMeters = m
		}
	}
}

// WithClock overrides the time used to date recorded runs.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer creates MCP server with all capabilities.
func NewServer(store storage.RunStore, opts ...Option) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("run store is required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "runtrack",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcp:             mcpServer,
		store:           store,
		logger:          log.New(io.Discard),
		minSampleMeters: tracker.DefaultMinSampleDistance,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
