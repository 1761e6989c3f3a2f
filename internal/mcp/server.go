// Package mcp provides an MCP (Model Context Protocol) server for swipesim.
package mcp

import (
	"context"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/swipesim/internal/config"
	"github.com/nvandessel/swipesim/internal/ratelimit"
	"github.com/nvandessel/swipesim/internal/run"
)

// Server wraps the MCP SDK server and exposes simulation tools.
type Server struct {
	server       *sdk.Server
	settings     *config.SwipesimConfig
	runner       *run.Runner
	logger       *slog.Logger
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "swipesim")
	Version string // Server version

	// Settings supplies run defaults. Nil uses config.Default().
	Settings *config.SwipesimConfig

	// AuditDir receives audit.jsonl. Empty disables auditing.
	AuditDir string

	Logger *slog.Logger
	Runner *run.Runner
}

// NewServer creates a new MCP server with swipesim tools.
func NewServer(cfg *Config) (*Server, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	runner := cfg.Runner
	if runner == nil {
		runner = run.NewRunner(run.WithLogger(logger))
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		settings:     settings,
		runner:       runner,
		logger:       logger,
		toolLimiters: ratelimit.NewToolLimiters(),
	}
	if cfg.AuditDir != "" {
		s.auditLogger = NewAuditLogger(cfg.AuditDir)
	}

	s.registerTools()
	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.auditLogger.Close()
	return err
}

// Close releases the audit log.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}
