// Package mcp exposes report generation and ticker search as MCP tools
// over streamable HTTP.
package mcp

import (
	"context"
	"net/http"
	"time"

	"github.com/bobmcallan/genvest-portal/internal/common"
	"github.com/bobmcallan/genvest-portal/internal/config"
	"github.com/bobmcallan/genvest-portal/internal/models"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Backend is the report service the tools call.
type Backend interface {
	GenerateReport(ctx context.Context, creds models.Credentials) (*models.Report, error)
	SearchTickers(ctx context.Context, query string) ([]models.TickerSuggestion, error)
	Ping(ctx context.Context) error
}

// Handler is the HTTP handler for the MCP endpoint.
// It wraps mcp-go's StreamableHTTPServer and delegates to it.
type Handler struct {
	server     *mcpserver.MCPServer
	streamable *mcpserver.StreamableHTTPServer
	logger     *common.Logger
}

// NewHandler registers the GenVest tools. timeout bounds a generate_report
// call.
func NewHandler(backend Backend, logger *common.Logger, timeout time.Duration) *Handler {
	mcpSrv := mcpserver.NewMCPServer(
		"genvest-portal",
		config.GetVersion(),
		mcpserver.WithToolCapabilities(true),
	)

	tools := &toolSet{backend: backend, logger: logger, timeout: timeout}
	mcpSrv.AddTool(GenerateReportTool(), tools.generateReport)
	mcpSrv.AddTool(SearchTickersTool(), tools.searchTickers)
	mcpSrv.AddTool(VersionTool(), tools.version)

	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithStateLess(true),
	)

	logger.Info().Int("tools", 3).Msg("MCP handler initialized")

	return &Handler{
		server:     mcpSrv,
		streamable: streamable,
		logger:     logger,
	}
}

// Server returns the underlying MCP server.
func (h *Handler) Server() *mcpserver.MCPServer {
	return h.server
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.streamable.ServeHTTP(w, r)
}
