// Package mcp exposes the ledger to MCP clients over streamable HTTP, so
// assistants can query and record entries through the same service layer the
// REST API uses.
package mcp

import (
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/sharedfund/ledgerd/internal/common"
	"github.com/sharedfund/ledgerd/internal/config"
	"github.com/sharedfund/ledgerd/internal/service"
)

// Handler is the HTTP handler for the MCP endpoint.
// It wraps mcp-go's StreamableHTTPServer and delegates to it.
type Handler struct {
	streamable *mcpserver.StreamableHTTPServer
	logger     *common.Logger
}

// NewHandler creates a new MCP handler with the ledger tool set registered.
func NewHandler(svc *service.Service, logger *common.Logger) *Handler {
	mcpSrv := mcpserver.NewMCPServer(
		"ledgerd",
		config.GetVersion(),
		mcpserver.WithToolCapabilities(true),
	)

	toolCount := RegisterTools(mcpSrv, svc)

	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithStateLess(true),
	)

	logger.Info().
		Int("tools", toolCount).
		Msg("MCP handler initialized")

	return &Handler{
		streamable: streamable,
		logger:     logger,
	}
}

// ServeHTTP delegates to the mcp-go StreamableHTTPServer.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.streamable.ServeHTTP(w, r)
}
