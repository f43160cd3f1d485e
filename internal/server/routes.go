package server

import "net/http"

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// UI page routes (HTML templates)
	mux.Handle("/", s.app.PageHandler)

	// Static files (CSS, JS)
	mux.Handle("/static/", s.app.StaticHandler)

	// MCP endpoint (JSON-RPC over HTTP)
	if s.app.MCPHandler != nil {
		mux.Handle("/mcp", s.app.MCPHandler)
	}

	// API routes
	mux.Handle("/api/entries", s.app.EntriesHandler)
	mux.Handle("/api/entries/", s.app.EntryItemHandler)
	mux.Handle("/api/marks", s.app.MarksHandler)
	mux.Handle("/api/capital", s.app.CapitalHandler)
	mux.Handle("/api/override", s.app.OverrideHandler)
	mux.Handle("/api/admin/override", s.app.AdminOverrideHandler)
	mux.Handle("/api/portfolio", s.app.PortfolioHandler)
	mux.Handle("/api/partners", s.app.PartnersHandler)
	mux.Handle("/api/partners/", s.app.PartnerItemHandler)
	mux.Handle("/api/overview", s.app.OverviewHandler)
	mux.Handle("/api/health", s.app.HealthHandler)
	mux.Handle("/api/version", s.app.VersionHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not Found","message":"The requested endpoint does not exist"}`))
}
