package handlers

import (
	"html/template"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sharedfund/ledgerd/internal/common"
	"github.com/sharedfund/ledgerd/internal/config"
	"github.com/sharedfund/ledgerd/internal/service"
)

// PageHandler renders the ledger page.
type PageHandler struct {
	logger    *common.Logger
	templates *template.Template
	service   *service.Service
	fundName  string
}

// NewPageHandler creates a new page handler.
func NewPageHandler(logger *common.Logger, svc *service.Service, fundName string) *PageHandler {
	pagesDir := FindPagesDir()
	templates := template.Must(template.ParseGlob(filepath.Join(pagesDir, "*.html")))

	return &PageHandler{
		logger:    logger,
		templates: templates,
		service:   svc,
		fundName:  fundName,
	}
}

// FindPagesDir locates the pages directory relative to the working directory.
func FindPagesDir() string {
	dirs := []string{
		"./web/pages",
		"../web/pages",
		"../../web/pages",
		"./pages",
	}

	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			abs, _ := filepath.Abs(dir)
			return abs
		}
	}

	return "."
}

// ServeHTTP renders the ledger page at the site root.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !RequireMethod(w, r, "GET") {
		return
	}

	data := map[string]interface{}{
		"Page":     "ledger",
		"FundName": h.fundName,
		"Version":  config.GetVersion(),
	}

	if err := h.templates.ExecuteTemplate(w, "ledger.html", data); err != nil {
		if h.logger != nil {
			h.logger.Error().Str("template", "ledger.html").Str("error", err.Error()).Msg("failed to render ledger page")
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// StaticHandler serves static assets from the pages directory.
func StaticHandler() http.Handler {
	staticDir := filepath.Join(FindPagesDir(), "static")
	return http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir)))
}
