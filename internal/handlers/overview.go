package handlers

import (
	"net/http"

	"github.com/sharedfund/ledgerd/internal/common"
	"github.com/sharedfund/ledgerd/internal/service"
)

// OverviewHandler serves the fund's current state summary.
type OverviewHandler struct {
	logger  *common.Logger
	service *service.Service
}

// NewOverviewHandler creates a new overview handler.
func NewOverviewHandler(logger *common.Logger, svc *service.Service) *OverviewHandler {
	return &OverviewHandler{logger: logger, service: svc}
}

// ServeHTTP handles GET /api/overview.
func (h *OverviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	overview, err := h.service.GetOverview(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build overview")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, overview)
}
