package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/sharedfund/ledgerd/internal/common"
	"github.com/sharedfund/ledgerd/internal/ledger"
	"github.com/sharedfund/ledgerd/internal/service"
)

// OverrideHandler records manual valuation overrides.
type OverrideHandler struct {
	logger  *common.Logger
	service *service.Service
}

// NewOverrideHandler creates a new override handler.
func NewOverrideHandler(logger *common.Logger, svc *service.Service) *OverrideHandler {
	return &OverrideHandler{logger: logger, service: svc}
}

// ServeHTTP handles POST /api/override.
func (h *OverrideHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req struct {
		PortfolioTotal decimal.Decimal            `json:"portfolio_total"`
		Values         map[string]decimal.Decimal `json:"values"`
		Mode           string                     `json:"mode"`
		Force          bool                       `json:"force"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err)
		return
	}

	mode := ledger.OverrideProportional
	if req.Mode != "" {
		mode = ledger.OverrideMode(req.Mode)
	}

	entry, err := h.service.Override(r.Context(), req.PortfolioTotal, req.Values, mode, req.Force)
	if err != nil {
		h.logger.Error().Err(err).Str("mode", string(mode)).Msg("failed to record override")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, entry)
}

// AdminOverrideHandler records unrestricted administrative corrections.
type AdminOverrideHandler struct {
	logger  *common.Logger
	service *service.Service
}

// NewAdminOverrideHandler creates a new admin override handler.
func NewAdminOverrideHandler(logger *common.Logger, svc *service.Service) *AdminOverrideHandler {
	return &AdminOverrideHandler{logger: logger, service: svc}
}

// ServeHTTP handles POST /api/admin/override.
func (h *AdminOverrideHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req struct {
		Mode           string                     `json:"mode"`
		PortfolioTotal decimal.Decimal            `json:"portfolio_total"`
		CapitalTotals  map[string]decimal.Decimal `json:"capital_totals"`
		Values         map[string]decimal.Decimal `json:"values"`
		Ownerships     map[string]decimal.Decimal `json:"ownerships"`
		Notes          string                     `json:"notes"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err)
		return
	}

	mode := ledger.AdminRecalculate
	if req.Mode != "" {
		mode = ledger.AdminMode(req.Mode)
	}

	entry, err := h.service.AdminOverride(r.Context(), ledger.AdminOverride{
		Mode:           mode,
		PortfolioTotal: req.PortfolioTotal,
		CapitalTotals:  req.CapitalTotals,
		Values:         req.Values,
		Ownerships:     req.Ownerships,
		Notes:          req.Notes,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("mode", string(mode)).Msg("failed to record admin override")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, entry)
}

// PortfolioHandler corrects the latest portfolio value in place.
type PortfolioHandler struct {
	logger  *common.Logger
	service *service.Service
}

// NewPortfolioHandler creates a new portfolio correction handler.
func NewPortfolioHandler(logger *common.Logger, svc *service.Service) *PortfolioHandler {
	return &PortfolioHandler{logger: logger, service: svc}
}

// ServeHTTP handles PUT /api/portfolio.
func (h *PortfolioHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "PUT") {
		return
	}

	var req struct {
		PortfolioTotal decimal.Decimal `json:"portfolio_total"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err)
		return
	}

	entry, err := h.service.CorrectPortfolioValue(r.Context(), req.PortfolioTotal)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to correct portfolio value")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, entry)
}
