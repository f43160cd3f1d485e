package handlers

import (
	"net/http"
	"strings"

	"github.com/sharedfund/ledgerd/internal/common"
	"github.com/sharedfund/ledgerd/internal/service"
)

// PartnersHandler handles the partner collection.
type PartnersHandler struct {
	logger  *common.Logger
	service *service.Service
}

// NewPartnersHandler creates a new partners handler.
func NewPartnersHandler(logger *common.Logger, svc *service.Service) *PartnersHandler {
	return &PartnersHandler{logger: logger, service: svc}
}

// ServeHTTP handles GET and POST /api/partners.
func (h *PartnersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *PartnersHandler) list(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("all") == "true"
	partners, err := h.service.ListPartners(r.Context(), includeInactive)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list partners")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"partners": partners,
		"count":    len(partners),
	})
}

func (h *PartnersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Color       string `json:"color"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err)
		return
	}

	partner, err := h.service.AddPartner(r.Context(), strings.ToLower(strings.TrimSpace(req.Name)), req.DisplayName, req.Color)
	if err != nil {
		h.logger.Error().Err(err).Str("partner", req.Name).Msg("failed to add partner")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, partner)
}

// PartnerItemHandler handles a single partner addressed by name.
type PartnerItemHandler struct {
	logger  *common.Logger
	service *service.Service
}

// NewPartnerItemHandler creates a new single-partner handler.
func NewPartnerItemHandler(logger *common.Logger, svc *service.Service) *PartnerItemHandler {
	return &PartnerItemHandler{logger: logger, service: svc}
}

// ServeHTTP handles PUT and DELETE /api/partners/{name}. Delete defaults to
// a soft delete; ?permanent=true removes the record entirely.
func (h *PartnerItemHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/partners/")
	if name == "" || strings.Contains(name, "/") {
		WriteError(w, http.StatusBadRequest, "partner name is required")
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.update(w, r, name)
	case http.MethodDelete:
		h.delete(w, r, name)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *PartnerItemHandler) update(w http.ResponseWriter, r *http.Request, name string) {
	var req struct {
		DisplayName string `json:"display_name"`
		Color       string `json:"color"`
		Active      *bool  `json:"active"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err)
		return
	}

	partner, err := h.service.UpdatePartner(r.Context(), name, req.DisplayName, req.Color, req.Active)
	if err != nil {
		h.logger.Error().Err(err).Str("partner", name).Msg("failed to update partner")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, partner)
}

func (h *PartnerItemHandler) delete(w http.ResponseWriter, r *http.Request, name string) {
	var err error
	if r.URL.Query().Get("permanent") == "true" {
		err = h.service.RemovePartner(r.Context(), name)
	} else {
		err = h.service.DeactivatePartner(r.Context(), name)
	}
	if err != nil {
		h.logger.Error().Err(err).Str("partner", name).Msg("failed to delete partner")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "deleted",
		"partner": name,
	})
}
