package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sharedfund/ledgerd/internal/common"
	"github.com/sharedfund/ledgerd/internal/service"
)

// defaultListLimit caps history responses unless the client asks otherwise.
const defaultListLimit = 100

// EntriesHandler handles the entry collection: listing and batch deletes.
type EntriesHandler struct {
	logger  *common.Logger
	service *service.Service
}

// NewEntriesHandler creates a new entries handler.
func NewEntriesHandler(logger *common.Logger, svc *service.Service) *EntriesHandler {
	return &EntriesHandler{logger: logger, service: svc}
}

// ServeHTTP handles GET and DELETE /api/entries.
func (h *EntriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.list(w, r)
	case http.MethodDelete:
		h.batchDelete(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *EntriesHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.service.ListEntries(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list entries")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

func (h *EntriesHandler) batchDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err)
		return
	}
	if len(req.IDs) == 0 {
		WriteError(w, http.StatusBadRequest, "ids is required")
		return
	}
	if err := h.service.DeleteEntries(r.Context(), req.IDs); err != nil {
		h.logger.Error().Err(err).Int("count", len(req.IDs)).Msg("failed to delete entries")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "deleted",
		"deleted": len(req.IDs),
	})
}

// EntryItemHandler handles a single entry addressed by ID.
type EntryItemHandler struct {
	logger  *common.Logger
	service *service.Service
}

// NewEntryItemHandler creates a new single-entry handler.
func NewEntryItemHandler(logger *common.Logger, svc *service.Service) *EntryItemHandler {
	return &EntryItemHandler{logger: logger, service: svc}
}

// ServeHTTP handles GET, PUT and DELETE /api/entries/{id}.
func (h *EntryItemHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/entries/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusBadRequest, "entry id is required")
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *EntryItemHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	entry, err := h.service.GetEntry(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, entry)
}

func (h *EntryItemHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Date           string          `json:"date"`
		PortfolioValue decimal.Decimal `json:"portfolio_value"`
		Ticker         string          `json:"ticker"`
		TradeType      string          `json:"trade_type"`
		Contracts      string          `json:"contracts"`
		Notes          string          `json:"notes"`
		Amount         decimal.Decimal `json:"amount"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err)
		return
	}
	date, err := ParseDate(req.Date)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	entry, err := h.service.UpdateEntry(r.Context(), id, service.UpdateInput{
		Date:      date,
		Value:     req.PortfolioValue,
		Ticker:    req.Ticker,
		TradeType: req.TradeType,
		Contracts: req.Contracts,
		Notes:     req.Notes,
		Amount:    req.Amount,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("entry", id).Msg("failed to update entry")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, entry)
}

func (h *EntryItemHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.DeleteEntry(r.Context(), id); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
		"id":     id,
	})
}
