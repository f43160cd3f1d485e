package handlers

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/sharedfund/ledgerd/internal/common"
	"github.com/sharedfund/ledgerd/internal/ledger"
	"github.com/sharedfund/ledgerd/internal/service"
)

// CapitalHandler records partner deposits and withdrawals.
type CapitalHandler struct {
	logger  *common.Logger
	service *service.Service
}

// NewCapitalHandler creates a new capital handler.
func NewCapitalHandler(logger *common.Logger, svc *service.Service) *CapitalHandler {
	return &CapitalHandler{logger: logger, service: svc}
}

// ServeHTTP handles GET and POST /api/capital.
func (h *CapitalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.totals(w, r)
	case http.MethodPost:
		h.record(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// totals returns each active partner's running total invested.
func (h *CapitalHandler) totals(w http.ResponseWriter, r *http.Request) {
	partners, err := h.service.ListPartners(r.Context(), false)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load capital totals")
		WriteServiceError(w, err)
		return
	}
	totals := make(map[string]decimal.Decimal, len(partners))
	sum := decimal.Zero
	for _, p := range partners {
		totals[p.Name] = p.TotalInvested
		sum = sum.Add(p.TotalInvested)
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"totals": totals,
		"total":  sum,
	})
}

func (h *CapitalHandler) record(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Person string          `json:"person"`
		Amount decimal.Decimal `json:"amount"`
		Action string          `json:"action"`
		Date   string          `json:"date"`
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

	var entry interface{}
	switch req.Action {
	case "add", "deposit":
		entry, err = h.service.Deposit(r.Context(), req.Person, req.Amount, date)
	case "withdraw", "withdrawal":
		entry, err = h.service.Withdraw(r.Context(), req.Person, req.Amount, date)
	default:
		err = fmt.Errorf("%w: action must be add or withdraw", ledger.ErrInvalidInput)
	}
	if err != nil {
		h.logger.Error().Err(err).Str("person", req.Person).Str("action", req.Action).Msg("failed to record capital change")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, entry)
}
