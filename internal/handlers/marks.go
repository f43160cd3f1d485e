package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/sharedfund/ledgerd/internal/common"
	"github.com/sharedfund/ledgerd/internal/service"
)

// MarksHandler records new portfolio marks.
type MarksHandler struct {
	logger  *common.Logger
	service *service.Service
}

// NewMarksHandler creates a new marks handler.
func NewMarksHandler(logger *common.Logger, svc *service.Service) *MarksHandler {
	return &MarksHandler{logger: logger, service: svc}
}

// ServeHTTP handles POST /api/marks.
func (h *MarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req struct {
		Date           string          `json:"date"`
		PortfolioValue decimal.Decimal `json:"portfolio_value"`
		Ticker         string          `json:"ticker"`
		TradeType      string          `json:"trade_type"`
		Contracts      string          `json:"contracts"`
		Notes          string          `json:"notes"`
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

	entry, err := h.service.AddMark(r.Context(), service.MarkInput{
		Date:      date,
		Value:     req.PortfolioValue,
		Ticker:    req.Ticker,
		TradeType: req.TradeType,
		Contracts: req.Contracts,
		Notes:     req.Notes,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to record mark")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, entry)
}
