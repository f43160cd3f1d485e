package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry types.
const (
	EntryTrade      = "trade"
	EntryCapital    = "capital"
	EntryWithdrawal = "withdrawal"
)

// PartnerSnapshot captures one partner's position at the time of an entry.
type PartnerSnapshot struct {
	Capital   decimal.Decimal `json:"capital"`
	Ownership decimal.Decimal `json:"ownership"`
	Value     decimal.Decimal `json:"value"`
	PL        decimal.Decimal `json:"pl"`
}

// Entry is one immutable ledger row capturing portfolio state at a point in
// time. Edits are modeled as delete-and-reinsert, never in-place mutation.
type Entry struct {
	ID             string          `json:"id" badgerhold:"key"`
	EntryDate      time.Time       `json:"entry_date"`
	Type           string          `json:"entry_type"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`

	// Trade-only fields.
	Ticker    string          `json:"ticker,omitempty"`
	TradeType string          `json:"trade_type,omitempty"`
	Contracts string          `json:"contracts,omitempty"`
	DailyPL   decimal.Decimal `json:"daily_pl"`

	// Capital/withdrawal-only fields. CapitalAmount is signed: positive for
	// deposits, negative for withdrawals.
	CapitalPerson string          `json:"capital_person,omitempty"`
	CapitalAmount decimal.Decimal `json:"capital_amount"`

	Notes string `json:"notes,omitempty"`

	// Per-partner position snapshots keyed by partner name.
	Partners map[string]PartnerSnapshot `json:"partners"`

	CreatedAt time.Time `json:"created_at"`
}

// IsCapitalType reports whether the entry moves partner capital and must be
// reversed before deletion.
func (e *Entry) IsCapitalType() bool {
	return e.Type == EntryCapital || e.Type == EntryWithdrawal
}
