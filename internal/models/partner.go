package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Partner represents one participant in the shared fund.
//
// TotalInvested is the running sum of net capital contributed (deposits
// minus withdrawals). It is adjusted by capital-type ledger entries only;
// trade marks never touch it.
type Partner struct {
	Name          string          `json:"name" badgerhold:"key"`
	DisplayName   string          `json:"display_name"`
	Color         string          `json:"color"`
	Active        bool            `json:"active"`
	TotalInvested decimal.Decimal `json:"total_invested"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
