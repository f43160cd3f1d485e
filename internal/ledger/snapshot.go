package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sharedfund/ledgerd/internal/models"
)

// Snapshot is the current ledger state every engine operation takes as an
// explicit argument: the latest entry's per-partner positions plus each
// partner's running capital total. It is plain data so the engine stays a
// pure function, testable without a store.
type Snapshot struct {
	// HasEntry is false for a fresh ledger with no entries yet.
	HasEntry bool

	// PortfolioValue is the latest entry's marked total, zero when HasEntry
	// is false.
	PortfolioValue decimal.Decimal

	// Partners holds the latest entry's per-partner snapshot, keyed by
	// partner name. Partners known to the fund but missing from the latest
	// entry appear with zero values.
	Partners map[string]models.PartnerSnapshot

	// Totals holds each active partner's running total invested.
	Totals map[string]decimal.Decimal
}

// BuildSnapshot assembles a Snapshot from the latest entry (nil for a fresh
// ledger) and the partners' running capital totals.
func BuildSnapshot(latest *models.Entry, totals map[string]decimal.Decimal) Snapshot {
	snap := Snapshot{
		Partners: make(map[string]models.PartnerSnapshot, len(totals)),
		Totals:   make(map[string]decimal.Decimal, len(totals)),
	}
	for name, total := range totals {
		snap.Totals[name] = total
		snap.Partners[name] = models.PartnerSnapshot{}
	}
	if latest != nil {
		snap.HasEntry = true
		snap.PortfolioValue = latest.PortfolioValue
		for name, ps := range latest.Partners {
			snap.Partners[name] = ps
		}
	}
	return snap
}

// PartnerNames returns the snapshot's partner names in stable sorted order.
func (s Snapshot) PartnerNames() []string {
	names := make([]string, 0, len(s.Partners))
	for name := range s.Partners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Value returns the named partner's current value, zero when unknown.
func (s Snapshot) Value(name string) decimal.Decimal {
	return s.Partners[name].Value
}

// Total returns the named partner's running capital total, zero when unknown.
func (s Snapshot) Total(name string) decimal.Decimal {
	return s.Totals[name]
}
