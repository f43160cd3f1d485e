// Package ledger implements the valuation engine for the shared fund: the
// rules that derive each partner's ownership percentage, current value, and
// profit/loss from every ledger mutation, and the capital-total deltas needed
// to keep running totals consistent across inserts and deletes.
package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sharedfund/ledgerd/internal/common"
	"github.com/sharedfund/ledgerd/internal/models"
)

// CapitalMode selects the direction of a capital change.
type CapitalMode string

// Capital change modes.
const (
	Deposit    CapitalMode = "deposit"
	Withdrawal CapitalMode = "withdrawal"
)

// OverrideMode selects how a manual override derives per-partner values.
type OverrideMode string

// Manual override modes.
const (
	// OverrideProportional scales previous ownership to the new total.
	OverrideProportional OverrideMode = "proportional"
	// OverrideIndependent takes explicit per-partner values.
	OverrideIndependent OverrideMode = "independent"
)

// AdminMode selects how an administrative override treats supplied fields.
type AdminMode string

// Admin override modes.
const (
	// AdminRecalculate normalizes supplied ownerships and re-derives values.
	AdminRecalculate AdminMode = "recalculate"
	// AdminIndependent stores supplied values verbatim after a soft check.
	AdminIndependent AdminMode = "independent"
)

var (
	hundred = decimal.NewFromInt(100)

	// valueTolerance bounds how far the per-partner value sum may drift from
	// the stated portfolio total before strict operations reject it.
	valueTolerance = decimal.RequireFromString("0.02")

	// fundsTolerance absorbs rounding noise when checking a withdrawal
	// against the partner's current value.
	fundsTolerance = decimal.RequireFromString("0.01")
)

// TradeMeta carries the descriptive fields of a trade mark.
type TradeMeta struct {
	Ticker    string
	TradeType string
	Contracts string
	Notes     string
}

// CapitalDelta is an adjustment the caller must apply to a partner's running
// total invested. Amount is signed.
type CapitalDelta struct {
	Person string
	Amount decimal.Decimal
}

// AdminOverride is the input to RecordAdminOverride. Maps are keyed by
// partner name; partners missing from CapitalTotals keep their old total.
type AdminOverride struct {
	Mode           AdminMode
	PortfolioTotal decimal.Decimal
	CapitalTotals  map[string]decimal.Decimal
	Values         map[string]decimal.Decimal
	Ownerships     map[string]decimal.Decimal
	Notes          string
}

// Engine computes new ledger entries from explicit snapshots. It performs no
// I/O; persistence is the caller's job.
type Engine struct {
	logger *common.Logger
}

// NewEngine creates a valuation engine. The logger is only used for soft
// warnings on lenient overrides and may be nil.
func NewEngine(logger *common.Logger) *Engine {
	return &Engine{logger: logger}
}

// RecordMark produces a trade entry for a new portfolio mark. Ownership is
// carried forward unchanged from the latest entry (or derived from capital
// totals on a fresh ledger); values are rescaled to the new total.
// Partner capital totals are never touched by a mark.
func (e *Engine) RecordMark(snap Snapshot, portfolioValue decimal.Decimal, meta TradeMeta) (*models.Entry, error) {
	if portfolioValue.IsNegative() {
		return nil, fmt.Errorf("%w: portfolio value must not be negative", ErrInvalidInput)
	}
	names := snap.PartnerNames()
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no partners", ErrInvalidInput)
	}

	var ownership map[string]decimal.Decimal
	switch {
	case portfolioValue.IsZero():
		// Ownership is undefined at zero value; fall back to the documented
		// degenerate policy of an even split.
		ownership = evenSplit(names)
	case snap.HasEntry:
		ownership = make(map[string]decimal.Decimal, len(names))
		for _, name := range names {
			ownership[name] = snap.Partners[name].Ownership
		}
		normalizeTo100(ownership, names)
	default:
		ownership = ownershipFromTotals(snap.Totals, names)
	}

	values := valuesFromOwnership(ownership, portfolioValue, names)

	dailyPL := decimal.Zero
	if snap.HasEntry && snap.PortfolioValue.IsPositive() {
		dailyPL = portfolioValue.Sub(snap.PortfolioValue)
	}

	return &models.Entry{
		Type:           models.EntryTrade,
		PortfolioValue: portfolioValue,
		Ticker:         meta.Ticker,
		TradeType:      meta.TradeType,
		Contracts:      meta.Contracts,
		Notes:          meta.Notes,
		DailyPL:        dailyPL,
		Partners:       buildStats(names, values, ownership, snap.Totals),
	}, nil
}

// RecordCapitalChange produces a capital or withdrawal entry plus the delta
// to apply to the partner's running total. A deposit adds the amount to the
// depositor's value and the portfolio total, leaving every other partner's
// value unchanged; a withdrawal mirrors that, floored at zero.
func (e *Engine) RecordCapitalChange(snap Snapshot, person string, amount decimal.Decimal, mode CapitalMode) (*models.Entry, CapitalDelta, error) {
	if !amount.IsPositive() {
		return nil, CapitalDelta{}, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if mode != Deposit && mode != Withdrawal {
		return nil, CapitalDelta{}, fmt.Errorf("%w: unknown capital mode %q", ErrInvalidInput, mode)
	}
	if _, ok := snap.Totals[person]; !ok {
		return nil, CapitalDelta{}, fmt.Errorf("%w: partner %q", ErrNotFound, person)
	}

	names := snap.PartnerNames()
	values := make(map[string]decimal.Decimal, len(names))
	for _, name := range names {
		values[name] = snap.Value(name)
	}

	var newPortfolio decimal.Decimal
	var entryType string
	var signedAmount decimal.Decimal
	var notes string

	switch mode {
	case Deposit:
		entryType = models.EntryCapital
		signedAmount = amount
		newPortfolio = snap.PortfolioValue.Add(amount)
		values[person] = values[person].Add(amount)
		notes = fmt.Sprintf("%s added %s (portfolio %s)",
			common.TitleName(person), common.FormatMoney(amount), common.FormatMoney(newPortfolio))

	case Withdrawal:
		current := values[person]
		if amount.Sub(current).GreaterThan(fundsTolerance) {
			return nil, CapitalDelta{}, fmt.Errorf("%w: %s holds %s, cannot withdraw %s",
				ErrInsufficientFunds, person, common.FormatMoney(current), common.FormatMoney(amount))
		}
		entryType = models.EntryWithdrawal
		signedAmount = amount.Neg()
		newPortfolio = snap.PortfolioValue.Sub(amount)
		if newPortfolio.IsNegative() {
			newPortfolio = decimal.Zero
		}
		remaining := current.Sub(amount)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		values[person] = remaining
		notes = fmt.Sprintf("%s withdrew %s (portfolio %s)",
			common.TitleName(person), common.FormatMoney(amount), common.FormatMoney(newPortfolio))
	}

	var ownership map[string]decimal.Decimal
	if newPortfolio.Abs().LessThanOrEqual(fundsTolerance) {
		// Fund is emptied: even split, all values zero.
		newPortfolio = decimal.Zero
		ownership = evenSplit(names)
		for _, name := range names {
			values[name] = decimal.Zero
		}
	} else {
		ownership = ownershipFromValues(values, newPortfolio, names)
	}

	newTotals := make(map[string]decimal.Decimal, len(snap.Totals))
	for name, total := range snap.Totals {
		newTotals[name] = total
	}
	newTotals[person] = newTotals[person].Add(signedAmount)

	entry := &models.Entry{
		Type:           entryType,
		PortfolioValue: newPortfolio,
		CapitalPerson:  person,
		CapitalAmount:  signedAmount,
		Notes:          notes,
		Partners:       buildStats(names, values, ownership, newTotals),
	}
	return entry, CapitalDelta{Person: person, Amount: signedAmount}, nil
}

// RecordManualOverride produces a replacement for the latest entry with a
// corrected portfolio total. In proportional mode per-partner values are
// derived by scaling previous ownership; in independent mode the caller
// supplies values, which must reconcile with the total unless force is set.
// The caller is responsible for deleting the prior latest entry.
func (e *Engine) RecordManualOverride(snap Snapshot, portfolioTotal decimal.Decimal, supplied map[string]decimal.Decimal, mode OverrideMode, force bool) (*models.Entry, error) {
	if portfolioTotal.IsNegative() {
		return nil, fmt.Errorf("%w: portfolio total must not be negative", ErrInvalidInput)
	}
	names := snap.PartnerNames()
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no partners", ErrInvalidInput)
	}

	values := make(map[string]decimal.Decimal, len(names))
	switch mode {
	case OverrideProportional:
		var prevOwnership map[string]decimal.Decimal
		if snap.HasEntry {
			prevOwnership = make(map[string]decimal.Decimal, len(names))
			for _, name := range names {
				prevOwnership[name] = snap.Partners[name].Ownership
			}
			normalizeTo100(prevOwnership, names)
		} else {
			prevOwnership = ownershipFromTotals(snap.Totals, names)
		}
		for _, name := range names {
			values[name] = portfolioTotal.Mul(prevOwnership[name]).Div(hundred)
		}

	case OverrideIndependent:
		sum := decimal.Zero
		for _, name := range names {
			values[name] = supplied[name]
			sum = sum.Add(supplied[name])
		}
		if diff := sum.Sub(portfolioTotal).Abs(); diff.GreaterThan(valueTolerance) {
			if !force {
				return nil, fmt.Errorf("%w: values sum to %s, total is %s",
					ErrSumMismatch, common.FormatMoney(sum), common.FormatMoney(portfolioTotal))
			}
			if e.logger != nil {
				e.logger.Warn().
					Str("sum", sum.String()).
					Str("total", portfolioTotal.String()).
					Msg("forced override violates value sum invariant")
			}
		}

	default:
		return nil, fmt.Errorf("%w: unknown override mode %q", ErrInvalidInput, mode)
	}

	var ownership map[string]decimal.Decimal
	if portfolioTotal.IsZero() {
		ownership = evenSplit(names)
	} else {
		ownership = ownershipFromValues(values, portfolioTotal, names)
	}

	return &models.Entry{
		Type:           models.EntryTrade,
		PortfolioValue: portfolioTotal,
		Partners:       buildStats(names, values, ownership, snap.Totals),
	}, nil
}

// RecordAdminOverride is the unrestricted administrative variant: it accepts
// direct overwrites of every field and returns the per-partner capital deltas
// needed to move running totals to the supplied ones.
func (e *Engine) RecordAdminOverride(snap Snapshot, req AdminOverride) (*models.Entry, []CapitalDelta, error) {
	if req.PortfolioTotal.IsNegative() {
		return nil, nil, fmt.Errorf("%w: portfolio total must not be negative", ErrInvalidInput)
	}
	names := snap.PartnerNames()
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("%w: no partners", ErrInvalidInput)
	}

	newTotals := make(map[string]decimal.Decimal, len(names))
	for _, name := range names {
		if total, ok := req.CapitalTotals[name]; ok {
			newTotals[name] = total
		} else {
			newTotals[name] = snap.Total(name)
		}
	}

	values := make(map[string]decimal.Decimal, len(names))
	var ownership map[string]decimal.Decimal

	switch req.Mode {
	case AdminRecalculate:
		ownership = make(map[string]decimal.Decimal, len(names))
		sum := decimal.Zero
		for _, name := range names {
			ownership[name] = req.Ownerships[name]
			sum = sum.Add(req.Ownerships[name])
		}
		if sum.IsPositive() {
			for _, name := range names {
				ownership[name] = ownership[name].Mul(hundred).Div(sum)
			}
			normalizeTo100(ownership, names)
		} else {
			ownership = evenSplit(names)
		}
		values = valuesFromOwnership(ownership, req.PortfolioTotal, names)

	case AdminIndependent:
		sum := decimal.Zero
		for _, name := range names {
			values[name] = req.Values[name]
			sum = sum.Add(req.Values[name])
		}
		if diff := sum.Sub(req.PortfolioTotal).Abs(); diff.GreaterThan(valueTolerance) && e.logger != nil {
			e.logger.Warn().
				Str("sum", sum.String()).
				Str("total", req.PortfolioTotal.String()).
				Msg("admin override values do not reconcile with portfolio total")
		}
		if req.PortfolioTotal.IsZero() {
			ownership = evenSplit(names)
		} else {
			ownership = ownershipFromValues(values, req.PortfolioTotal, names)
		}

	default:
		return nil, nil, fmt.Errorf("%w: unknown admin mode %q", ErrInvalidInput, req.Mode)
	}

	var deltas []CapitalDelta
	for _, name := range names {
		d := newTotals[name].Sub(snap.Total(name))
		if !d.IsZero() {
			deltas = append(deltas, CapitalDelta{Person: name, Amount: d})
		}
	}

	return &models.Entry{
		Type:           models.EntryTrade,
		PortfolioValue: req.PortfolioTotal,
		Notes:          req.Notes,
		Partners:       buildStats(names, values, ownership, newTotals),
	}, deltas, nil
}

// ReverseEntry returns the capital deltas needed to undo an entry's effect on
// running totals. Trade entries return nothing; capital and withdrawal
// entries return the negated signed amount for their partner. Must be applied
// before the entry row is removed.
func ReverseEntry(entry *models.Entry) []CapitalDelta {
	if entry == nil || !entry.IsCapitalType() || entry.CapitalPerson == "" {
		return nil
	}
	return []CapitalDelta{{Person: entry.CapitalPerson, Amount: entry.CapitalAmount.Neg()}}
}

// SumDeltas merges deltas for the same partner so batch removals apply one
// adjustment per partner. Output is ordered by partner name.
func SumDeltas(deltas []CapitalDelta) []CapitalDelta {
	byPerson := make(map[string]decimal.Decimal)
	for _, d := range deltas {
		byPerson[d.Person] = byPerson[d.Person].Add(d.Amount)
	}
	names := make([]string, 0, len(byPerson))
	for name := range byPerson {
		names = append(names, name)
	}
	sort.Strings(names)
	merged := make([]CapitalDelta, 0, len(names))
	for _, name := range names {
		if byPerson[name].IsZero() {
			continue
		}
		merged = append(merged, CapitalDelta{Person: name, Amount: byPerson[name]})
	}
	return merged
}

// evenSplit assigns each partner an equal ownership share summing to exactly
// 100, with any division residue on the first partner.
func evenSplit(names []string) map[string]decimal.Decimal {
	share := hundred.Div(decimal.NewFromInt(int64(len(names))))
	ownership := make(map[string]decimal.Decimal, len(names))
	for _, name := range names {
		ownership[name] = share
	}
	normalizeTo100(ownership, names)
	return ownership
}

// ownershipFromValues derives ownership percentages from per-partner values
// and a positive total, normalized to sum to exactly 100.
func ownershipFromValues(values map[string]decimal.Decimal, total decimal.Decimal, names []string) map[string]decimal.Decimal {
	ownership := make(map[string]decimal.Decimal, len(names))
	for _, name := range names {
		ownership[name] = values[name].Mul(hundred).Div(total)
	}
	normalizeTo100(ownership, names)
	return ownership
}

// ownershipFromTotals bootstraps ownership from running capital totals when
// no entry exists yet. With no capital anywhere, the first partner by name
// gets the full baseline.
func ownershipFromTotals(totals map[string]decimal.Decimal, names []string) map[string]decimal.Decimal {
	sum := decimal.Zero
	for _, name := range names {
		sum = sum.Add(totals[name])
	}
	if sum.IsPositive() {
		return ownershipFromValues(totals, sum, names)
	}
	ownership := make(map[string]decimal.Decimal, len(names))
	for i, name := range names {
		if i == 0 {
			ownership[name] = hundred
		} else {
			ownership[name] = decimal.Zero
		}
	}
	return ownership
}

// normalizeTo100 pushes any residue from rounding onto the largest holder so
// the shares sum to exactly 100. Shares summing to zero are left alone.
func normalizeTo100(ownership map[string]decimal.Decimal, names []string) {
	sum := decimal.Zero
	for _, name := range names {
		sum = sum.Add(ownership[name])
	}
	if sum.IsZero() {
		return
	}
	if !sum.Equal(hundred) {
		scale := hundred.Div(sum)
		for _, name := range names {
			ownership[name] = ownership[name].Mul(scale)
		}
	}
	residue := hundred
	for _, name := range names {
		residue = residue.Sub(ownership[name])
	}
	if residue.IsZero() {
		return
	}
	largest := names[0]
	for _, name := range names[1:] {
		if ownership[name].GreaterThan(ownership[largest]) {
			largest = name
		}
	}
	ownership[largest] = ownership[largest].Add(residue)
}

// valuesFromOwnership derives per-partner dollar values from ownership and a
// portfolio total.
func valuesFromOwnership(ownership map[string]decimal.Decimal, total decimal.Decimal, names []string) map[string]decimal.Decimal {
	values := make(map[string]decimal.Decimal, len(names))
	for _, name := range names {
		values[name] = total.Mul(ownership[name]).Div(hundred)
	}
	return values
}

// buildStats assembles the per-partner snapshot map persisted on an entry:
// capital at the time of the entry, ownership, value, and unrealized P/L.
func buildStats(names []string, values, ownership, totals map[string]decimal.Decimal) map[string]models.PartnerSnapshot {
	stats := make(map[string]models.PartnerSnapshot, len(names))
	for _, name := range names {
		stats[name] = models.PartnerSnapshot{
			Capital:   totals[name],
			Ownership: ownership[name],
			Value:     values[name],
			PL:        values[name].Sub(totals[name]),
		}
	}
	return stats
}
