// Package service orchestrates the valuation engine against persistent
// storage: it loads the current snapshot, runs the engine, and applies the
// resulting entry and capital deltas.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sharedfund/ledgerd/internal/common"
	"github.com/sharedfund/ledgerd/internal/config"
	"github.com/sharedfund/ledgerd/internal/interfaces"
	"github.com/sharedfund/ledgerd/internal/ledger"
	"github.com/sharedfund/ledgerd/internal/models"
)

// Service owns all ledger mutations. A single mutex serializes writers so
// every mutation sees a consistent snapshot; reads go straight to storage.
type Service struct {
	storage interfaces.StorageManager
	engine  *ledger.Engine
	fund    config.FundConfig
	logger  *common.Logger

	mu sync.Mutex
}

// New creates the ledger service.
func New(storage interfaces.StorageManager, fund config.FundConfig, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		engine:  ledger.NewEngine(logger),
		fund:    fund,
		logger:  logger,
	}
}

// MarkInput carries the fields of a new portfolio mark.
type MarkInput struct {
	Date      time.Time
	Value     decimal.Decimal
	Ticker    string
	TradeType string
	Contracts string
	Notes     string
}

// UpdateInput carries replacement fields for an edited entry. Amount applies
// to capital-type entries only and is the new absolute amount.
type UpdateInput struct {
	Date      time.Time
	Value     decimal.Decimal
	Ticker    string
	TradeType string
	Contracts string
	Notes     string
	Amount    decimal.Decimal
}

// PartnerOverview is one partner's current position for the overview view.
type PartnerOverview struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	Color       string          `json:"color"`
	Capital     decimal.Decimal `json:"capital"`
	Ownership   decimal.Decimal `json:"ownership"`
	Value       decimal.Decimal `json:"value"`
	PL          decimal.Decimal `json:"pl"`
}

// Overview summarizes the fund's current state.
type Overview struct {
	FundName       string            `json:"fund_name"`
	PortfolioValue decimal.Decimal   `json:"portfolio_value"`
	EntryCount     int               `json:"entry_count"`
	LastEntryDate  *time.Time        `json:"last_entry_date,omitempty"`
	Partners       []PartnerOverview `json:"partners"`
}

// EnsurePartners seeds configured partners that do not exist yet. Existing
// partners keep their stored totals and display settings.
func (s *Service) EnsurePartners(ctx context.Context) error {
	store := s.storage.Partners()
	for _, pc := range s.fund.Partners {
		if _, err := store.Get(ctx, pc.Name); err == nil {
			continue
		}
		partner := &models.Partner{
			Name:        pc.Name,
			DisplayName: pc.DisplayName,
			Color:       pc.Color,
			Active:      true,
		}
		if err := store.Upsert(ctx, partner); err != nil {
			return fmt.Errorf("failed to seed partner %s: %w", pc.Name, err)
		}
		s.logger.Info().Str("partner", pc.Name).Msg("seeded partner from config")
	}
	return nil
}

// snapshot assembles the engine's view of current state: the latest entry
// plus every active partner's running total. Callers must hold s.mu when the
// snapshot feeds a mutation.
func (s *Service) snapshot(ctx context.Context) (ledger.Snapshot, error) {
	totals, err := s.partnerTotals(ctx)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	latest, err := s.storage.Entries().Latest(ctx)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	return ledger.BuildSnapshot(latest, totals), nil
}

// partnerTotals returns each active partner's running total invested.
func (s *Service) partnerTotals(ctx context.Context) (map[string]decimal.Decimal, error) {
	partners, err := s.storage.Partners().List(ctx, false)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]decimal.Decimal, len(partners))
	for _, p := range partners {
		totals[p.Name] = p.TotalInvested
	}
	return totals, nil
}

// replaceLatest reinserts entry under the latest entry's identity and trade
// fields, with DailyPL recomputed against the next-older entry.
func (s *Service) replaceLatest(ctx context.Context, latest, entry *models.Entry) error {
	prev, err := s.entryBefore(ctx, latest.ID)
	if err != nil {
		return err
	}
	entry.ID = latest.ID
	entry.EntryDate = latest.EntryDate
	entry.CreatedAt = latest.CreatedAt
	entry.Ticker = latest.Ticker
	entry.TradeType = latest.TradeType
	entry.Contracts = latest.Contracts
	if prev != nil && prev.PortfolioValue.IsPositive() {
		entry.DailyPL = entry.PortfolioValue.Sub(prev.PortfolioValue)
	}
	if err := s.storage.Entries().Delete(ctx, latest.ID); err != nil {
		return err
	}
	return s.storage.Entries().Append(ctx, entry)
}

// stamp fills the identity and timestamp fields the engine leaves blank.
func stamp(entry *models.Entry, date time.Time) {
	entry.ID = uuid.NewString()
	if date.IsZero() {
		date = time.Now().UTC()
	}
	entry.EntryDate = date
	entry.CreatedAt = time.Now().UTC()
}

// AddMark records a portfolio mark as a new trade entry.
func (s *Service) AddMark(ctx context.Context, in MarkInput) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := s.engine.RecordMark(snap, in.Value, ledger.TradeMeta{
		Ticker:    in.Ticker,
		TradeType: in.TradeType,
		Contracts: in.Contracts,
		Notes:     in.Notes,
	})
	if err != nil {
		return nil, err
	}
	stamp(entry, in.Date)
	if err := s.storage.Entries().Append(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("entry", entry.ID).
		Str("value", entry.PortfolioValue.String()).
		Msg("recorded portfolio mark")
	return entry, nil
}

// Deposit records a capital contribution and bumps the partner's total.
func (s *Service) Deposit(ctx context.Context, person string, amount decimal.Decimal, date time.Time) (*models.Entry, error) {
	return s.capitalChange(ctx, person, amount, date, ledger.Deposit)
}

// Withdraw records a capital withdrawal and reduces the partner's total.
func (s *Service) Withdraw(ctx context.Context, person string, amount decimal.Decimal, date time.Time) (*models.Entry, error) {
	return s.capitalChange(ctx, person, amount, date, ledger.Withdrawal)
}

func (s *Service) capitalChange(ctx context.Context, person string, amount decimal.Decimal, date time.Time, mode ledger.CapitalMode) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	entry, delta, err := s.engine.RecordCapitalChange(snap, person, amount, mode)
	if err != nil {
		return nil, err
	}
	stamp(entry, date)
	if err := s.storage.Partners().AdjustTotal(ctx, delta.Person, delta.Amount); err != nil {
		return nil, err
	}
	if err := s.storage.Entries().Append(ctx, entry); err != nil {
		// Roll the total back so it stays consistent with the ledger.
		if rbErr := s.storage.Partners().AdjustTotal(ctx, delta.Person, delta.Amount.Neg()); rbErr != nil {
			s.logger.Error().Err(rbErr).Str("partner", delta.Person).Msg("failed to roll back capital total")
		}
		return nil, err
	}

	s.logger.Info().
		Str("entry", entry.ID).
		Str("partner", person).
		Str("amount", delta.Amount.String()).
		Msg("recorded capital change")
	return entry, nil
}

// Override replaces the latest trade entry with a corrected valuation. When
// the ledger is empty or the latest entry moves capital, the override is
// appended as a new trade entry instead of rewriting a capital row.
func (s *Service) Override(ctx context.Context, total decimal.Decimal, values map[string]decimal.Decimal, mode ledger.OverrideMode, force bool) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest, err := s.storage.Entries().Latest(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.partnerTotals(ctx)
	if err != nil {
		return nil, err
	}
	snap := ledger.BuildSnapshot(latest, totals)
	entry, err := s.engine.RecordManualOverride(snap, total, values, mode, force)
	if err != nil {
		return nil, err
	}
	entry.Notes = "Manual valuation override"

	if latest == nil || latest.IsCapitalType() {
		stamp(entry, time.Time{})
		if err := s.storage.Entries().Append(ctx, entry); err != nil {
			return nil, err
		}
	} else if err := s.replaceLatest(ctx, latest, entry); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("entry", entry.ID).
		Str("total", total.String()).
		Str("mode", string(mode)).
		Msg("recorded manual override")
	return entry, nil
}

// AdminOverride appends an unrestricted correction entry and applies any
// capital-total adjustments it implies.
func (s *Service) AdminOverride(ctx context.Context, req ledger.AdminOverride) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	entry, deltas, err := s.engine.RecordAdminOverride(snap, req)
	if err != nil {
		return nil, err
	}
	if entry.Notes == "" {
		entry.Notes = "Admin override"
	}
	stamp(entry, time.Time{})
	for _, d := range deltas {
		if err := s.storage.Partners().AdjustTotal(ctx, d.Person, d.Amount); err != nil {
			return nil, err
		}
	}
	if err := s.storage.Entries().Append(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Warn().
		Str("entry", entry.ID).
		Str("mode", string(req.Mode)).
		Msg("recorded admin override")
	return entry, nil
}

// CorrectPortfolioValue replaces the latest trade entry with a corrected
// total, preserving its date and trade fields and re-deriving per-partner
// values proportionally from its ownership. When the ledger is empty or the
// latest entry moves capital, the correction is appended instead.
func (s *Service) CorrectPortfolioValue(ctx context.Context, total decimal.Decimal) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest, err := s.storage.Entries().Latest(ctx)
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.IsCapitalType() {
		snap, err := s.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		entry, err := s.engine.RecordManualOverride(snap, total, nil, ledger.OverrideProportional, false)
		if err != nil {
			return nil, err
		}
		entry.Notes = "Portfolio value correction"
		stamp(entry, time.Time{})
		if err := s.storage.Entries().Append(ctx, entry); err != nil {
			return nil, err
		}
		return entry, nil
	}

	totals, err := s.partnerTotals(ctx)
	if err != nil {
		return nil, err
	}

	// Ownership comes from the entry being corrected, so the correction
	// changes the total without shifting shares.
	snap := ledger.BuildSnapshot(latest, totals)

	entry, err := s.engine.RecordManualOverride(snap, total, nil, ledger.OverrideProportional, false)
	if err != nil {
		return nil, err
	}
	entry.Notes = latest.Notes
	if err := s.replaceLatest(ctx, latest, entry); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("entry", entry.ID).
		Str("old", latest.PortfolioValue.String()).
		Str("new", total.String()).
		Msg("corrected latest portfolio value")
	return entry, nil
}

// UpdateEntry replaces an entry with recomputed values, modeled as a
// compensating transaction: reverse the old entry's capital effect, delete
// the row, and insert a recomputed replacement under the same ID. The
// replacement is derived relative to the chronologically previous entry.
// Later entries are not cascaded.
func (s *Service) UpdateEntry(ctx context.Context, id string, in UpdateInput) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, err := s.storage.Entries().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev, err := s.entryBefore(ctx, id)
	if err != nil {
		return nil, err
	}

	// Undo the old entry's effect on running totals before recomputing.
	reversals := ledger.ReverseEntry(old)
	for _, d := range reversals {
		if err := s.storage.Partners().AdjustTotal(ctx, d.Person, d.Amount); err != nil {
			return nil, err
		}
	}

	totals, err := s.partnerTotals(ctx)
	if err != nil {
		return nil, err
	}
	snap := ledger.BuildSnapshot(prev, totals)

	var entry *models.Entry
	if old.IsCapitalType() {
		mode := ledger.Deposit
		if old.Type == models.EntryWithdrawal {
			mode = ledger.Withdrawal
		}
		amount := in.Amount
		if amount.IsZero() {
			amount = old.CapitalAmount.Abs()
		}
		var delta ledger.CapitalDelta
		entry, delta, err = s.engine.RecordCapitalChange(snap, old.CapitalPerson, amount, mode)
		if err != nil {
			// Restore the reversed totals so a rejected edit is a no-op.
			for _, d := range reversals {
				if rbErr := s.storage.Partners().AdjustTotal(ctx, d.Person, d.Amount.Neg()); rbErr != nil {
					s.logger.Error().Err(rbErr).Str("partner", d.Person).Msg("failed to restore capital total")
				}
			}
			return nil, err
		}
		if err := s.storage.Partners().AdjustTotal(ctx, delta.Person, delta.Amount); err != nil {
			return nil, err
		}
		if in.Notes != "" {
			entry.Notes = in.Notes
		}
	} else {
		// A zero value means the field was omitted; keep the stored total so
		// a notes-only edit does not wipe the valuation.
		value := in.Value
		if value.IsZero() {
			value = old.PortfolioValue
		}
		entry, err = s.engine.RecordMark(snap, value, ledger.TradeMeta{
			Ticker:    pick(in.Ticker, old.Ticker),
			TradeType: pick(in.TradeType, old.TradeType),
			Contracts: pick(in.Contracts, old.Contracts),
			Notes:     pick(in.Notes, old.Notes),
		})
		if err != nil {
			return nil, err
		}
	}

	entry.ID = old.ID
	entry.CreatedAt = old.CreatedAt
	entry.EntryDate = old.EntryDate
	if !in.Date.IsZero() {
		entry.EntryDate = in.Date
	}

	if err := s.storage.Entries().Delete(ctx, id); err != nil {
		return nil, err
	}
	if err := s.storage.Entries().Append(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info().Str("entry", id).Str("type", entry.Type).Msg("replaced entry")
	return entry, nil
}

// DeleteEntry removes one entry, reversing its capital effect first.
func (s *Service) DeleteEntry(ctx context.Context, id string) error {
	return s.DeleteEntries(ctx, []string{id})
}

// DeleteEntries removes a batch of entries. Capital reversals are summed per
// partner and applied once each, then the rows are removed.
func (s *Service) DeleteEntries(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deltas []ledger.CapitalDelta
	entries := make([]*models.Entry, 0, len(ids))
	for _, id := range ids {
		entry, err := s.storage.Entries().Get(ctx, id)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		deltas = append(deltas, ledger.ReverseEntry(entry)...)
	}

	for _, d := range ledger.SumDeltas(deltas) {
		if err := s.storage.Partners().AdjustTotal(ctx, d.Person, d.Amount); err != nil {
			return err
		}
	}
	for _, entry := range entries {
		if err := s.storage.Entries().Delete(ctx, entry.ID); err != nil {
			return err
		}
	}

	s.logger.Info().Int("count", len(entries)).Msg("deleted ledger entries")
	return nil
}

// GetEntry fetches a single entry by ID.
func (s *Service) GetEntry(ctx context.Context, id string) (*models.Entry, error) {
	return s.storage.Entries().Get(ctx, id)
}

// ListEntries returns the newest entries, at most limit rows (0 means all).
func (s *Service) ListEntries(ctx context.Context, limit int) ([]models.Entry, error) {
	return s.storage.Entries().List(ctx, limit)
}

// GetOverview summarizes the current fund state from the latest entry and
// partner records.
func (s *Service) GetOverview(ctx context.Context) (*Overview, error) {
	partners, err := s.storage.Partners().List(ctx, false)
	if err != nil {
		return nil, err
	}
	entries, err := s.storage.Entries().List(ctx, 0)
	if err != nil {
		return nil, err
	}

	ov := &Overview{
		FundName:   s.fund.Name,
		EntryCount: len(entries),
		Partners:   make([]PartnerOverview, 0, len(partners)),
	}
	var latest *models.Entry
	if len(entries) > 0 {
		latest = &entries[0]
		ov.PortfolioValue = latest.PortfolioValue
		d := latest.EntryDate
		ov.LastEntryDate = &d
	}

	for _, p := range partners {
		po := PartnerOverview{
			Name:        p.Name,
			DisplayName: p.DisplayName,
			Color:       p.Color,
			Capital:     p.TotalInvested,
		}
		if latest != nil {
			ps := latest.Partners[p.Name]
			po.Ownership = ps.Ownership
			po.Value = ps.Value
			po.PL = ps.Value.Sub(p.TotalInvested)
		}
		ov.Partners = append(ov.Partners, po)
	}
	return ov, nil
}

// ListPartners returns partners, optionally including deactivated ones.
func (s *Service) ListPartners(ctx context.Context, includeInactive bool) ([]models.Partner, error) {
	return s.storage.Partners().List(ctx, includeInactive)
}

// AddPartner registers a new active partner with a zero total.
func (s *Service) AddPartner(ctx context.Context, name, displayName, color string) (*models.Partner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		return nil, fmt.Errorf("%w: partner name is required", ledger.ErrInvalidInput)
	}
	if existing, err := s.storage.Partners().Get(ctx, name); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: partner %s already exists", ledger.ErrInvalidInput, name)
	}
	if displayName == "" {
		displayName = common.TitleName(name)
	}
	partner := &models.Partner{
		Name:        name,
		DisplayName: displayName,
		Color:       color,
		Active:      true,
	}
	if err := s.storage.Partners().Upsert(ctx, partner); err != nil {
		return nil, err
	}
	return partner, nil
}

// UpdatePartner changes a partner's display fields and active flag. Empty
// strings leave the stored value alone; a nil active pointer does the same.
func (s *Service) UpdatePartner(ctx context.Context, name, displayName, color string, active *bool) (*models.Partner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	partner, err := s.storage.Partners().Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if displayName != "" {
		partner.DisplayName = displayName
	}
	if color != "" {
		partner.Color = color
	}
	if active != nil {
		partner.Active = *active
	}
	if err := s.storage.Partners().Upsert(ctx, partner); err != nil {
		return nil, err
	}
	return partner, nil
}

// DeactivatePartner soft-deletes a partner; history and totals survive.
func (s *Service) DeactivatePartner(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storage.Partners().Deactivate(ctx, name)
}

// RemovePartner permanently deletes a partner record.
func (s *Service) RemovePartner(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storage.Partners().Delete(ctx, name)
}

// entryBefore returns the entry chronologically just older than id, or nil.
func (s *Service) entryBefore(ctx context.Context, id string) (*models.Entry, error) {
	entries, err := s.storage.Entries().List(ctx, 0)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == id {
			if i+1 < len(entries) {
				return &entries[i+1], nil
			}
			return nil, nil
		}
	}
	return nil, fmt.Errorf("%w: entry %s", ledger.ErrNotFound, id)
}

func pick(new, old string) string {
	if new != "" {
		return new
	}
	return old
}
