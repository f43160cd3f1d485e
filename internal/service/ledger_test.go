package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sharedfund/ledgerd/internal/common"
	"github.com/sharedfund/ledgerd/internal/config"
	"github.com/sharedfund/ledgerd/internal/interfaces"
	"github.com/sharedfund/ledgerd/internal/ledger"
	"github.com/sharedfund/ledgerd/internal/storage/badger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setupService(t *testing.T) (*Service, interfaces.StorageManager) {
	t.Helper()

	logger := common.NewSilentLogger()
	cfg := &config.BadgerConfig{Path: t.TempDir()}
	manager, err := badger.NewManager(logger, cfg)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { manager.Close() })

	fund := config.FundConfig{
		Name: "Test Fund",
		Partners: []config.PartnerConfig{
			{Name: "nick", DisplayName: "Nick", Color: "green"},
			{Name: "joey", DisplayName: "Joey", Color: "orange"},
		},
	}
	svc := New(manager, fund, logger)
	if err := svc.EnsurePartners(context.Background()); err != nil {
		t.Fatalf("EnsurePartners failed: %v", err)
	}
	return svc, manager
}

func partnerTotal(t *testing.T, m interfaces.StorageManager, name string) decimal.Decimal {
	t.Helper()
	p, err := m.Partners().Get(context.Background(), name)
	if err != nil {
		t.Fatalf("failed to get partner %s: %v", name, err)
	}
	return p.TotalInvested
}

func TestEnsurePartnersIsIdempotent(t *testing.T) {
	svc, m := setupService(t)
	ctx := context.Background()

	if err := m.Partners().AdjustTotal(ctx, "nick", dec("500")); err != nil {
		t.Fatalf("AdjustTotal failed: %v", err)
	}
	if err := svc.EnsurePartners(ctx); err != nil {
		t.Fatalf("second EnsurePartners failed: %v", err)
	}
	if !partnerTotal(t, m, "nick").Equal(dec("500")) {
		t.Error("re-seeding overwrote an existing partner total")
	}
}

func TestDepositThenMark(t *testing.T) {
	svc, m := setupService(t)
	ctx := context.Background()

	entry, err := svc.Deposit(ctx, "nick", dec("1000"), time.Time{})
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if !entry.Partners["nick"].Ownership.Equal(dec("100")) {
		t.Errorf("nick ownership = %s, want 100", entry.Partners["nick"].Ownership)
	}
	if !partnerTotal(t, m, "nick").Equal(dec("1000")) {
		t.Errorf("nick total = %s, want 1000", partnerTotal(t, m, "nick"))
	}

	mark, err := svc.AddMark(ctx, MarkInput{Value: dec("1100"), Ticker: "SPY"})
	if err != nil {
		t.Fatalf("AddMark failed: %v", err)
	}
	if !mark.DailyPL.Equal(dec("100")) {
		t.Errorf("daily P/L = %s, want 100", mark.DailyPL)
	}
	if !mark.Partners["nick"].Value.Equal(dec("1100")) {
		t.Errorf("nick value = %s, want 1100", mark.Partners["nick"].Value)
	}
	// Marks never move capital totals.
	if !partnerTotal(t, m, "nick").Equal(dec("1000")) {
		t.Error("mark changed partner capital total")
	}
}

func TestSecondDepositPreservesFirstPartnerValue(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	svc.Deposit(ctx, "nick", dec("600"), time.Time{})
	svc.Deposit(ctx, "joey", dec("400"), time.Time{})

	entry, err := svc.Deposit(ctx, "joey", dec("200"), time.Time{})
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if !entry.Partners["nick"].Value.Equal(dec("600")) {
		t.Errorf("nick value = %s, want 600", entry.Partners["nick"].Value)
	}
	if !entry.Partners["joey"].Value.Equal(dec("600")) {
		t.Errorf("joey value = %s, want 600", entry.Partners["joey"].Value)
	}
	if !entry.Partners["nick"].Ownership.Equal(dec("50")) {
		t.Errorf("nick ownership = %s, want 50", entry.Partners["nick"].Ownership)
	}
}

func TestWithdrawRejectsOverdraw(t *testing.T) {
	svc, m := setupService(t)
	ctx := context.Background()

	svc.Deposit(ctx, "nick", dec("300"), time.Time{})

	_, err := svc.Withdraw(ctx, "nick", dec("500"), time.Time{})
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	// Rejected withdrawal must not touch the running total.
	if !partnerTotal(t, m, "nick").Equal(dec("300")) {
		t.Error("rejected withdrawal changed capital total")
	}
}

func TestDeleteEntryRestoresTotals(t *testing.T) {
	svc, m := setupService(t)
	ctx := context.Background()

	svc.Deposit(ctx, "nick", dec("600"), time.Time{})
	entry, err := svc.Deposit(ctx, "joey", dec("400"), time.Time{})
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	if err := svc.DeleteEntry(ctx, entry.ID); err != nil {
		t.Fatalf("DeleteEntry failed: %v", err)
	}
	if !partnerTotal(t, m, "joey").IsZero() {
		t.Errorf("joey total = %s after deleting its deposit, want 0", partnerTotal(t, m, "joey"))
	}
	if !partnerTotal(t, m, "nick").Equal(dec("600")) {
		t.Errorf("nick total = %s, want 600 untouched", partnerTotal(t, m, "nick"))
	}
	if _, err := svc.GetEntry(ctx, entry.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}
}

func TestDeleteEntriesBatchMergesReversals(t *testing.T) {
	svc, m := setupService(t)
	ctx := context.Background()

	e1, _ := svc.Deposit(ctx, "nick", dec("500"), time.Time{})
	e2, _ := svc.Deposit(ctx, "nick", dec("300"), time.Time{})
	e3, _ := svc.AddMark(ctx, MarkInput{Value: dec("900")})

	if err := svc.DeleteEntries(ctx, []string{e1.ID, e2.ID, e3.ID}); err != nil {
		t.Fatalf("DeleteEntries failed: %v", err)
	}
	if !partnerTotal(t, m, "nick").IsZero() {
		t.Errorf("nick total = %s, want 0 after deleting both deposits", partnerTotal(t, m, "nick"))
	}
	entries, _ := svc.ListEntries(ctx, 0)
	if len(entries) != 0 {
		t.Errorf("%d entries remain, want 0", len(entries))
	}
}

func TestUpdateTradeEntryRecomputes(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	svc.Deposit(ctx, "nick", dec("600"), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	svc.Deposit(ctx, "joey", dec("400"), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	mark, err := svc.AddMark(ctx, MarkInput{
		Date:  time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		Value: dec("1200"),
	})
	if err != nil {
		t.Fatalf("AddMark failed: %v", err)
	}

	updated, err := svc.UpdateEntry(ctx, mark.ID, UpdateInput{Value: dec("1500"), Ticker: "QQQ"})
	if err != nil {
		t.Fatalf("UpdateEntry failed: %v", err)
	}
	if updated.ID != mark.ID {
		t.Errorf("id changed from %s to %s", mark.ID, updated.ID)
	}
	if !updated.PortfolioValue.Equal(dec("1500")) {
		t.Errorf("portfolio = %s, want 1500", updated.PortfolioValue)
	}
	// Daily P/L is against the chronologically previous entry (1000 total).
	if !updated.DailyPL.Equal(dec("500")) {
		t.Errorf("daily P/L = %s, want 500", updated.DailyPL)
	}
	if updated.Ticker != "QQQ" {
		t.Errorf("ticker = %q, want QQQ", updated.Ticker)
	}

	entries, _ := svc.ListEntries(ctx, 0)
	if len(entries) != 3 {
		t.Fatalf("%d entries, want 3 after in-place edit", len(entries))
	}
}

func TestUpdateCapitalEntryAdjustsTotals(t *testing.T) {
	svc, m := setupService(t)
	ctx := context.Background()

	entry, err := svc.Deposit(ctx, "nick", dec("500"), time.Time{})
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	updated, err := svc.UpdateEntry(ctx, entry.ID, UpdateInput{Amount: dec("800")})
	if err != nil {
		t.Fatalf("UpdateEntry failed: %v", err)
	}
	if !updated.CapitalAmount.Equal(dec("800")) {
		t.Errorf("capital amount = %s, want 800", updated.CapitalAmount)
	}
	if !partnerTotal(t, m, "nick").Equal(dec("800")) {
		t.Errorf("nick total = %s, want 800", partnerTotal(t, m, "nick"))
	}
}

func TestCorrectPortfolioValueReplacesLatestTrade(t *testing.T) {
	svc, m := setupService(t)
	ctx := context.Background()

	svc.Deposit(ctx, "nick", dec("600"), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	svc.Deposit(ctx, "joey", dec("400"), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	mark, _ := svc.AddMark(ctx, MarkInput{
		Date:   time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		Value:  dec("1200"),
		Ticker: "SPY",
	})

	corrected, err := svc.CorrectPortfolioValue(ctx, dec("1300"))
	if err != nil {
		t.Fatalf("CorrectPortfolioValue failed: %v", err)
	}
	if corrected.ID != mark.ID {
		t.Errorf("correction got new id %s, want reused %s", corrected.ID, mark.ID)
	}
	if corrected.Ticker != "SPY" {
		t.Errorf("ticker = %q, want carried SPY", corrected.Ticker)
	}
	if !corrected.PortfolioValue.Equal(dec("1300")) {
		t.Errorf("portfolio = %s, want 1300", corrected.PortfolioValue)
	}
	if !corrected.DailyPL.Equal(dec("300")) {
		t.Errorf("daily P/L = %s, want 300 vs the prior 1000 total", corrected.DailyPL)
	}
	// Ownership shares are unchanged by a total correction.
	if !corrected.Partners["nick"].Ownership.Equal(dec("60")) {
		t.Errorf("nick ownership = %s, want 60", corrected.Partners["nick"].Ownership)
	}
	if !partnerTotal(t, m, "nick").Equal(dec("600")) {
		t.Error("correction changed capital totals")
	}

	entries, _ := svc.ListEntries(ctx, 0)
	if len(entries) != 3 {
		t.Errorf("%d entries, want 3 (correction replaces, not appends)", len(entries))
	}
}

func TestOverrideStrictMismatchRejected(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	svc.Deposit(ctx, "nick", dec("600"), time.Time{})
	svc.Deposit(ctx, "joey", dec("400"), time.Time{})

	values := map[string]decimal.Decimal{"nick": dec("700"), "joey": dec("200")}
	_, err := svc.Override(ctx, dec("1000"), values, ledger.OverrideIndependent, false)
	if !errors.Is(err, ledger.ErrSumMismatch) {
		t.Fatalf("err = %v, want ErrSumMismatch", err)
	}

	entry, err := svc.Override(ctx, dec("1000"), values, ledger.OverrideIndependent, true)
	if err != nil {
		t.Fatalf("forced override failed: %v", err)
	}
	if !entry.Partners["nick"].Value.Equal(dec("700")) {
		t.Errorf("nick value = %s, want 700", entry.Partners["nick"].Value)
	}
}

func TestOverrideReplacesLatestTrade(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	svc.Deposit(ctx, "nick", dec("600"), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	svc.Deposit(ctx, "joey", dec("400"), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	mark, _ := svc.AddMark(ctx, MarkInput{
		Date:   time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		Value:  dec("1200"),
		Ticker: "SPY",
	})

	entry, err := svc.Override(ctx, dec("1500"), nil, ledger.OverrideProportional, false)
	if err != nil {
		t.Fatalf("Override failed: %v", err)
	}
	if entry.ID != mark.ID {
		t.Errorf("override got new id %s, want reused %s", entry.ID, mark.ID)
	}
	if entry.Ticker != "SPY" {
		t.Errorf("ticker = %q, want carried SPY", entry.Ticker)
	}
	if !entry.Partners["nick"].Value.Equal(dec("900")) {
		t.Errorf("nick value = %s, want 900", entry.Partners["nick"].Value)
	}
	if !entry.DailyPL.Equal(dec("500")) {
		t.Errorf("daily P/L = %s, want 500 vs the prior 1000 total", entry.DailyPL)
	}

	entries, _ := svc.ListEntries(ctx, 0)
	if len(entries) != 3 {
		t.Errorf("%d entries, want 3 (override replaces, not appends)", len(entries))
	}
}

func TestUpdateTradeEntryNotesOnlyKeepsValue(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	svc.Deposit(ctx, "nick", dec("1000"), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	mark, _ := svc.AddMark(ctx, MarkInput{
		Date:   time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Value:  dec("1200"),
		Ticker: "SPY",
	})

	updated, err := svc.UpdateEntry(ctx, mark.ID, UpdateInput{Notes: "rolled position"})
	if err != nil {
		t.Fatalf("UpdateEntry failed: %v", err)
	}
	if !updated.PortfolioValue.Equal(dec("1200")) {
		t.Errorf("portfolio = %s, want 1200 kept on a notes-only edit", updated.PortfolioValue)
	}
	if updated.Notes != "rolled position" {
		t.Errorf("notes = %q, want rolled position", updated.Notes)
	}
	if updated.Ticker != "SPY" {
		t.Errorf("ticker = %q, want carried SPY", updated.Ticker)
	}
}

func TestAdminOverrideAppliesCapitalDeltas(t *testing.T) {
	svc, m := setupService(t)
	ctx := context.Background()

	svc.Deposit(ctx, "nick", dec("600"), time.Time{})
	svc.Deposit(ctx, "joey", dec("400"), time.Time{})

	_, err := svc.AdminOverride(ctx, ledger.AdminOverride{
		Mode:           ledger.AdminRecalculate,
		PortfolioTotal: dec("2000"),
		CapitalTotals:  map[string]decimal.Decimal{"nick": dec("900")},
		Ownerships:     map[string]decimal.Decimal{"nick": dec("60"), "joey": dec("40")},
	})
	if err != nil {
		t.Fatalf("AdminOverride failed: %v", err)
	}
	if !partnerTotal(t, m, "nick").Equal(dec("900")) {
		t.Errorf("nick total = %s, want 900", partnerTotal(t, m, "nick"))
	}
	if !partnerTotal(t, m, "joey").Equal(dec("400")) {
		t.Errorf("joey total = %s, want 400 unchanged", partnerTotal(t, m, "joey"))
	}
}

func TestGetOverview(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	ov, err := svc.GetOverview(ctx)
	if err != nil {
		t.Fatalf("GetOverview failed: %v", err)
	}
	if ov.FundName != "Test Fund" || ov.EntryCount != 0 || ov.LastEntryDate != nil {
		t.Errorf("empty overview = %+v", ov)
	}

	svc.Deposit(ctx, "nick", dec("600"), time.Time{})
	svc.AddMark(ctx, MarkInput{Value: dec("660")})

	ov, err = svc.GetOverview(ctx)
	if err != nil {
		t.Fatalf("GetOverview failed: %v", err)
	}
	if ov.EntryCount != 2 {
		t.Errorf("entry count = %d, want 2", ov.EntryCount)
	}
	if !ov.PortfolioValue.Equal(dec("660")) {
		t.Errorf("portfolio = %s, want 660", ov.PortfolioValue)
	}
	for _, p := range ov.Partners {
		if p.Name == "nick" {
			if !p.Value.Equal(dec("660")) {
				t.Errorf("nick value = %s, want 660", p.Value)
			}
			if !p.PL.Equal(dec("60")) {
				t.Errorf("nick P/L = %s, want 60", p.PL)
			}
		}
	}
}

func TestPartnerLifecycle(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	p, err := svc.AddPartner(ctx, "casey", "", "blue")
	if err != nil {
		t.Fatalf("AddPartner failed: %v", err)
	}
	if p.DisplayName != "Casey" {
		t.Errorf("display name = %q, want titled Casey", p.DisplayName)
	}
	if _, err := svc.AddPartner(ctx, "casey", "", ""); !errors.Is(err, ledger.ErrInvalidInput) {
		t.Errorf("duplicate add err = %v, want ErrInvalidInput", err)
	}

	if err := svc.DeactivatePartner(ctx, "casey"); err != nil {
		t.Fatalf("DeactivatePartner failed: %v", err)
	}
	active, _ := svc.ListPartners(ctx, false)
	for _, a := range active {
		if a.Name == "casey" {
			t.Error("deactivated partner still listed as active")
		}
	}
	all, _ := svc.ListPartners(ctx, true)
	if len(all) != 3 {
		t.Errorf("all partners = %d, want 3", len(all))
	}

	if err := svc.RemovePartner(ctx, "casey"); err != nil {
		t.Fatalf("RemovePartner failed: %v", err)
	}
	all, _ = svc.ListPartners(ctx, true)
	if len(all) != 2 {
		t.Errorf("all partners = %d after permanent delete, want 2", len(all))
	}
}
