package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sharedfund/ledgerd/internal/common"
	"github.com/sharedfund/ledgerd/internal/config"
	"github.com/sharedfund/ledgerd/internal/ledger"
	"github.com/sharedfund/ledgerd/internal/models"
)

func setupTestDB(t *testing.T) (*BadgerDB, func()) {
	t.Helper()

	dir := t.TempDir()
	logger := common.NewSilentLogger()

	cfg := &config.BadgerConfig{Path: dir}
	db, err := NewBadgerDB(logger, cfg)
	if err != nil {
		t.Fatalf("failed to create test DB: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return db, cleanup
}

func testEntry(id string, date time.Time, pv string) *models.Entry {
	return &models.Entry{
		ID:             id,
		EntryDate:      date,
		Type:           models.EntryTrade,
		PortfolioValue: decimal.RequireFromString(pv),
		CreatedAt:      date,
		Partners:       map[string]models.PartnerSnapshot{},
	}
}

func TestEntryStorage_AppendAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEntryStorage(db, common.NewSilentLogger())
	ctx := context.Background()

	entry := testEntry("e1", time.Now().UTC(), "1000")
	if err := store.Append(ctx, entry); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := store.Get(ctx, "e1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.PortfolioValue.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("portfolio value = %s, want 1000", got.PortfolioValue)
	}
}

func TestEntryStorage_AppendRejectsEmptyID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEntryStorage(db, common.NewSilentLogger())
	err := store.Append(context.Background(), testEntry("", time.Now(), "1"))
	if !errors.Is(err, ledger.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestEntryStorage_GetNotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEntryStorage(db, common.NewSilentLogger())
	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestEntryStorage_ListNewestFirst(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEntryStorage(db, common.NewSilentLogger())
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store.Append(ctx, testEntry("old", base, "100"))
	store.Append(ctx, testEntry("mid", base.AddDate(0, 0, 1), "200"))
	store.Append(ctx, testEntry("new", base.AddDate(0, 0, 2), "300"))

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].ID != "new" || entries[2].ID != "old" {
		t.Errorf("order = [%s %s %s], want newest first", entries[0].ID, entries[1].ID, entries[2].ID)
	}

	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List with limit failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 entries with limit, got %d", len(limited))
	}
}

func TestEntryStorage_ListSameDayUsesCreatedAt(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEntryStorage(db, common.NewSilentLogger())
	ctx := context.Background()

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	first := testEntry("first", day, "100")
	first.CreatedAt = day.Add(1 * time.Hour)
	second := testEntry("second", day, "200")
	second.CreatedAt = day.Add(2 * time.Hour)
	store.Append(ctx, first)
	store.Append(ctx, second)

	latest, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.ID != "second" {
		t.Errorf("latest = %s, want second", latest.ID)
	}
}

func TestEntryStorage_LatestEmpty(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEntryStorage(db, common.NewSilentLogger())
	latest, err := store.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest != nil {
		t.Errorf("latest = %+v, want nil on empty ledger", latest)
	}
}

func TestEntryStorage_Delete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEntryStorage(db, common.NewSilentLogger())
	ctx := context.Background()

	store.Append(ctx, testEntry("e1", time.Now().UTC(), "500"))
	if err := store.Delete(ctx, "e1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "e1"); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("err after delete = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "e1"); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestPartnerStorage_UpsertAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPartnerStorage(db, common.NewSilentLogger())
	ctx := context.Background()

	partner := &models.Partner{Name: "nick", DisplayName: "Nick", Active: true}
	if err := store.Upsert(ctx, partner); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.Get(ctx, "nick")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.DisplayName != "Nick" || !got.Active {
		t.Errorf("got %+v, want active Nick", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped on insert")
	}
}

func TestPartnerStorage_AdjustTotal(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPartnerStorage(db, common.NewSilentLogger())
	ctx := context.Background()

	store.Upsert(ctx, &models.Partner{Name: "joey", Active: true})

	if err := store.AdjustTotal(ctx, "joey", decimal.RequireFromString("500")); err != nil {
		t.Fatalf("AdjustTotal failed: %v", err)
	}
	if err := store.AdjustTotal(ctx, "joey", decimal.RequireFromString("-200")); err != nil {
		t.Fatalf("AdjustTotal failed: %v", err)
	}

	got, _ := store.Get(ctx, "joey")
	if !got.TotalInvested.Equal(decimal.RequireFromString("300")) {
		t.Errorf("total = %s, want 300", got.TotalInvested)
	}

	if err := store.AdjustTotal(ctx, "missing", decimal.NewFromInt(1)); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPartnerStorage_ListFiltersInactive(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPartnerStorage(db, common.NewSilentLogger())
	ctx := context.Background()

	store.Upsert(ctx, &models.Partner{Name: "nick", Active: true})
	store.Upsert(ctx, &models.Partner{Name: "joey", Active: true})
	store.Deactivate(ctx, "joey")

	active, err := store.List(ctx, false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(active) != 1 || active[0].Name != "nick" {
		t.Errorf("active = %+v, want only nick", active)
	}

	all, err := store.List(ctx, true)
	if err != nil {
		t.Fatalf("List all failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all = %+v, want both partners", all)
	}
	// Sorted by name.
	if all[0].Name != "joey" {
		t.Errorf("first = %s, want joey", all[0].Name)
	}
}

func TestPartnerStorage_PermanentDelete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPartnerStorage(db, common.NewSilentLogger())
	ctx := context.Background()

	store.Upsert(ctx, &models.Partner{Name: "nick", Active: true})
	if err := store.Delete(ctx, "nick"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "nick"); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
