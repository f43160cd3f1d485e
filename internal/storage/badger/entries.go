package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/timshannon/badgerhold/v4"

	"github.com/sharedfund/ledgerd/internal/common"
	"github.com/sharedfund/ledgerd/internal/ledger"
	"github.com/sharedfund/ledgerd/internal/models"
)

// EntryStorage implements interfaces.EntryStore using BadgerDB.
type EntryStorage struct {
	db     *BadgerDB
	logger *common.Logger
}

// NewEntryStorage creates entry storage backed by BadgerDB.
func NewEntryStorage(db *BadgerDB, logger *common.Logger) *EntryStorage {
	return &EntryStorage{
		db:     db,
		logger: logger,
	}
}

// Append inserts a new ledger entry. The entry's ID must be set and unique.
func (s *EntryStorage) Append(_ context.Context, entry *models.Entry) error {
	if entry.ID == "" {
		return fmt.Errorf("%w: entry id is empty", ledger.ErrInvalidInput)
	}
	if err := s.db.Store().Insert(entry.ID, entry); err != nil {
		if err == badgerhold.ErrKeyExists {
			return fmt.Errorf("entry %s already exists: %w", entry.ID, err)
		}
		return fmt.Errorf("failed to append entry %s: %w", entry.ID, err)
	}
	return nil
}

// Get retrieves an entry by ID.
func (s *EntryStorage) Get(_ context.Context, id string) (*models.Entry, error) {
	var entry models.Entry
	if err := s.db.Store().Get(id, &entry); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: entry %s", ledger.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get entry %s: %w", id, err)
	}
	return &entry, nil
}

// List returns entries newest-first. The data set is small (two people's
// ledger), so rows are sorted in memory rather than via index queries.
func (s *EntryStorage) List(_ context.Context, limit int) ([]models.Entry, error) {
	var entries []models.Entry
	if err := s.db.Store().Find(&entries, nil); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	sortEntriesDesc(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Latest returns the most recent entry, nil on an empty ledger.
func (s *EntryStorage) Latest(ctx context.Context) (*models.Entry, error) {
	entries, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// Delete removes an entry row. Reversing its capital effect is the caller's
// responsibility and must happen first.
func (s *EntryStorage) Delete(_ context.Context, id string) error {
	if err := s.db.Store().Delete(id, models.Entry{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("%w: entry %s", ledger.ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete entry %s: %w", id, err)
	}
	return nil
}

// sortEntriesDesc orders by entry date, then creation time, then ID so
// same-day rows have a stable order.
func sortEntriesDesc(entries []models.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].EntryDate.Equal(entries[j].EntryDate) {
			return entries[i].EntryDate.After(entries[j].EntryDate)
		}
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID > entries[j].ID
	})
}
