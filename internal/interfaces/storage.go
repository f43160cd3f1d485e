package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sharedfund/ledgerd/internal/models"
)

// StorageManager provides access to domain-specific storage interfaces.
// Implementations can be swapped (BadgerDB now, centralised DB later).
type StorageManager interface {
	Entries() EntryStore
	Partners() PartnerStore
	DB() interface{}
	Close() error
}

// EntryStore persists immutable ledger entries. Entries are never updated in
// place; corrections are modeled as delete followed by insert.
type EntryStore interface {
	Append(ctx context.Context, entry *models.Entry) error
	Get(ctx context.Context, id string) (*models.Entry, error)
	// List returns entries newest-first, at most limit rows (0 means all).
	List(ctx context.Context, limit int) ([]models.Entry, error)
	// Latest returns the most recent entry, or nil on an empty ledger.
	Latest(ctx context.Context) (*models.Entry, error)
	Delete(ctx context.Context, id string) error
}

// PartnerStore persists partners and their running capital totals.
type PartnerStore interface {
	Upsert(ctx context.Context, partner *models.Partner) error
	Get(ctx context.Context, name string) (*models.Partner, error)
	List(ctx context.Context, includeInactive bool) ([]models.Partner, error)
	// AdjustTotal adds the signed delta to the partner's running total
	// invested.
	AdjustTotal(ctx context.Context, name string, delta decimal.Decimal) error
	// Deactivate soft-deletes a partner; Delete removes it permanently.
	Deactivate(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) error
}
