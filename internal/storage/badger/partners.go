package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/timshannon/badgerhold/v4"

	"github.com/sharedfund/ledgerd/internal/common"
	"github.com/sharedfund/ledgerd/internal/ledger"
	"github.com/sharedfund/ledgerd/internal/models"
)

// PartnerStorage implements interfaces.PartnerStore using BadgerDB.
type PartnerStorage struct {
	db     *BadgerDB
	logger *common.Logger
}

// NewPartnerStorage creates partner storage backed by BadgerDB.
func NewPartnerStorage(db *BadgerDB, logger *common.Logger) *PartnerStorage {
	return &PartnerStorage{
		db:     db,
		logger: logger,
	}
}

// Upsert stores a partner, inserting or replacing by name.
func (s *PartnerStorage) Upsert(_ context.Context, partner *models.Partner) error {
	if partner.Name == "" {
		return fmt.Errorf("%w: partner name is empty", ledger.ErrInvalidInput)
	}
	partner.UpdatedAt = time.Now().UTC()
	if partner.CreatedAt.IsZero() {
		partner.CreatedAt = partner.UpdatedAt
	}
	if err := s.db.Store().Upsert(partner.Name, partner); err != nil {
		return fmt.Errorf("failed to upsert partner %s: %w", partner.Name, err)
	}
	return nil
}

// Get retrieves a partner by name.
func (s *PartnerStorage) Get(_ context.Context, name string) (*models.Partner, error) {
	var partner models.Partner
	if err := s.db.Store().Get(name, &partner); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: partner %s", ledger.ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to get partner %s: %w", name, err)
	}
	return &partner, nil
}

// List returns partners sorted by name, active only unless includeInactive.
func (s *PartnerStorage) List(_ context.Context, includeInactive bool) ([]models.Partner, error) {
	var partners []models.Partner
	if err := s.db.Store().Find(&partners, nil); err != nil {
		return nil, fmt.Errorf("failed to list partners: %w", err)
	}
	if !includeInactive {
		active := partners[:0]
		for _, p := range partners {
			if p.Active {
				active = append(active, p)
			}
		}
		partners = active
	}
	sort.Slice(partners, func(i, j int) bool {
		return partners[i].Name < partners[j].Name
	})
	return partners, nil
}

// AdjustTotal adds the signed delta to the partner's running total invested.
func (s *PartnerStorage) AdjustTotal(ctx context.Context, name string, delta decimal.Decimal) error {
	partner, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	partner.TotalInvested = partner.TotalInvested.Add(delta)
	if err := s.Upsert(ctx, partner); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Debug().
			Str("partner", name).
			Str("delta", delta.String()).
			Str("total", partner.TotalInvested.String()).
			Msg("adjusted partner capital total")
	}
	return nil
}

// Deactivate soft-deletes a partner; its history and total survive.
func (s *PartnerStorage) Deactivate(ctx context.Context, name string) error {
	partner, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	partner.Active = false
	return s.Upsert(ctx, partner)
}

// Delete removes a partner permanently.
func (s *PartnerStorage) Delete(_ context.Context, name string) error {
	if err := s.db.Store().Delete(name, models.Partner{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("%w: partner %s", ledger.ErrNotFound, name)
		}
		return fmt.Errorf("failed to delete partner %s: %w", name, err)
	}
	return nil
}
