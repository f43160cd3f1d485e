package badger

import (
	"github.com/sharedfund/ledgerd/internal/common"
	"github.com/sharedfund/ledgerd/internal/config"
	"github.com/sharedfund/ledgerd/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger.
type Manager struct {
	db       *BadgerDB
	entries  interfaces.EntryStore
	partners interfaces.PartnerStore
	logger   *common.Logger
}

// NewManager creates a new Badger storage manager.
func NewManager(logger *common.Logger, cfg *config.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, cfg)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:       db,
		entries:  NewEntryStorage(db, logger),
		partners: NewPartnerStorage(db, logger),
		logger:   logger,
	}

	logger.Debug().Msg("Badger storage manager initialized")

	return manager, nil
}

// Entries returns the ledger entry store.
func (m *Manager) Entries() interfaces.EntryStore {
	return m.entries
}

// Partners returns the partner store.
func (m *Manager) Partners() interfaces.PartnerStore {
	return m.partners
}

// DB returns the underlying database connection.
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close closes the database connection.
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
