package app

import (
	"context"
	"net/http"

	"github.com/sharedfund/ledgerd/internal/common"
	"github.com/sharedfund/ledgerd/internal/config"
	"github.com/sharedfund/ledgerd/internal/handlers"
	"github.com/sharedfund/ledgerd/internal/interfaces"
	"github.com/sharedfund/ledgerd/internal/mcp"
	"github.com/sharedfund/ledgerd/internal/service"
	"github.com/sharedfund/ledgerd/internal/storage"
)

// App holds all application components and dependencies.
type App struct {
	Config  *config.Config
	Logger  *common.Logger
	Storage interfaces.StorageManager
	Service *service.Service

	// HTTP handlers
	PageHandler          *handlers.PageHandler
	StaticHandler        http.Handler
	EntriesHandler       *handlers.EntriesHandler
	EntryItemHandler     *handlers.EntryItemHandler
	MarksHandler         *handlers.MarksHandler
	CapitalHandler       *handlers.CapitalHandler
	OverrideHandler      *handlers.OverrideHandler
	AdminOverrideHandler *handlers.AdminOverrideHandler
	PortfolioHandler     *handlers.PortfolioHandler
	PartnersHandler      *handlers.PartnersHandler
	PartnerItemHandler   *handlers.PartnerItemHandler
	OverviewHandler      *handlers.OverviewHandler
	HealthHandler        *handlers.HealthHandler
	VersionHandler       *handlers.VersionHandler
	MCPHandler           *mcp.Handler
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		return nil, err
	}
	a.Storage = storageManager

	a.Service = service.New(storageManager, cfg.Fund, logger)
	if err := a.Service.EnsurePartners(context.Background()); err != nil {
		storageManager.Close()
		return nil, err
	}

	a.initHandlers()

	logger.Info().Msg("application initialization complete")

	return a, nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.PageHandler = handlers.NewPageHandler(a.Logger, a.Service, a.Config.Fund.Name)
	a.StaticHandler = handlers.StaticHandler()
	a.EntriesHandler = handlers.NewEntriesHandler(a.Logger, a.Service)
	a.EntryItemHandler = handlers.NewEntryItemHandler(a.Logger, a.Service)
	a.MarksHandler = handlers.NewMarksHandler(a.Logger, a.Service)
	a.CapitalHandler = handlers.NewCapitalHandler(a.Logger, a.Service)
	a.OverrideHandler = handlers.NewOverrideHandler(a.Logger, a.Service)
	a.AdminOverrideHandler = handlers.NewAdminOverrideHandler(a.Logger, a.Service)
	a.PortfolioHandler = handlers.NewPortfolioHandler(a.Logger, a.Service)
	a.PartnersHandler = handlers.NewPartnersHandler(a.Logger, a.Service)
	a.PartnerItemHandler = handlers.NewPartnerItemHandler(a.Logger, a.Service)
	a.OverviewHandler = handlers.NewOverviewHandler(a.Logger, a.Service)
	a.HealthHandler = handlers.NewHealthHandler(a.Logger)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.MCPHandler = mcp.NewHandler(a.Service, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close closes all application resources.
func (a *App) Close() error {
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
