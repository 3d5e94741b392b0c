package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/genvest-portal/internal/client"
	"github.com/bobmcallan/genvest-portal/internal/common"
	"github.com/bobmcallan/genvest-portal/internal/config"
	"github.com/bobmcallan/genvest-portal/internal/controller"
	"github.com/bobmcallan/genvest-portal/internal/handlers"
	"github.com/bobmcallan/genvest-portal/internal/mcp"
	"github.com/bobmcallan/genvest-portal/internal/session"
)

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Client     *client.GenVestClient
	Sessions   session.Store
	Sweeper    *session.Sweeper
	Controller *controller.Controller

	// HTTP handlers
	PageHandler         *handlers.PageHandler
	ReportHandler       *handlers.ReportHandler
	HealthHandler       *handlers.HealthHandler
	VersionHandler      *handlers.VersionHandler
	ServerHealthHandler *handlers.ServerHealthHandler
	MCPHandler          *mcp.Handler
}

// New initializes the application with all dependencies.
func New(ctx context.Context, cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	env := strings.ToLower(strings.TrimSpace(cfg.Environment))
	if cfg.IsDevMode() {
		logger.Warn().Msg("RUNNING IN DEV MODE")
	} else if env != "prod" && env != "" {
		logger.Warn().
			Str("environment", cfg.Environment).
			Msg("unrecognized environment value, defaulting to prod behavior")
	}

	store, err := session.New(ctx, cfg.Session, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}
	a.Sessions = store

	a.Sweeper, err = session.NewSweeper(store, cfg.Session.SweepSchedule, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	a.Client = client.NewGenVestClient(cfg.API.URL, cfg.API.GetTimeout())
	a.Controller = controller.New(a.Client, store, logger, cfg.API.GetTimeout(), cfg.API.GetSearchTimeout())

	a.initHandlers()

	logger.Info().Str("api_url", a.Client.BaseURL()).Str("session_backend", cfg.Session.Backend).Msg("application initialization complete")

	return a, nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.PageHandler = handlers.NewPageHandler(a.Logger, a.Controller, a.Config.IsDevMode())
	a.ReportHandler = handlers.NewReportHandler(a.Logger, a.Controller)
	a.HealthHandler = handlers.NewHealthHandler(a.Logger)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.ServerHealthHandler = handlers.NewServerHealthHandler(a.Logger, a.Client)

	if a.Config.MCP.Enabled {
		a.MCPHandler = mcp.NewHandler(a.Client, a.Logger, a.Config.API.GetTimeout())
	}

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Start begins background maintenance.
func (a *App) Start() {
	a.Sweeper.Start()
}

// Close waits for running report generations and releases resources.
func (a *App) Close() error {
	a.Sweeper.Stop()
	a.Controller.Wait()
	return a.Sessions.Close()
}
