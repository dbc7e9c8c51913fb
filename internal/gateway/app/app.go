// Package app assembles the gateway: configuration, storage, services and
// the HTTP server, with graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/idgate/internal/gateway/cache"
	httpapi "github.com/aussiebroadwan/idgate/internal/gateway/http"
	"github.com/aussiebroadwan/idgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/idgate/internal/gateway/service"
	"github.com/aussiebroadwan/idgate/internal/gateway/stepup"
	"github.com/aussiebroadwan/idgate/internal/gateway/store"
	"github.com/aussiebroadwan/idgate/internal/gateway/store/drivers/sqlite"
	"github.com/aussiebroadwan/idgate/pkg/jwtx"
	"github.com/aussiebroadwan/idgate/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the gateway with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	metrics *metrics.Metrics

	tokenService        *service.TokenService
	clientService       *service.ClientService
	userService         *service.UserService
	domainService       *service.DomainService
	scopeService        *service.ScopeService
	mfaService          *service.MFAService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg:     cfg,
		metrics: metrics.New(),
		logger: slogx.New(slogx.Config{
			Service: "idgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.AdminSecret == "" {
		return nil, errors.New("GATEWAY_ADMIN_SECRET must be set")
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	verifier, err := jwtx.NewHMAC([]byte(cfg.AdminSecret), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("init admin token verifier: %w", err)
	}

	app.initServices()
	app.initHTTP(verifier)

	return app, nil
}

func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("apply migrations: %w", err)
	}

	app.db = db
	return nil
}

func (app *Application) initServices() {
	cachedClients := cache.NewClients(app.db.Clients(), app.cfg.ClientCacheTTL)

	app.tokenService = &service.TokenService{
		Store:   app.db,
		Clients: cachedClients,
		Policy:  service.NewPolicyResolver(app.cfg.AccessTokenTTL, app.cfg.RefreshTokenTTL),
		Metrics: app.metrics,
	}
	app.clientService = &service.ClientService{Store: app.db}
	app.userService = &service.UserService{Store: app.db}
	app.domainService = &service.DomainService{Store: app.db}
	app.scopeService = &service.ScopeService{Store: app.db}
	app.mfaService = &service.MFAService{Users: app.userService, Issuer: app.cfg.Issuer}
	app.housekeepingService = service.NewHousekeepingService(
		app.db, app.logger, app.metrics, app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP(verifier jwtx.Verifier) {
	router := httpapi.NewRouter(verifier, BuildVersion, app.db, app.metrics, app.logger)
	router.TokenService = app.tokenService
	router.ClientService = app.clientService
	router.UserService = app.userService
	router.DomainService = app.domainService
	router.ScopeService = app.scopeService
	router.MFAService = app.mfaService
	router.StepUp = app.stepUpPipeline()
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: router,
	}
}

// stepUpPipeline builds the exemption pipeline. Order matters: structural
// exemptions run before behavioural ones.
func (app *Application) stepUpPipeline() *stepup.Pipeline {
	return stepup.NewPipeline(
		stepup.ClientAbsentFilter{},
		stepup.UserWithoutMFAFilter{},
		stepup.TrustedDeviceFilter{},
		stepup.RiskScoreFilter{Threshold: app.cfg.StepUpRiskThreshold},
	)
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("gateway starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	app.logger.Info("gateway stopped")
	return nil
}
