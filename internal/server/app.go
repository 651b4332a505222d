// Package server initializes and runs the application server: it opens the
// database, runs migrations, wires the services, seeds the admin account, and
// serves the HTTP API until shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/monkeyandriver/healthforge/internal/logging"
	"github.com/monkeyandriver/healthforge/internal/server/config"
	"github.com/monkeyandriver/healthforge/internal/server/evaluation"
	"github.com/monkeyandriver/healthforge/internal/server/httpapi"
	"github.com/monkeyandriver/healthforge/internal/server/repositories/repomanager"
	"github.com/monkeyandriver/healthforge/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	seeder      *services.Seeder
	server      *http.Server
}

func NewApp(cfg *config.Config, logger logging.Logger) (*App, error) {

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()

	evaluator, err := evaluation.NewClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	var archiver services.Archiver
	if cfg.S3BaseEndpoint != "" {
		archiver = services.NewArchiveService(cfg)
	}

	userService := services.NewUserService(db, m, cfg)
	diagnosticService := services.NewDiagnosticService(db, m, evaluator, archiver, logger)
	seeder := services.NewSeeder(userService, cfg, logger)

	api := httpapi.NewServer(userService, diagnosticService, []byte(cfg.SecretKey), logger)

	return &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		repomanager: m,
		seeder:      seeder,
		server:      &http.Server{Addr: cfg.EndpointAddr, Handler: api.Handler()},
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddr)

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	if err := app.seeder.EnsureAdmin(ctx); err != nil {
		return err
	}

	app.initSignalHandler(cancelFunc)

	errCh := make(chan error, 1)
	go func() {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	return app.db.Close()
}
