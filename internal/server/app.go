// Package server wires the configured components together and runs the HTTP
// API, the gRPC health endpoint and the sweep scheduler until shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/metrics"
	"github.com/dmitrijs2005/gophvault/internal/objectstore"
	"github.com/dmitrijs2005/gophvault/internal/objectstore/s3"
	"github.com/dmitrijs2005/gophvault/internal/server/blobs"
	"github.com/dmitrijs2005/gophvault/internal/server/config"
	"github.com/dmitrijs2005/gophvault/internal/server/httpapi"
	"github.com/dmitrijs2005/gophvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophvault/internal/server/retention"
	"github.com/dmitrijs2005/gophvault/internal/server/services"
	"github.com/dmitrijs2005/gophvault/internal/server/shared/db"
	"github.com/dmitrijs2005/gophvault/internal/server/sweeper"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/gophvault/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	sweeper *sweeper.Sweeper
	trigger *sweeper.CronTrigger
	http    *httpapi.Server
	grpc    *gs.GRPCServer
}

// NewApp builds every component from c. The database pool is opened and
// migrated here; Close releases it.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogFormat, os.Stdout)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	policies, err := retention.Load(c.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("policy error: %w", err)
	}

	conn, err := db.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, policies, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, policies retention.Set, conn *sql.DB) (*App, error) {
	m, err := repomanager.NewRepositoryManager(c.DatabaseDriver)
	if err != nil {
		return nil, err
	}
	if err := m.RunMigrations(ctx, conn); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}
	repos := repomanager.Bind(m, conn)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	set := metrics.NewSet(reg)

	s3store, err := s3.New(ctx, s3.Config{
		Bucket:          c.S3Bucket,
		Region:          c.S3Region,
		Endpoint:        c.S3BaseEndpoint,
		AccessKeyID:     c.S3RootUser,
		SecretAccessKey: c.S3RootPassword,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}
	store := objectstore.NewInstrumentedStore(s3store, set.ObjectStore)
	coordinator := blobs.NewCoordinator(store, logger, set.Blobs)

	sw := sweeper.New(sweeper.Config{
		Repos:     repos,
		Policies:  policies,
		Blobs:     coordinator,
		Sampler:   sweeper.NewRateSampler(c.SweepSampleRate),
		Metrics:   set.Sweeper,
		Logger:    logger,
		BatchSize: c.SweepBatchSize,
	})

	registry, err := services.NewRegistry(services.Options{
		Repos:    repos,
		Policies: policies,
		Store:    store,
		Blobs:    coordinator,
		Sweeper:  sw,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	httpServer := httpapi.NewServer(httpapi.ServerConfig{
		ListenAddr: c.HTTPAddr,
		Auth:       httpapi.AuthConfig{Mode: c.AuthMode, SecretKey: []byte(c.SecretKey)},
	}, registry, reg, logger)

	app := &App{
		config:  c,
		logger:  logger,
		db:      conn,
		sweeper: sw,
		trigger: sweeper.NewCronTrigger(sw, c.SweepSchedule, logger),
		http:    httpServer,
	}
	// An empty address disables the health endpoint.
	if c.GRPCAddr != "" {
		app.grpc = gs.NewGRPCServer(c.GRPCAddr, logger)
	}
	return app, nil
}

// SweepOnce sweeps every collection and waits for the result.
func (app *App) SweepOnce(ctx context.Context) ([]sweeper.Report, error) {
	return app.sweeper.SweepAll(ctx)
}

// Close waits for background sweeps and closes the database pool.
func (app *App) Close() error {
	app.sweeper.Wait()
	return app.db.Close()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpc.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Start(); err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a signal arrives, then shuts down in
// order: servers, scheduler, pending sweeps, database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.trigger.Start(ctx); err != nil {
		return errors.Join(err, app.Close())
	}

	var wg sync.WaitGroup

	if app.grpc != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	<-ctx.Done()
	app.logger.Info(context.Background(), "Shutting down...")

	if err := app.http.Shutdown(); err != nil {
		app.logger.Error(context.Background(), "http shutdown failed", "error", err)
	}
	wg.Wait()
	app.trigger.Stop()

	return app.Close()
}
