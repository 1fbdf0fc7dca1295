// Command auditflow runs the audit event API server and its indexing workers
// in one process. Business logic lives in the internal packages; main only
// wires dependencies and owns the lifecycle.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/auditflow/auditflow/internal/api"
	"github.com/auditflow/auditflow/internal/config"
	"github.com/auditflow/auditflow/internal/db"
	"github.com/auditflow/auditflow/internal/db/migrations"
	"github.com/auditflow/auditflow/internal/dbpool"
	"github.com/auditflow/auditflow/internal/service"
	"github.com/auditflow/auditflow/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("loading configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Fatal("parsing LOG_LEVEL")
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("auditflow exited")
	}

	log.Info("auditflow stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return err
	}

	base := store.Base{Pool: pool, Log: log}
	queue := store.NewQueueStore(base)
	index := store.NewIndexStore(base)
	searches := store.NewSearchStore(base)
	tokens := store.NewTokenStore(pool)

	watchdog := service.NewWatchdog(cfg.StalenessThreshold)
	ingest := service.NewIngestService(queue, log)
	pump := service.NewPumpEngine(searches, index, log)

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:         log,
		Pool:        pool,
		Ingest:      ingest,
		Search:      searches,
		Pump:        pump,
		Watchdog:    watchdog,
		ScopeLookup: tokens,
		CORSOrigins: cfg.CORSOrigins,
		Version:     config.Version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":    cfg.Addr(),
			"version": config.Version,
		}).Info("starting http server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info("shutting down http server")

		return srv.Shutdown(shutdownCtx)
	})

	indexerCfg := service.IndexerConfig{
		BatchSize:    cfg.QueueBatchSize,
		PollInterval: cfg.QueuePollInterval,
		Visibility:   cfg.QueueVisibility,
		MaxAttempts:  cfg.QueueMaxAttempts,
	}
	for i := 0; i < cfg.IndexWorkers; i++ {
		worker := service.NewIndexer(queue, index, watchdog, log, indexerCfg)
		g.Go(func() error {
			return worker.Run(gctx)
		})
	}

	log.WithField("workers", cfg.IndexWorkers).Info("indexing workers started")

	return g.Wait()
}
