package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"coffeereg/internal/app"
	comphandler "coffeereg/internal/competition/handler"
	payhandler "coffeereg/internal/payment/handler"
	"coffeereg/internal/payment/workers/reconcile"
	"coffeereg/internal/platform/config"
	"coffeereg/internal/platform/health"
	"coffeereg/internal/platform/logger"
	reghandler "coffeereg/internal/registration/handler"
	httptransport "coffeereg/internal/transport/http"
	"coffeereg/pkg/platform/middleware/request"
)

const redisStatsInterval = 15 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing coffeereg",
		"addr", cfg.Server.Addr,
		"environment", cfg.Environment,
		"mongo", cfg.Mongo.URI != "",
		"redis", cfg.Redis.URL != "",
		"kafka", cfg.Kafka.Brokers != "",
	)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			log.Error("failed to close backends", "error", err)
		}
	}()

	if cfg.Mongo.URI != "" && cfg.Registration.CatalogFile != "" {
		if _, err := a.SeedCatalog(ctx, cfg.Registration.CatalogFile); err != nil {
			return err
		}
	}

	healthHandler := health.New(cfg.Environment)
	a.RegisterHealthChecks(healthHandler)

	router := httptransport.NewRouter(httptransport.Modules{
		Health:       healthHandler,
		Competitions: comphandler.New(a.Competitions, log),
		Registrations: reghandler.New(a.Registrations, log,
			reghandler.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
			reghandler.WithStatusUpdater(a.Payments),
		),
		Payments: payhandler.New(a.Payments, log),
	}, httptransport.Options{
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		AdminTokenHash: cfg.Admin.TokenHash,
		Metrics:        request.NewMetrics(),
		MetricsHandler: promhttp.Handler(),
	}, log)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Reconcile.Enabled {
		worker, err := reconcile.New(a.Payments,
			reconcile.WithInterval(cfg.Reconcile.Interval),
			reconcile.WithOlderThan(cfg.Reconcile.OlderThan),
			reconcile.WithBatchSize(cfg.Reconcile.BatchSize),
			reconcile.WithLogger(log),
		)
		if err != nil {
			return err
		}
		g.Go(func() error {
			if err := worker.Start(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if a.Redis != nil {
		g.Go(func() error {
			return a.Redis.RunPoolStats(gctx, redisStatsInterval)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
