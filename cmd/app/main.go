package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quickdrop/cmd"
	httpin "quickdrop/internal/adapters/in/http"
	"quickdrop/internal/adapters/out/postgres"
	"quickdrop/internal/jobs"
	"quickdrop/internal/metrics"

	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	configs, err := cmd.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	if err = run(configs, logger); err != nil {
		log.Fatalf("quickdrop stopped: %v", err)
	}
}

func run(configs cmd.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := postgres.Open(ctx, configs.Connection().DSN())
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	if err = postgres.Migrate(gormDB); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New()
	if err = m.Register(registry); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	app := cmd.NewCompositionRoot(configs, gormDB, m, logger)
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			logger.Warn("close event publisher", "error", closeErr)
		}
	}()

	jobList, err := app.CreateJobs()
	if err != nil {
		return err
	}
	manager := jobs.NewJobManager(logger, jobList...)
	if err = manager.StartAll(); err != nil {
		return err
	}
	defer manager.StopAll()

	e, err := httpin.NewRouter(app.CreateHTTPServer(), registry)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "port", configs.HTTPPort)
		if err := e.Start(":" + configs.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
