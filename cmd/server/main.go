package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/Simplici0/hpp/internal/config"
	"github.com/Simplici0/hpp/internal/costing"
	"github.com/Simplici0/hpp/internal/db"
	"github.com/Simplici0/hpp/internal/forecast"
	"github.com/Simplici0/hpp/internal/logger"
	"github.com/Simplici0/hpp/internal/migrations"
	"github.com/Simplici0/hpp/internal/scheduler"
	"github.com/Simplici0/hpp/internal/seed"
	"github.com/Simplici0/hpp/internal/store"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hpp server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	baseLogger, err := logger.New(cfg.LogLevel, cfg.IsDev())
	if err != nil {
		return err
	}
	defer func() { _ = baseLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(ctx, database); err != nil {
			return fmt.Errorf("run database migrations: %w", err)
		}
		if cfg.SeedDemo {
			stats, err := seed.Run(ctx, database, seed.Config{Now: time.Now().In(cfg.Location())})
			if err != nil {
				return fmt.Errorf("seed demo data: %w", err)
			}
			baseLogger.Info("demo data seeded", zap.Int("inserts", stats.Inserts))
		}
	}

	src := store.New(database)
	forecasts := forecast.NewService(
		src,
		forecast.NewEngine(cfg.ForecastSettings(), nil),
		logger.Named(baseLogger, "forecast"),
	)

	sched, err := scheduler.New(cfg.RestockCron, cfg.Location(), forecasts, logger.Named(baseLogger, "scheduler"))
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := &server{
		src:       src,
		costing:   costing.NewEngine(cfg.CostingDefaults(), nil),
		forecasts: forecasts,
		logger:    logger.Named(baseLogger, "http"),
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		baseLogger.Info("server starting",
			zap.String("addr", httpServer.Addr),
			zap.String("env", cfg.AppEnv),
			zap.String("timezone", cfg.Timezone),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		baseLogger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	return nil
}
