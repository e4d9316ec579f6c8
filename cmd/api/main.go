package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/NetDSS-25-26J-035/net-dss-backend/config"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/bootstrap"
	runsrepo "github.com/NetDSS-25-26J-035/net-dss-backend/internal/runs/repository"
	runssvc "github.com/NetDSS-25-26J-035/net-dss-backend/internal/runs/service"
)

const serviceName = "net-dss-backend"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := bootstrap.NewLogger(cfg.App.Environment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.URL()})
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	defer pool.Close()

	sqlDB, err := bootstrap.OpenSQL(cfg.Database)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("redis unavailable", zap.Error(err))
	}
	defer rdb.Close()

	router, err := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		Config:      cfg,
		DB:          pool,
		SQL:         sqlDB,
		Redis:       rdb,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("failed to build router", zap.Error(err))
	}

	janitor, err := runssvc.NewJanitor(runsrepo.NewHistory(sqlDB), cfg.Runs.Retention, cfg.Runs.JanitorSchedule, logger)
	if err != nil {
		logger.Fatal("failed to schedule janitor", zap.Error(err))
	}
	janitor.Start()
	defer janitor.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // sensitivity sweeps on large networks run long
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.App.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
}
