package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/go-link-registry/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-link-registry/pkg/adapters/repository"
	"github.com/wadjakorntonsri/go-link-registry/pkg/config"
	"github.com/wadjakorntonsri/go-link-registry/pkg/core/services"
	"github.com/wadjakorntonsri/go-link-registry/pkg/logger"
	"github.com/wadjakorntonsri/go-link-registry/pkg/metrics"
)

func main() {
	cfg := config.Load()

	logg, err := logger.New(logger.Config{Service: "linkreg", Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Repository
	repo, err := repository.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logg.Fatal("failed to connect to database", zap.String("backend", repository.Backend(cfg.DatabaseURL)), zap.Error(err))
	}
	defer repo.Close()

	// Initialize Service
	m := metrics.New()
	service := services.NewLinkService(repo,
		services.WithLogger(logg),
		services.WithMetrics(m),
		services.WithMaxAttempts(cfg.CodeMaxAttempts),
		services.WithCodeLength(cfg.CodeLength),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.NewRouter(service, logg, m, cfg.BaseURL),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logg.Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.AppEnv),
			zap.String("backend", repository.Backend(cfg.DatabaseURL)),
			zap.String("base_url", cfg.BaseURL),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logg.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error("graceful shutdown failed", zap.Error(err))
	}
	logg.Info("server stopped")
}
