package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	router "github.com/wadjakorntonsri/go-link-registry/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-link-registry/pkg/adapters/repository"
	"github.com/wadjakorntonsri/go-link-registry/pkg/config"
	"github.com/wadjakorntonsri/go-link-registry/pkg/core/services"
	"github.com/wadjakorntonsri/go-link-registry/pkg/logger"
	"github.com/wadjakorntonsri/go-link-registry/pkg/metrics"
)

var mux http.Handler

func init() {
	cfg := config.Load()

	// Lambda filesystems are read-only; logs only go to stdout here.
	logg, err := logger.New(logger.Config{Service: "linkreg", Level: cfg.LogLevel})
	if err != nil {
		panic(err)
	}

	// On Vercel a local db.sqlite is ephemeral; point DATABASE_URL at Turso, Postgres or Redis.
	repo, err := repository.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logg.Error("failed to connect to database", zap.String("backend", repository.Backend(cfg.DatabaseURL)), zap.Error(err))
		panic(err)
	}

	m := metrics.New()
	service := services.NewLinkService(repo,
		services.WithLogger(logg),
		services.WithMetrics(m),
		services.WithMaxAttempts(cfg.CodeMaxAttempts),
		services.WithCodeLength(cfg.CodeLength),
	)
	mux = router.NewRouter(service, logg, m, cfg.BaseURL)
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
