package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/go-link-registry/pkg/metrics"
	"github.com/wadjakorntonsri/go-link-registry/pkg/ports"
)

// Operational routes live under /-/; "-" is outside the code alphabet, so no
// code can be shadowed by them.
const (
	HealthPath  = "/-/healthz"
	MetricsPath = "/-/metrics"
)

// NewRouter creates and configures the main application router.
// baseURL prefixes the short_url of returned links; empty omits it.
func NewRouter(service ports.LinkService, log *zap.Logger, m *metrics.Metrics, baseURL string) http.Handler {
	h := NewHTTPHandler(service, log, baseURL)
	mw := NewMiddleware(log, m)

	mux := http.NewServeMux()

	mux.HandleFunc("GET "+HealthPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	})
	mux.Handle("GET "+MetricsPath, m.Handler())

	mux.HandleFunc("POST /api/v1/links", h.Create)
	mux.HandleFunc("GET /api/v1/links", h.List)
	mux.HandleFunc("GET /api/v1/links/{code}", h.Get)
	mux.HandleFunc("DELETE /api/v1/links/{code}", h.Delete)

	mux.HandleFunc("GET /{code}", h.Redirect)

	return mw.Observe(mux)
}
