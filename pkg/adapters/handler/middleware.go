package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/go-link-registry/pkg/metrics"
)

type Middleware struct {
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewMiddleware(log *zap.Logger, m *metrics.Metrics) *Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &Middleware{log: log, metrics: m}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Observe logs every request and counts it by the matched route pattern.
func (m *Middleware) Observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		// ServeMux fills in the pattern while routing
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.metrics.IncRequest(route, rec.status)
		m.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("user_agent", r.UserAgent()),
		)
	})
}
