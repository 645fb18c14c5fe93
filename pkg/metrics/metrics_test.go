package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-link-registry/pkg/core/domain"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{domain.ErrNotFound, "not_found"},
		{fmt.Errorf("wrapped: %w", domain.ErrCodeConflict), "conflict"},
		{domain.ErrInvalidTarget, "invalid"},
		{domain.ErrInvalidCounters, "invalid"},
		{domain.ErrInvalidCode, "invalid"},
		{domain.ErrExhaustedCodeSpace, "exhausted"},
		{fmt.Errorf("%w: insert: %w", domain.ErrStorage, errors.New("disk full")), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.err), "err=%v", tt.err)
	}
}

func TestObserveOperation(t *testing.T) {
	m := New()
	m.ObserveOperation("resolve", time.Now(), nil)
	m.ObserveOperation("resolve", time.Now(), nil)
	m.ObserveOperation("resolve", time.Now(), domain.ErrNotFound)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("resolve", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("resolve", "not_found")))
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.IncRequest("GET /{code}", http.StatusFound)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), `linkreg_http_requests_total{code="302",route="GET /{code}"} 1`))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOperation("get", time.Now(), nil)
	m.IncRequest("GET /healthz", http.StatusOK)
	assert.Nil(t, m.Registry())

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
