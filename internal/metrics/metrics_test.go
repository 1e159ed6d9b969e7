package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveIngestion("ready", 3, time.Second)
		m.ObserveRetrieval(2)
		m.ObserveQuestion("answered")
		m.ObserveCompletion("ok", time.Second)
		m.ObserveHTTP(http.MethodGet, "/health", http.StatusOK, time.Millisecond)
	})
}

func TestObserveIngestion(t *testing.T) {
	m := New()
	m.ObserveIngestion("ready", 3, time.Second)
	m.ObserveIngestion("extraction", 0, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestionsTotal.WithLabelValues("ready")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestionsTotal.WithLabelValues("extraction")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PassagesIndexedTotal))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.ObserveQuestion("filename")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `docqa_questions_total{outcome="filename"} 1`)
}

func TestNewIsolatedRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
