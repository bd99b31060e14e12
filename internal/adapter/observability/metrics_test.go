package observability

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var initOnce sync.Once

func initMetricsOnce() {
	// MustRegister panics on double registration across tests.
	initOnce.Do(InitMetrics)
}

func TestInitMetricsAndHelpers(t *testing.T) {
	initMetricsOnce()

	ObserveTool("sofia", "free_slots", "ok", 0.2)
	ObserveTool("sofia", "free_slots", "crm_unavailable", 1.1)
	ObserveCRM("record_time", "2xx", 0.3)
	ObserveCRMRetry("record_time")
	ObserveAvailability(3, 1.4)
	VectorSearchesTotal.WithLabelValues("services", "ok").Inc()
	EmbeddingRequestsTotal.WithLabelValues("ok").Inc()
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	initMetricsOnce()

	h := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotPanics(t, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	})
}
