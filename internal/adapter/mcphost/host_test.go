package mcphost

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai2b/zena-toolserver/internal/config"
	"github.com/ai2b/zena-toolserver/internal/domain"
	"github.com/ai2b/zena-toolserver/internal/tenant"
	"github.com/ai2b/zena-toolserver/internal/tool"
)

func hostConfig() config.Config {
	return config.Config{
		CORSAllowOrigins:       "*",
		RateLimitPerMin:        600,
		ServerShutdownTimeoutS: 2,
	}
}

func hostToolSet(t *testing.T) *tool.Set {
	t.Helper()
	set := tool.NewSet()
	require.NoError(t, set.Add(tool.Tool{
		Name:        "free_slots",
		Description: "d",
		InputSchema: tool.Object(nil),
		Handler: func(domain.Context, json.RawMessage) domain.Result[any] {
			return domain.OK[any]("ok")
		},
	}))
	return set
}

func TestHost_Healthz(t *testing.T) {
	t.Parallel()

	h := New(hostConfig(), tenant.Spec{Name: "sofia", Port: 8101}, hostToolSet(t), Options{})

	rec := httptest.NewRecorder()
	h.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestHost_Readyz(t *testing.T) {
	t.Parallel()

	t.Run("all checks pass", func(t *testing.T) {
		t.Parallel()
		h := New(hostConfig(), tenant.Spec{Name: "sofia", Port: 8101}, hostToolSet(t), Options{
			Ready: map[string]Check{
				"db": func(context.Context) error { return nil },
			},
		})
		rec := httptest.NewRecorder()
		h.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("failing check yields 503", func(t *testing.T) {
		t.Parallel()
		h := New(hostConfig(), tenant.Spec{Name: "sofia", Port: 8101}, hostToolSet(t), Options{
			Ready: map[string]Check{
				"db": func(context.Context) error { return errors.New("pool exhausted") },
			},
		})
		rec := httptest.NewRecorder()
		h.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "db")
	})

	t.Run("no checks configured", func(t *testing.T) {
		t.Parallel()
		h := New(hostConfig(), tenant.Spec{Name: "sofia", Port: 8101}, hostToolSet(t), Options{})
		rec := httptest.NewRecorder()
		h.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHost_Metrics(t *testing.T) {
	t.Parallel()

	h := New(hostConfig(), tenant.Spec{Name: "sofia", Port: 8101}, hostToolSet(t), Options{})
	rec := httptest.NewRecorder()
	h.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHost_RequestIDRoundTrips(t *testing.T) {
	t.Parallel()

	h := New(hostConfig(), tenant.Spec{Name: "sofia", Port: 8101}, hostToolSet(t), Options{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	h.server.Handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
}

func TestHost_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	// Port 0 lets the kernel pick a free port.
	h := New(hostConfig(), tenant.Spec{Name: "sofia", Port: 0}, hostToolSet(t), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("host did not stop after cancellation")
	}
}

func TestHost_RunReportsListenerFailure(t *testing.T) {
	t.Parallel()

	h := New(hostConfig(), tenant.Spec{Name: "sofia", Port: -1}, hostToolSet(t), Options{})
	err := h.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sofia")
}
