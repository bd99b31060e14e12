package crm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai2b/zena-toolserver/internal/config"
)

func TestNewHTTPClient_FlowsThroughGateway(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"success":true,"records":[]}`))
	}))
	defer srv.Close()

	cfg := config.Config{
		CRMBaseURL:      srv.URL,
		CRMMaxConns:     200,
		CRMMaxIdleConns: 50,
		CRMConnectS:     3,
		CRMHTTPTimeoutS: 5,
		CRMHTTPRetries:  1,
		CRMRetryMinS:    0.001,
		CRMRetryMaxS:    0.005,
	}
	g := NewGateway(cfg, NewHTTPClient(cfg))

	records, err := g.ClientRecords(context.Background(), "u-1", 1)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNewHTTPClient_NoClientLevelTimeout(t *testing.T) {
	t.Parallel()

	hc := NewHTTPClient(config.Config{CRMMaxConns: 200, CRMMaxIdleConns: 50, CRMConnectS: 3})
	require.NotNil(t, hc.Transport, "transport must be the instrumented pool")
	assert.Zero(t, hc.Timeout, "attempt deadlines come from the envelope, not Client.Timeout")
}
