package crm

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ai2b/zena-toolserver/internal/config"
)

// NewHTTPClient builds the one pooled client every CRM call in the process
// shares. Connection reuse across tenants is the point: per-request clients
// would renegotiate TLS on each tool call.
//
// Per-attempt deadlines come from the retry envelope, not Client.Timeout,
// so a retry always gets a fresh read budget.
func NewHTTPClient(cfg config.Config) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.CRMConnectTimeout(),
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxConnsPerHost:       cfg.CRMMaxConns,
		MaxIdleConns:          cfg.CRMMaxConns,
		MaxIdleConnsPerHost:   cfg.CRMMaxIdleConns,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.CRMConnectTimeout(),
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: otelhttp.NewTransport(transport,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return fmt.Sprintf("CRM %s %s", r.Method, r.URL.Path)
			}),
		),
	}
}
