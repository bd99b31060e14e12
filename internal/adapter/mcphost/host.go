// Package mcphost binds one tenant's tool set onto an MCP server served
// over SSE. One Host owns one http.Server on the tenant's port; all hosts
// in the process share the infrastructure behind the tool handlers.
package mcphost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ai2b/zena-toolserver/internal/adapter/observability"
	"github.com/ai2b/zena-toolserver/internal/config"
	"github.com/ai2b/zena-toolserver/internal/domain"
	"github.com/ai2b/zena-toolserver/internal/tenant"
	"github.com/ai2b/zena-toolserver/internal/tool"
)

// Host is one tenant's MCP/SSE endpoint.
type Host struct {
	tenant   tenant.Spec
	tools    *tool.Set
	events   domain.ToolEventRepository
	server   *http.Server
	shutdown time.Duration
}

// Options carries the optional host collaborators.
type Options struct {
	// Events records tool invocations; nil disables audit.
	Events domain.ToolEventRepository
	// Ready probes are checked by GET /readyz.
	Ready map[string]Check
}

// New assembles a Host: MCP server with the namespaced tools, SSE handler,
// health/metrics endpoints and the shared middleware stack. Pure
// composition; nothing listens until Run.
func New(cfg config.Config, t tenant.Spec, tools *tool.Set, opts Options) *Host {
	h := &Host{
		tenant:   t,
		tools:    tools,
		events:   opts.Events,
		shutdown: cfg.ServerShutdownTimeout(),
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    Namespace,
		Title:   "Zena — " + t.Name,
		Version: "1.0.0",
	}, nil)
	for _, tl := range tools.Tools() {
		h.bindTool(mcpServer, tl)
	}
	sse := mcp.NewSSEHandler(func(*http.Request) *mcp.Server { return mcpServer }, nil)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(Recoverer())
	r.Use(RequestID(t.Name))
	r.Use(AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(cfg.RateLimitPerMin, time.Minute))

	// The SSE handler serves both the event stream and its message
	// endpoint under the same path prefix.
	r.Handle("/sse", sse)
	r.Handle("/sse/*", sse)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", readyzHandler(opts.Ready))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	h.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.Port),
		Handler:           SecurityHeaders(r),
		ReadHeaderTimeout: 10 * time.Second,
		// No ReadTimeout/WriteTimeout: SSE sessions are long-lived.
	}
	return h
}

// Name identifies the host in supervisor logs.
func (h *Host) Name() string { return h.tenant.Name }

// Addr is the listen address (for logs and tests).
func (h *Host) Addr() string { return h.server.Addr }

// Run serves until ctx is cancelled or the listener fails. A cancelled ctx
// drains in-flight requests within the shutdown timeout and returns nil.
func (h *Host) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("tenant server starting",
			slog.String("tenant", h.tenant.Name),
			slog.String("addr", h.server.Addr),
			slog.Int("tools", h.tools.Len()))
		errCh <- h.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdown)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			_ = h.server.Close()
		}
		<-errCh
		slog.Info("tenant server stopped", slog.String("tenant", h.tenant.Name))
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("op=mcphost.Run: tenant %s: %w", h.tenant.Name, err)
		}
		return nil
	}
}

// readyzHandler runs every probe; the first failure makes the endpoint 503.
func readyzHandler(checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check(ctx); err != nil {
				slog.Warn("readiness check failed", slog.String("check", name), slog.Any("error", err))
				http.Error(w, name+" not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
