// Command server runs the multi-tenant Zena tool-server fleet: one MCP/SSE
// endpoint per tenant, sharing one CRM client, one Postgres pool and one
// Qdrant client, supervised fail-fast in a single process.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ai2b/zena-toolserver/internal/adapter/observability"
	"github.com/ai2b/zena-toolserver/internal/app"
	"github.com/ai2b/zena-toolserver/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	// In containers the environment is injected; dotenv is a dev nicety
	// and its absence is never an error.
	if os.Getenv("IS_DOCKER") != "1" {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		return 1
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Boot(ctx, cfg)
	if err != nil {
		slog.Error("boot failed", slog.Any("error", err))
		return 1
	}
	defer a.Close()

	slog.Info("fleet starting",
		slog.String("env", cfg.AppEnv),
		slog.Int("tenants", len(a.Runners)))

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fleet failed", slog.Any("error", err))
		return 1
	}
	slog.Info("fleet stopped")
	return 0
}
