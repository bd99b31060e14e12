package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/ai2b/zena-toolserver/internal/adapter/ai"
	"github.com/ai2b/zena-toolserver/internal/adapter/crm"
	"github.com/ai2b/zena-toolserver/internal/adapter/mcphost"
	"github.com/ai2b/zena-toolserver/internal/adapter/repo/postgres"
	qdrantcli "github.com/ai2b/zena-toolserver/internal/adapter/vector/qdrant"
	"github.com/ai2b/zena-toolserver/internal/config"
	"github.com/ai2b/zena-toolserver/internal/tenant"
)

// Runner is one long-lived child task of the supervisor: a tenant server.
type Runner interface {
	Name() string
	// Run serves until ctx is cancelled. Returning nil before cancellation
	// counts as a crash: tenant servers have no normal self-termination.
	Run(ctx context.Context) error
}

// App owns the shared infrastructure and the tenant servers built on it.
type App struct {
	Cfg     config.Config
	Pool    *pgxpool.Pool
	Runners []Runner
}

// Boot initializes shared resources in dependency order and builds one
// server per registered tenant. Every failure here is fatal: the caller
// logs it and exits non-zero.
func Boot(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("op=app.Boot: %w", err)
	}
	if err := postgres.Probe(ctx, pool, cfg); err != nil {
		pool.Close()
		return nil, fmt.Errorf("op=app.Boot: postgres liveness: %w", err)
	}

	qcli := qdrantcli.New(cfg)
	if err := qcli.Ping(ctx); err != nil {
		// Search degrades, booking still works; don't hold boot hostage.
		slog.Warn("qdrant unreachable at boot", slog.Any("error", err))
	}

	embedder, err := ai.New(cfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("op=app.Boot: %w", err)
	}

	gateway := crm.NewGateway(cfg, crm.NewHTTPClient(cfg))
	inf := Infra{
		Cfg:       cfg,
		CRM:       gateway,
		Catalogue: postgres.NewCatalogueRepo(pool, cfg.PGQueryTimeout()),
		Articles:  postgres.NewArticleRepo(pool, cfg.PGQueryTimeout()),
		Events:    postgres.NewToolEventRepo(pool, cfg.PGQueryTimeout()),
		Search:    qdrantcli.NewSearcher(embedder, qcli),
	}
	ready := ReadinessChecks(pool, qcli)

	app := &App{Cfg: cfg, Pool: pool}
	for _, name := range tenant.Names {
		spec, err := tenant.Resolve(name)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("op=app.Boot: %w", err)
		}
		build, err := BuilderFor(name)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("op=app.Boot: %w", err)
		}
		tools, err := build(ctx, spec, inf)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("op=app.Boot: tenant %s: %w", name, err)
		}
		host := mcphost.New(cfg, spec, tools, mcphost.Options{
			Events: inf.Events,
			Ready:  ready,
		})
		app.Runners = append(app.Runners, host)
		slog.Info("tenant assembled",
			slog.String("tenant", name),
			slog.Int("port", spec.Port),
			slog.Int("tools", tools.Len()),
			slog.Any("channels", spec.Channels))
	}
	return app, nil
}

// Run supervises the tenant servers fail-fast: the first child that fails
// (or stops on its own) cancels the rest. A cancelled ctx is the graceful
// path and returns nil once every child has drained.
func (a *App) Run(ctx context.Context) error {
	return Supervise(ctx, a.Runners)
}

// Close tears shared resources down. Safe to call once on every exit path.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// Supervise implements the fail-fast policy over a set of runners.
func Supervise(ctx context.Context, runners []Runner) error {
	if len(runners) == 0 {
		return fmt.Errorf("op=app.Supervise: no runners")
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range runners {
		g.Go(func() error {
			err := r.Run(ctx)
			if err != nil {
				slog.Error("tenant server failed",
					slog.String("tenant", r.Name()),
					slog.Any("error", err))
				return fmt.Errorf("op=app.Supervise: tenant %s: %w", r.Name(), err)
			}
			if ctx.Err() == nil {
				// Clean return without cancellation is still a crash.
				return fmt.Errorf("op=app.Supervise: tenant %s stopped unexpectedly", r.Name())
			}
			return nil
		})
	}
	return g.Wait()
}
