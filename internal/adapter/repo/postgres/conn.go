package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ai2b/zena-toolserver/internal/config"
)

// NewPool creates a pgx connection pool from the application config.
// Every connection sets statement_timeout so a wedged query cannot hold
// a tool invocation hostage.
func NewPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pc, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("op=postgres.new_pool: %w", err)
	}
	return pool, nil
}

func poolConfig(cfg config.Config) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("op=postgres.parse_config: %w", err)
	}
	pc.MinConns = int32(cfg.PGPoolMin)
	pc.MaxConns = int32(cfg.PGPoolMax)
	pc.ConnConfig.ConnectTimeout = cfg.PGConnectTimeout()
	pc.ConnConfig.RuntimeParams["statement_timeout"] = strconv.Itoa(cfg.PGStatementTimeout)
	pc.ConnConfig.Tracer = otelpgx.NewTracer()
	return pc, nil
}

// Probe runs a trivial query to verify the database is reachable. The
// supervisor calls it at boot and refuses to serve traffic on failure.
func Probe(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.PGQueryTimeout())
	defer cancel()
	var one int
	if err := pool.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("op=postgres.probe: %w", err)
	}
	return nil
}
