package app

import (
	"context"
	"fmt"

	"github.com/ai2b/zena-toolserver/internal/adapter/mcphost"
)

// Pinger is the minimal interface of a backend capable of a liveness ping.
type Pinger interface{ Ping(ctx context.Context) error }

// ReadinessChecks builds the probe set every tenant host serves on
// /readyz. Postgres gates readiness; Qdrant does too because the search
// tools are part of the advertised tool set.
func ReadinessChecks(db, qdrant Pinger) map[string]mcphost.Check {
	checks := make(map[string]mcphost.Check, 2)
	checks["db"] = func(ctx context.Context) error {
		if db == nil {
			return fmt.Errorf("db not configured")
		}
		return db.Ping(ctx)
	}
	checks["qdrant"] = func(ctx context.Context) error {
		if qdrant == nil {
			return fmt.Errorf("qdrant not configured")
		}
		return qdrant.Ping(ctx)
	}
	return checks
}
