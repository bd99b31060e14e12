// Package postgres implements the reference-data repositories backed by
// PostgreSQL: per-branch catalogue vocabularies, cross-branch article
// mappings, and the tool invocation audit trail.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ai2b/zena-toolserver/internal/domain"
)

// PgxPool is the minimal subset of pgxpool used by the repos, kept small
// for easy testing.
type PgxPool interface {
	Exec(ctx domain.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx domain.Context, sql string, args ...any) pgx.Row
}

// defaultQueryTimeout applies when a repo is built with a zero timeout.
const defaultQueryTimeout = 10 * time.Second

// queryContext bounds one query client-side. The session statement_timeout
// only covers server-side execution, not a stalled connection read.
func queryContext(ctx domain.Context, timeout time.Duration) (domain.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// CatalogueRepo reads per-branch filter vocabularies (indications,
// contraindications, body parts) that tool descriptions surface as enums.
type CatalogueRepo struct {
	DB      PgxPool
	Timeout time.Duration
}

func NewCatalogueRepo(db PgxPool, queryTimeout time.Duration) *CatalogueRepo {
	return &CatalogueRepo{DB: db, Timeout: queryTimeout}
}

// Keys returns the catalogue vocabularies for one branch. A branch with
// no row gets empty vocabularies; that only makes tool descriptions less
// specific, so it is logged and not treated as an error.
func (r *CatalogueRepo) Keys(ctx domain.Context, channelID int) (domain.CatalogueKeys, error) {
	tracer := otel.Tracer("repo.catalogue")
	ctx, span := tracer.Start(ctx, "catalogue.keys")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "catalogue_keys"),
	)

	ctx, cancel := queryContext(ctx, r.Timeout)
	defer cancel()

	q := `SELECT indications_key, contraindications_key, body_parts
	      FROM catalogue_keys WHERE channel_id = $1`
	var keys domain.CatalogueKeys
	err := r.DB.QueryRow(ctx, q, channelID).Scan(&keys.Indications, &keys.Contraindications, &keys.BodyParts)
	if errors.Is(err, pgx.ErrNoRows) {
		slog.Warn("no catalogue row for branch", slog.Int("channel_id", channelID))
		return domain.CatalogueKeys{}, nil
	}
	if err != nil {
		return domain.CatalogueKeys{}, fmt.Errorf("op=catalogue.keys: %w", err)
	}
	return keys, nil
}
