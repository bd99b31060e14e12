package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ai2b/zena-toolserver/internal/domain"
)

// ToolEventRepo persists one audit row per tool invocation.
type ToolEventRepo struct {
	DB      PgxPool
	Timeout time.Duration
}

func NewToolEventRepo(db PgxPool, queryTimeout time.Duration) *ToolEventRepo {
	return &ToolEventRepo{DB: db, Timeout: queryTimeout}
}

// Record inserts the event, generating an id and timestamp when the
// caller left them zero.
func (r *ToolEventRepo) Record(ctx domain.Context, ev domain.ToolEvent) error {
	tracer := otel.Tracer("repo.tool_events")
	ctx, span := tracer.Start(ctx, "tool_events.record")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "tool_events"),
	)

	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	ctx, cancel := queryContext(ctx, r.Timeout)
	defer cancel()

	q := `INSERT INTO tool_events (id, tenant, tool, session_id, created_at)
	      VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.DB.Exec(ctx, q, ev.ID, ev.Tenant, ev.Tool, ev.SessionID, ev.CreatedAt); err != nil {
		return fmt.Errorf("op=tool_events.record: %w", err)
	}
	return nil
}
