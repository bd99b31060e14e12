package postgres_test

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// rowStub implements pgx.Row
type rowStub struct{ scan func(dest ...any) error }

func (r rowStub) Scan(dest ...any) error { return r.scan(dest...) }

// poolStub implements postgres.PgxPool for tests. It records the last
// statement of each kind so assertions can check SQL and args without a
// live database.
type poolStub struct {
	execErr      error
	execSQL      string
	execArgs     []any
	execDeadline bool

	row         rowStub
	rowSQL      string
	rowArgs     []any
	rowDeadline bool
}

func (p *poolStub) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	_, p.execDeadline = ctx.Deadline()
	p.execSQL = sql
	p.execArgs = args
	return pgconn.CommandTag{}, p.execErr
}

func (p *poolStub) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	_, p.rowDeadline = ctx.Deadline()
	p.rowSQL = sql
	p.rowArgs = args
	if p.row.scan == nil {
		return rowStub{scan: func(_ ...any) error { return errors.New("no row configured") }}
	}
	return p.row
}

func noRows() rowStub {
	return rowStub{scan: func(_ ...any) error { return pgx.ErrNoRows }}
}
