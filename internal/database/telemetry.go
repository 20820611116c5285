package database

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/irfndi/cryptogap-go/internal/database"

// TracedPool wraps a DatabasePool and records one span per statement.
type TracedPool struct {
	pool   DatabasePool
	tracer trace.Tracer
}

// NewTracedPool wraps pool with the global tracer provider.
func NewTracedPool(pool DatabasePool) *TracedPool {
	return &TracedPool{pool: pool, tracer: otel.Tracer(tracerName)}
}

func (db *TracedPool) start(ctx context.Context, op, sql string) (context.Context, trace.Span) {
	return db.tracer.Start(ctx, "db."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.statement", sql),
		))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Query executes a query that returns rows. The span stays open until the
// rows are exhausted or closed, so iteration errors are recorded too.
func (db *TracedPool) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span := db.start(ctx, "query", sql)
	rows, err := db.pool.Query(ctx, sql, args...)
	if err != nil {
		finish(span, err)
		return rows, err
	}
	return &tracedRows{Rows: rows, span: span}, nil
}

// QueryRow executes a single row query. The span ends on Scan; pgx.ErrNoRows
// is noted as an empty result rather than a failure.
func (db *TracedPool) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	ctx, span := db.start(ctx, "query_row", sql)
	return &tracedRow{row: db.pool.QueryRow(ctx, sql, args...), span: span}
}

// Exec executes a query without returning rows.
func (db *TracedPool) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ctx, span := db.start(ctx, "exec", sql)
	tag, err := db.pool.Exec(ctx, sql, args...)
	if err == nil {
		span.SetAttributes(attribute.Int64("db.rows_affected", tag.RowsAffected()))
	}
	finish(span, err)
	return tag, err
}

type tracedRows struct {
	pgx.Rows
	span trace.Span
	once sync.Once
}

func (r *tracedRows) Next() bool {
	if r.Rows.Next() {
		return true
	}
	r.end()
	return false
}

func (r *tracedRows) Close() {
	r.Rows.Close()
	r.end()
}

func (r *tracedRows) end() {
	r.once.Do(func() {
		r.span.SetAttributes(attribute.Int64("db.rows_affected", r.Rows.CommandTag().RowsAffected()))
		finish(r.span, r.Rows.Err())
	})
}

type tracedRow struct {
	row  pgx.Row
	span trace.Span
}

func (r *tracedRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		r.span.SetAttributes(attribute.Bool("db.no_rows", true))
		r.span.End()
		return err
	}
	finish(r.span, err)
	return err
}
