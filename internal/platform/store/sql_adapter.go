package store

import (
	"context"
	"time"

	"fraudshield/internal/platform/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgAdapter wraps a pgxpool behind the TxRunner port and logs slow queries
type pgAdapter struct {
	pool *pgxpool.Pool
	log  *logger.Logger
	slow time.Duration
}

type pgRows struct{ rows pgx.Rows }

func (r pgRows) Next() bool             { return r.rows.Next() }
func (r pgRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r pgRows) Close()                 { r.rows.Close() }
func (r pgRows) Err() error             { return r.rows.Err() }

type pgTag struct{ tag pgconn.CommandTag }

func (t pgTag) RowsAffected() int64 { return t.tag.RowsAffected() }

func (a *pgAdapter) observe(sql string, start time.Time) {
	if a.slow <= 0 {
		return
	}
	if d := time.Since(start); d >= a.slow {
		a.log.Warn().Dur("took", d).Str("sql", sql).Msg("slow query")
	}
}

func (a *pgAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rows, err := a.pool.Query(ctx, sql, args...)
	a.observe(sql, start)
	if err != nil {
		return nil, err
	}
	return pgRows{rows: rows}, nil
}

func (a *pgAdapter) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	row := a.pool.QueryRow(ctx, sql, args...)
	a.observe(sql, start)
	return row
}

func (a *pgAdapter) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	tag, err := a.pool.Exec(ctx, sql, args...)
	a.observe(sql, start)
	if err != nil {
		return nil, err
	}
	return pgTag{tag: tag}, nil
}

// WithTx runs fn inside a transaction, rolling back on error or panic
func (a *pgAdapter) WithTx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&txQuerier{tx: tx, parent: a}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// txQuerier scopes queries to an open transaction
type txQuerier struct {
	tx     pgx.Tx
	parent *pgAdapter
}

func (t *txQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rows, err := t.tx.Query(ctx, sql, args...)
	t.parent.observe(sql, start)
	if err != nil {
		return nil, err
	}
	return pgRows{rows: rows}, nil
}

func (t *txQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	row := t.tx.QueryRow(ctx, sql, args...)
	t.parent.observe(sql, start)
	return row
}

func (t *txQuerier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	tag, err := t.tx.Exec(ctx, sql, args...)
	t.parent.observe(sql, start)
	if err != nil {
		return nil, err
	}
	return pgTag{tag: tag}, nil
}
