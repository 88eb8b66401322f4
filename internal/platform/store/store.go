// Package store owns the relational storage seam.
//
// Services depend on the RowQuerier / TxRunner ports declared here and
// never on a driver type, so tests can swap in fakes without a database.
package store

import (
	"context"
	"time"

	perr "fraudshield/internal/platform/errors"
	"fraudshield/internal/platform/logger"
)

// Row is a single-row scan target
type Row interface {
	Scan(dest ...any) error
}

// Rows is a row-set cursor
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close()
	Err() error
}

// CommandTag is the driver's exec result
type CommandTag interface {
	RowsAffected() int64
}

// RowQuerier is the minimal read/write surface repos are allowed to use
type RowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
}

// TxRunner adds transaction scoping over RowQuerier
type TxRunner interface {
	RowQuerier
	WithTx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Config controls which backends Open brings up
type Config struct {
	PG PGConfig
}

// PGConfig holds Postgres pool settings
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	SlowQueryMs int64
}

// Store aggregates the opened backends
type Store struct {
	Log *logger.Logger
	PG  TxRunner

	closers []func()
}

// Option tweaks Open
type Option func(*Store)

// WithLogger attaches a logger used for slow-query and lifecycle logs
func WithLogger(log *logger.Logger) Option {
	return func(s *Store) { s.Log = log }
}

// Open brings up every enabled backend or fails as a unit
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		o(s)
	}
	if s.Log == nil {
		s.Log = logger.Named("store")
	}

	if cfg.PG.Enabled {
		if cfg.PG.URL == "" {
			return nil, perr.New(perr.ErrorCodeValidation, "store: PG enabled but PG_URL is empty")
		}
		pool, err := openPG(ctx, cfg.PG)
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDB, "store: open postgres")
		}
		s.PG = &pgAdapter{
			pool: pool,
			log:  s.Log,
			slow: time.Duration(cfg.PG.SlowQueryMs) * time.Millisecond,
		}
		s.closers = append(s.closers, pool.Close)
		s.Log.Info().Msg("postgres pool up")
	}

	return s, nil
}

// Close tears down every opened backend
func (s *Store) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// Guard panics unless the named backend was opened.
// Modules call it at construction so a misconfigured deploy dies at
// boot instead of on first request
func (s *Store) Guard(name string) {
	switch name {
	case "pg":
		if s.PG == nil {
			panic("store: pg required but not configured")
		}
	default:
		panic("store: unknown backend " + name)
	}
}
