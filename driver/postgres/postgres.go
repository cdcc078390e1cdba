/*
Postgres driver backed by a pgx connection pool. Importing this package
registers the "postgres" and "postgresql" URL schemes:

	import _ "github.com/mitranim/sequel/driver/postgres"

	db, err := sequel.Open(ctx, sequel.Config{URL: `postgres://localhost:5432/app`})
*/
package postgres

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mitranim/sequel"
	"github.com/mitranim/sequel/stmt"
)

func init() {
	sequel.RegisterDriver(`postgres`, stmt.Postgres, Open)
	sequel.RegisterDriver(`postgresql`, stmt.Postgres, Open)
}

// Opens a pgx pool sized by `conns`. Implements `sequel.Opener`.
func Open(ctx context.Context, src *url.URL, conns sequel.Connections) (sequel.Backend, error) {
	conf, err := Config(src, conns)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf(`pgxpool: %w`, err)
	}
	return New(pool), nil
}

// Parses the URL into a pool configuration with the given limits.
func Config(src *url.URL, conns sequel.Connections) (*pgxpool.Config, error) {
	conf, err := pgxpool.ParseConfig(src.String())
	if err != nil {
		return nil, fmt.Errorf(`pgxpool config: %w`, err)
	}
	if conns.Max > 0 {
		conf.MaxConns = int32(conns.Max)
	}
	if conns.Min > 0 {
		conf.MinConns = min(int32(conns.Min), conf.MaxConns)
	}
	return conf, nil
}

// Wraps an existing pool.
func New(pool *pgxpool.Pool) *Backend { return &Backend{Pool: pool} }

// Implements `sequel.Backend` over `*pgxpool.Pool`.
type Backend struct{ Pool *pgxpool.Pool }

func (self *Backend) QueryRows(ctx context.Context, text string, args []any) ([]sequel.Row, error) {
	return queryRows(ctx, self.Pool, text, args)
}

func (self *Backend) Acquire(ctx context.Context) (sequel.BackendConn, error) {
	conn, err := self.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return Conn{conn}, nil
}

func (self *Backend) Ping(ctx context.Context) error { return self.Pool.Ping(ctx) }

func (self *Backend) Close() error {
	self.Pool.Close()
	return nil
}

// Connection acquired from the pgx pool.
type Conn struct{ Raw *pgxpool.Conn }

func (self Conn) QueryRows(ctx context.Context, text string, args []any) ([]sequel.Row, error) {
	return queryRows(ctx, self.Raw, text, args)
}

func (self Conn) Release() { self.Raw.Release() }

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryRows(ctx context.Context, src querier, text string, args []any) ([]sequel.Row, error) {
	rows, err := src.Query(ctx, text, args...)
	if err != nil {
		return nil, err
	}

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}

	out := make([]sequel.Row, len(maps))
	for i, val := range maps {
		out[i] = val
	}
	return out, nil
}
