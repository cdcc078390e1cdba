package sequel

import (
	"context"
	"database/sql"
)

// Implemented by `*sql.DB` and `*sql.Conn`.
type sqlQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

/*
Adapts a "database/sql" database into a `Backend`. Sets the pool limits of the
database from `conns`, so that the driver pool never holds more connections
than the `Pool` in front of it hands out.
*/
func NewSQLBackend(db *sql.DB, conns Connections) *SQLBackend {
	conns = conns.withDefaults()
	db.SetMaxOpenConns(conns.Max)
	db.SetMaxIdleConns(conns.Min)
	return &SQLBackend{DB: db}
}

// `Backend` over "database/sql". See `NewSQLBackend`.
type SQLBackend struct{ DB *sql.DB }

func (self *SQLBackend) QueryRows(ctx context.Context, text string, args []any) ([]Row, error) {
	return scanRows(ctx, self.DB, text, args)
}

func (self *SQLBackend) Acquire(ctx context.Context) (BackendConn, error) {
	conn, err := self.DB.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return sqlConn{conn}, nil
}

func (self *SQLBackend) Ping(ctx context.Context) error { return self.DB.PingContext(ctx) }
func (self *SQLBackend) Close() error                   { return self.DB.Close() }

type sqlConn struct{ conn *sql.Conn }

func (self sqlConn) QueryRows(ctx context.Context, text string, args []any) ([]Row, error) {
	return scanRows(ctx, self.conn, text, args)
}

func (self sqlConn) Release() { _ = self.conn.Close() }

func scanRows(ctx context.Context, src sqlQuerier, text string, args []any) (out []Row, err error) {
	rows, err := src.QueryContext(ctx, text, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		err := rows.Scan(ptrs...)
		if err != nil {
			return nil, err
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = scannedValue(vals[i])
		}
		out = append(out, row)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Drivers reuse the scan buffers of `[]byte` values between rows.
func scannedValue(val any) any {
	if bytes, ok := val.([]byte); ok {
		return string(bytes)
	}
	return val
}
