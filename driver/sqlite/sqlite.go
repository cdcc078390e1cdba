/*
SQLite driver backed by "modernc.org/sqlite". Importing this package registers
the "sqlite" and "sqlite3" URL schemes. The database path is the URL path, or
the opaque part for relative paths; the query string is passed to the driver:

	sqlite:///var/lib/app.db
	sqlite:app.db?_pragma=foreign_keys(1)
	sqlite::memory:
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/mitranim/sequel"
	"github.com/mitranim/sequel/stmt"
	_ "modernc.org/sqlite"
)

const DriverName = `sqlite`

func init() {
	sequel.RegisterDriver(`sqlite`, stmt.SQLite, Open)
	sequel.RegisterDriver(`sqlite3`, stmt.SQLite, Open)
}

// Opens a database file. Implements `sequel.Opener`.
func Open(_ context.Context, src *url.URL, conns sequel.Connections) (sequel.Backend, error) {
	dsn, err := DSN(src)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf(`sqlite: open: %w`, err)
	}
	return sequel.NewSQLBackend(db, conns), nil
}

// Converts a URL into a DSN understood by the driver.
func DSN(src *url.URL) (string, error) {
	path := src.Opaque
	if path == `` {
		path = src.Host + src.Path
	}
	if path == `` {
		return ``, fmt.Errorf(`sqlite: URL %q has no database path`, src.Redacted())
	}
	if src.RawQuery != `` {
		path += `?` + src.RawQuery
	}
	return path, nil
}
