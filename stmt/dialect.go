package stmt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mitranim/sqlp"
)

/*
SQL dialect of the target database. Statements are always rendered in the
canonical form (double-quoted identifiers, "$N" ordinal parameters); the
dialect adjusts placeholders and the few clauses that differ between
databases. MySQL must run with the "ANSI_QUOTES" SQL mode, which the MySQL
driver package enables.
*/
type Dialect uint8

const (
	Postgres Dialect = iota
	MySQL
	SQLite
	MSSQL
)

// Implement `fmt.Stringer`.
func (self Dialect) String() string {
	switch self {
	case Postgres:
		return `postgres`
	case MySQL:
		return `mysql`
	case SQLite:
		return `sqlite`
	case MSSQL:
		return `sqlserver`
	default:
		return `Dialect(` + strconv.Itoa(int(self)) + `)`
	}
}

/*
Parses a dialect from a URL scheme or a driver name. Case-insensitive. Accepts
common aliases such as "postgresql", "mariadb", "sqlite3" and "mssql".
*/
func ParseDialect(src string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSuffix(src, `:`)) {
	case `postgres`, `postgresql`, `pg`, `pgx`:
		return Postgres, nil
	case `mysql`, `mariadb`:
		return MySQL, nil
	case `sqlite`, `sqlite3`, `file`:
		return SQLite, nil
	case `sqlserver`, `mssql`:
		return MSSQL, nil
	default:
		return 0, errf(ErrCodeUnsupportedDialect, `parsing dialect`, `unknown dialect %q`, src)
	}
}

// Implement `encoding.TextUnmarshaler`, allowing dialects in config files.
func (self *Dialect) UnmarshalText(src []byte) error {
	val, err := ParseDialect(string(src))
	if err != nil {
		return err
	}
	*self = val
	return nil
}

// Implement `encoding.TextMarshaler`.
func (self Dialect) MarshalText() ([]byte, error) {
	return []byte(self.String()), nil
}

/*
Converts canonical query text to the placeholder style of this dialect:

	Postgres  $1, $2   unchanged
	MSSQL     @p1, @p2 same argument order
	MySQL     ?, ?     arguments reordered and duplicated per occurrence
	SQLite    ?, ?     same as MySQL

Quoted strings, identifiers and comments are left untouched. The returned args
slice is never the input slice when it had to be reordered.
*/
func (self Dialect) Rewrite(text string, args []any) (string, []any, error) {
	if self == Postgres {
		return text, args, nil
	}

	const while = `rewriting placeholders`
	buf := make([]byte, 0, len(text))
	var out []any
	tokenizer := sqlp.Tokenizer{Source: text}

	for {
		node := tokenizer.Next()
		if node == nil {
			break
		}

		switch node := node.(type) {
		case sqlp.NodeOrdinalParam:
			ord := int(node)
			if ord < 1 || ord > len(args) {
				return ``, nil, errf(ErrCodeOrdinalOutOfBounds, while, `parameter $%v with %v arguments`, ord, len(args))
			}

			switch self {
			case MSSQL:
				buf = append(buf, `@p`...)
				buf = strconv.AppendInt(buf, int64(ord), 10)
			default:
				buf = append(buf, '?')
				out = append(out, args[ord-1])
			}

		case sqlp.NodeNamedParam:
			return ``, nil, errf(ErrCodeUnexpectedParameter, while, `unexpected named param %q`, string(node))

		default:
			node.Append(&buf)
		}
	}

	if self == MSSQL {
		out = args
	}
	return string(buf), out, nil
}

func (self Dialect) supportsReturning() bool {
	return self == Postgres || self == SQLite
}

func (self Dialect) supportsIndexIfNotExists() bool {
	return self == Postgres || self == SQLite
}

func (self Dialect) appendLimit(bui *Bui, limit, offset int64, ordered bool) {
	if self == MSSQL {
		if limit < 0 && offset <= 0 {
			return
		}
		if !ordered {
			bui.Str(`order by (select null)`)
		}
		bui.Str(`offset`)
		bui.Int(max(offset, 0))
		bui.Str(`rows`)
		if limit >= 0 {
			bui.Str(`fetch next`)
			bui.Int(limit)
			bui.Str(`rows only`)
		}
		return
	}

	if limit >= 0 {
		bui.Str(`limit`)
		bui.Int(limit)
	} else if offset > 0 {
		switch self {
		case MySQL:
			bui.Str(`limit 18446744073709551615`)
		case SQLite:
			bui.Str(`limit -1`)
		}
	}
	if offset > 0 {
		bui.Str(`offset`)
		bui.Int(offset)
	}
}

// Catalog query listing the indexes of one table. Each row has at least the
// "name" column.
func (self Dialect) indexesQuery(table string) Raw {
	switch self {
	case Postgres:
		return Raw{`select indexname as "name", indexdef as "definition" from pg_indexes where tablename = $1 order by indexname`, []any{table}}
	case MySQL:
		return Raw{`select index_name as "name", column_name as "column", seq_in_index as "position", non_unique as "non_unique" from information_schema.statistics where table_schema = database() and table_name = $1 order by index_name, seq_in_index`, []any{table}}
	case SQLite:
		return Raw{`select name as "name", sql as "definition" from sqlite_master where type = 'index' and tbl_name = $1 order by name`, []any{table}}
	case MSSQL:
		return Raw{`select i.name as "name", i.is_unique as "is_unique", i.type_desc as "type" from sys.indexes i where i.object_id = object_id($1) and i.name is not null order by i.name`, []any{table}}
	default:
		panic(errf(ErrCodeUnsupportedDialect, `listing indexes`, `%v`, self))
	}
}

func unsupported(dialect Dialect, while string, format string, args ...any) Err {
	return Err{
		Code:  ErrCodeUnsupportedDialect,
		While: while,
		Cause: fmt.Errorf(`%v: %v`, dialect, fmt.Sprintf(format, args...)),
	}
}
