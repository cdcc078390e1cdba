/*
Sequel: executable SQL statements over a bounded connection pool. Decorates the
statement builder from the "stmt" subpackage with execution, reshapes flat rows
into nested objects and keyed maps, and exposes a lightweight backpressure
signal derived from pool saturation.

Key Features

• Declare tables once via `DB.Define`; every statement built from a declared
table can be executed directly: `Exec`, `Get`, `ExecNested`, `AllObject`.

• Decoration survives arbitrary method chains: every clause method on `Query`
returns another `Query`.

• Nested selects alias columns as "table.column" and rebuild nested `Row`s from
the dotted keys via `Normalize`.

• `AllObject` projects rows into a map keyed by one column, see `Mapper`.

• `DB.TooBusy` reports whether connection requests have been queueing for
longer than a threshold, allowing callers to shed load before acquiring a
connection.

• Pluggable backends, registered by URL scheme. Import "sequel/driver/all" to
register Postgres, MySQL, SQLite and SQL Server.

Examples

	db, err := sequel.Open(ctx, sequel.Config{
		URL:         `mysql://root:@:3306/information_schema`,
		Connections: sequel.Connections{Min: 1, Max: 2},
	})
	if err != nil {
		return err
	}
	defer db.Close()

	tables := db.Define(stmt.Schema{
		Name:    `tables`,
		Columns: stmt.Cols(`table_name`, `table_type`),
	})

	rows, err := tables.Select().Limit(2).Exec(ctx)
*/
package sequel
