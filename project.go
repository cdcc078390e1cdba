package sequel

import (
	"fmt"
	"reflect"
)

/*
Determines the value stored for each row by `Project` and `Query.AllObject`.
Implemented only by `Column`, `ColumnSet` and `MapFunc`. A nil `Mapper` means
"every column except the key": nil when no other columns remain, the scalar
when exactly one remains, otherwise a `Row` of the remaining columns.
*/
type Mapper interface{ mapper() func(Row) any }

// Maps each row to the value of one column.
type Column string

func (self Column) mapper() func(Row) any {
	return func(row Row) any { return row[string(self)] }
}

// Maps each row to a `Row` with exactly these columns. Missing columns are
// nil.
type ColumnSet []string

func (self ColumnSet) mapper() func(Row) any {
	return func(row Row) any {
		out := make(Row, len(self))
		for _, col := range self {
			out[col] = row[col]
		}
		return out
	}
}

// Maps each row to an arbitrary value.
type MapFunc func(Row) any

func (self MapFunc) mapper() func(Row) any { return self }

// Decides whether a row is included. Nil includes every row.
type Filter func(Row) bool

// Result of `Project`: key column value to mapped value.
type Projection map[any]any

/*
Builds a map keyed by the `key` column of each row accepted by `filter`.
Values are derived by `mapper`. When several rows share a key, the later row
wins. A row without the key column fails with `ErrMissingKey`; a key value that
can't be used as a map key, such as a slice, fails with `ErrInvalidKey`.
*/
func Project(rows []Row, key string, mapper Mapper, filter Filter) (Projection, error) {
	const while = `projecting rows`

	fun := remainderMapper(key)
	if mapper != nil {
		fun = mapper.mapper()
	}

	out := make(Projection, len(rows))
	for i, row := range rows {
		if filter != nil && !filter(row) {
			continue
		}

		val, ok := row[key]
		if !ok {
			return nil, errf(ErrCodeMissingKey, while, `row %v lacks column %q`, i, key)
		}
		if val != nil && !reflect.TypeOf(val).Comparable() {
			return nil, Err{
				Code:  ErrCodeInvalidKey,
				While: while,
				Cause: fmt.Errorf(`value of column %q in row %v has non-comparable type %T`, key, i, val),
			}
		}
		out[val] = fun(row)
	}
	return out, nil
}

func remainderMapper(key string) func(Row) any {
	return func(row Row) any {
		out := make(Row, len(row))
		for col, val := range row {
			if col != key {
				out[col] = val
			}
		}

		switch len(out) {
		case 0:
			return nil
		case 1:
			for _, val := range out {
				return val
			}
		}
		return out
	}
}
