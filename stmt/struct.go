package stmt

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/mitranim/refut"
)

/*
Converts a "record" into parallel lists of column names and values. Supported
inputs are maps with string keys, in which case columns are sorted by name, and
structs or struct pointers, in which case columns are taken from `db` tags in
field order. Fields without a `db` tag or tagged "-" are skipped. Embedded
structs are traversed.
*/
func recordOf(while string, src any) ([]string, []any) {
	if src == nil {
		panic(errf(ErrCodeInvalidInput, while, `unexpected nil record`))
	}

	switch src := src.(type) {
	case map[string]any:
		return mapRecord(src)
	case map[string]string:
		return mapRecord(src)
	}

	rval := reflect.ValueOf(src)
	rtype := refut.RtypeDeref(rval.Type())

	switch rtype.Kind() {
	case reflect.Map:
		if rtype.Key().Kind() != reflect.String {
			panic(errf(ErrCodeInvalidInput, while, `expected map with string keys, got %q`, rtype))
		}
		return rmapRecord(rval)

	case reflect.Struct:
		return structRecord(while, rval)

	default:
		panic(exprPanic(while, src))
	}
}

func mapRecord[A any](src map[string]A) ([]string, []any) {
	cols := make([]string, 0, len(src))
	for key := range src {
		cols = append(cols, key)
	}
	slices.Sort(cols)

	vals := make([]any, len(cols))
	for i, col := range cols {
		vals[i] = src[col]
	}
	return cols, vals
}

func rmapRecord(rval reflect.Value) ([]string, []any) {
	for rval.Kind() == reflect.Pointer {
		rval = rval.Elem()
	}

	cols := make([]string, 0, rval.Len())
	for _, key := range rval.MapKeys() {
		cols = append(cols, key.String())
	}
	slices.Sort(cols)

	vals := make([]any, len(cols))
	for i, col := range cols {
		vals[i] = rval.MapIndex(reflect.ValueOf(col).Convert(rval.Type().Key())).Interface()
	}
	return cols, vals
}

func structRecord(while string, rval reflect.Value) ([]string, []any) {
	if refut.IsRvalNil(rval) {
		panic(errf(ErrCodeInvalidInput, while, `unexpected nil %v`, rval.Type()))
	}

	var cols []string
	var vals []any

	err := refut.TraverseStructRval(rval, func(rval reflect.Value, sfield reflect.StructField, _ []int) error {
		col := sfieldColumnName(sfield)
		if col == `` {
			return nil
		}
		cols = append(cols, col)
		vals = append(vals, rval.Interface())
		return nil
	})
	if err != nil {
		panic(Err{Code: ErrCodeInvalidInput, While: while, Cause: err})
	}

	if len(cols) == 0 {
		panic(errf(ErrCodeInvalidInput, while, `struct %v has no "db" fields`, rval.Type()))
	}
	return cols, vals
}

func sfieldColumnName(sfield reflect.StructField) string {
	return refut.TagIdent(sfield.Tag.Get(`db`))
}

// Converts a record into equality conditions joined with `and`.
func recordConds(table string, src any) And {
	const while = `building conditions from record`

	cols, vals := recordOf(while, src)
	out := make(And, len(cols))
	for i, col := range cols {
		out[i] = Eq{Col{Table: table, Name: col}, vals[i]}
	}
	return out
}

func sameCols(while string, expected, actual []string) {
	if !slices.Equal(expected, actual) {
		panic(Err{
			Code:  ErrCodeColumnMismatch,
			While: while,
			Cause: fmt.Errorf(`expected columns %q, got %q`, expected, actual),
		})
	}
}
