package stmt

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

const (
	ordinalParamPrefix = '$'
	quoteDouble        = '"'
)

var (
	charsetSpace      = newCharset(" \t\v\r\n")
	charsetDelimStart = newCharset(" \t\v\r\n([{.")
	charsetDelimEnd   = newCharset(" \t\v\r\n,}])")
)

type charset [256]bool

func newCharset(vals string) *charset {
	var out charset
	for _, val := range []byte(vals) {
		out[val] = true
	}
	return &out
}

func (self *charset) has(val byte) bool { return self[val] }

func maybeAppendSpace(val []byte) []byte {
	if hasDelimSuffix(string(val)) {
		return val
	}
	return append(val, ` `...)
}

func appendMaybeSpaced(text []byte, suffix string) []byte {
	if !hasDelimSuffix(string(text)) && !hasDelimPrefix(suffix) {
		text = append(text, ` `...)
	}
	return append(text, suffix...)
}

func hasDelimPrefix(text string) bool {
	return len(text) == 0 || charsetDelimEnd.has(text[0])
}

func hasDelimSuffix(text string) bool {
	return len(text) == 0 || charsetDelimStart.has(text[len(text)-1])
}

func rec(ptr *error) {
	val := recover()
	if val == nil {
		return
	}

	err, _ := val.(error)
	if err != nil {
		*ptr = err
		return
	}

	panic(val)
}

/*
Dereferences nil-able values and calls `driver.Valuer` so that equality
expressions can detect SQL nulls.
*/
func norm(val any) any {
	if isNil(val) {
		return nil
	}

	impl, _ := val.(driver.Valuer)
	if impl != nil {
		out, err := impl.Value()
		if err != nil {
			panic(err)
		}
		return out
	}
	return val
}

func isNil(val any) bool {
	if val == nil {
		return true
	}
	rval := reflect.ValueOf(val)
	switch rval.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rval.IsNil()
	default:
		return false
	}
}

func validateIdent(val string) {
	if val == `` {
		panic(errf(ErrCodeInvalidInput, `rendering identifier`, `unexpected empty identifier`))
	}
	if strings.IndexByte(val, quoteDouble) >= 0 {
		panic(errf(ErrCodeInvalidInput, `rendering identifier`, `identifier %q must not contain double quotes`, val))
	}
}

// Appends to a copy, never to the shared backing array, keeping nodes immutable.
func appendCopy[A any](prev []A, vals ...A) []A {
	return append(slices.Clip(prev), vals...)
}

func splitPath(val string) []string { return strings.Split(val, `.`) }

func typeName(val any) string { return fmt.Sprintf(`%T`, val) }
