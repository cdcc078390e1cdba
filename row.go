package sequel

import (
	"fmt"
	"slices"
	"strings"
)

/*
One result row: column name to value. Byte slices returned by drivers are
converted to strings. After `Normalize`, values may be nested rows.
*/
type Row map[string]any

/*
Rebuilds nested rows from dotted keys: {"a.b": 1, "a.c": 2} becomes
{"a": {"b": 1, "c": 2}}. Keys without dots are copied unchanged. A key that is
both a scalar and a prefix of another key, such as "a" and "a.b", is reported
as `ErrKeyCollision`; the result never depends on map iteration order.
*/
func Normalize(row Row) (Row, error) {
	out := make(Row, len(row))
	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	// Shorter keys first, so that a scalar "a" is always seen before "a.b".
	slices.SortFunc(keys, func(one, two string) int {
		if diff := strings.Count(one, `.`) - strings.Count(two, `.`); diff != 0 {
			return diff
		}
		return strings.Compare(one, two)
	})

	for _, key := range keys {
		err := setPath(out, key, row[key])
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func setPath(out Row, key string, val any) error {
	path := strings.Split(key, `.`)
	tar := out

	for i, seg := range path[:len(path)-1] {
		switch next := tar[seg].(type) {
		case nil:
			if _, ok := tar[seg]; ok {
				return collision(key, path[:i+1])
			}
			child := Row{}
			tar[seg] = child
			tar = child
		case Row:
			tar = next
		default:
			return collision(key, path[:i+1])
		}
	}

	last := path[len(path)-1]
	if _, ok := tar[last]; ok {
		return collision(key, path)
	}
	tar[last] = val
	return nil
}

func collision(key string, path []string) error {
	return Err{
		Code:  ErrCodeKeyCollision,
		While: `normalizing row`,
		Cause: fmt.Errorf(`key %q collides with %q`, key, strings.Join(path, `.`)),
	}
}

// Normalizes every row. Stops at the first error.
func NormalizeRows(rows []Row) ([]Row, error) {
	out := make([]Row, len(rows))
	for i, row := range rows {
		val, err := Normalize(row)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}
