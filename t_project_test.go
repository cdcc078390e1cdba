package sequel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var projectRows = []Row{
	{`id`: 1, `name`: `one`, `age`: 10},
	{`id`: 2, `name`: `two`, `age`: 20},
	{`id`: 3, `name`: `three`, `age`: 30},
}

func TestProject(t *testing.T) {
	t.Run(`remaining columns`, func(t *testing.T) {
		out, err := Project(projectRows[:2], `id`, nil, nil)
		require.NoError(t, err)
		require.Equal(t, Projection{
			1: Row{`name`: `one`, `age`: 10},
			2: Row{`name`: `two`, `age`: 20},
		}, out)
	})

	t.Run(`one remaining column is a scalar`, func(t *testing.T) {
		out, err := Project([]Row{{`id`: 1, `name`: `one`}}, `id`, nil, nil)
		require.NoError(t, err)
		require.Equal(t, Projection{1: `one`}, out)
	})

	t.Run(`no remaining columns`, func(t *testing.T) {
		out, err := Project([]Row{{`id`: 1}}, `id`, nil, nil)
		require.NoError(t, err)
		require.Equal(t, Projection{1: nil}, out)
	})

	t.Run(`column`, func(t *testing.T) {
		out, err := Project(projectRows, `name`, Column(`age`), nil)
		require.NoError(t, err)
		require.Equal(t, Projection{`one`: 10, `two`: 20, `three`: 30}, out)
	})

	t.Run(`column set`, func(t *testing.T) {
		out, err := Project(projectRows[:1], `id`, ColumnSet{`name`, `missing`}, nil)
		require.NoError(t, err)
		require.Equal(t, Projection{1: Row{`name`: `one`, `missing`: nil}}, out)
	})

	t.Run(`function`, func(t *testing.T) {
		mapper := MapFunc(func(row Row) any { return row[`age`].(int) * 2 })
		out, err := Project(projectRows, `id`, mapper, nil)
		require.NoError(t, err)
		require.Equal(t, Projection{1: 20, 2: 40, 3: 60}, out)
	})

	t.Run(`filter`, func(t *testing.T) {
		filter := func(row Row) bool { return row[`age`].(int) >= 20 }
		out, err := Project(projectRows, `id`, Column(`name`), filter)
		require.NoError(t, err)
		require.Equal(t, Projection{2: `two`, 3: `three`}, out)
	})

	t.Run(`later row wins`, func(t *testing.T) {
		rows := []Row{{`k`: `a`, `v`: 1}, {`k`: `a`, `v`: 2}}
		out, err := Project(rows, `k`, nil, nil)
		require.NoError(t, err)
		require.Equal(t, Projection{`a`: 2}, out)
	})

	t.Run(`nil key`, func(t *testing.T) {
		out, err := Project([]Row{{`k`: nil, `v`: 1}}, `k`, nil, nil)
		require.NoError(t, err)
		require.Equal(t, Projection{nil: 1}, out)
	})

	t.Run(`no rows`, func(t *testing.T) {
		out, err := Project(nil, `id`, nil, nil)
		require.NoError(t, err)
		require.Empty(t, out)
	})

	t.Run(`missing key`, func(t *testing.T) {
		_, err := Project(projectRows, `missing`, nil, nil)
		require.ErrorIs(t, err, ErrMissingKey)
	})

	t.Run(`filtered row without key`, func(t *testing.T) {
		rows := []Row{{`id`: 1}, {`other`: 2}}
		out, err := Project(rows, `id`, nil, func(row Row) bool { return row[`id`] != nil })
		require.NoError(t, err)
		require.Equal(t, Projection{1: nil}, out)
	})

	t.Run(`non-comparable key`, func(t *testing.T) {
		_, err := Project([]Row{{`k`: []int{1}}}, `k`, nil, nil)
		require.ErrorIs(t, err, ErrInvalidKey)
	})
}
