package sequel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run(`flat keys unchanged`, func(t *testing.T) {
		out, err := Normalize(Row{`id`: 1, `name`: `one`})
		require.NoError(t, err)
		require.Equal(t, Row{`id`: 1, `name`: `one`}, out)
	})

	t.Run(`dotted keys nest`, func(t *testing.T) {
		out, err := Normalize(Row{
			`users.id`:    1,
			`users.name`:  `one`,
			`posts.id`:    2,
			`posts.a.b.c`: nil,
			`plain`:       true,
		})
		require.NoError(t, err)
		require.Equal(t, Row{
			`users`: Row{`id`: 1, `name`: `one`},
			`posts`: Row{`id`: 2, `a`: Row{`b`: Row{`c`: nil}}},
			`plain`: true,
		}, out)
	})

	t.Run(`empty row`, func(t *testing.T) {
		out, err := Normalize(Row{})
		require.NoError(t, err)
		require.Equal(t, Row{}, out)
	})

	t.Run(`does not modify input`, func(t *testing.T) {
		src := Row{`a.b`: 1}
		_, err := Normalize(src)
		require.NoError(t, err)
		require.Equal(t, Row{`a.b`: 1}, src)
	})

	t.Run(`scalar and prefix collide`, func(t *testing.T) {
		for range 32 {
			_, err := Normalize(Row{`a`: 1, `a.b`: 2})
			require.ErrorIs(t, err, ErrKeyCollision)
		}
	})

	t.Run(`nil scalar and prefix collide`, func(t *testing.T) {
		_, err := Normalize(Row{`a`: nil, `a.b`: 2})
		require.ErrorIs(t, err, ErrKeyCollision)
	})

	t.Run(`deep collision`, func(t *testing.T) {
		_, err := Normalize(Row{`a.b`: 1, `a.b.c`: 2})
		require.ErrorIs(t, err, ErrKeyCollision)
	})
}

func TestNormalizeRows(t *testing.T) {
	out, err := NormalizeRows([]Row{{`a.b`: 1}, {`a.b`: 2}})
	require.NoError(t, err)
	require.Equal(t, []Row{{`a`: Row{`b`: 1}}, {`a`: Row{`b`: 2}}}, out)

	_, err = NormalizeRows([]Row{{`a.b`: 1}, {`a`: 1, `a.b`: 2}})
	require.ErrorIs(t, err, ErrKeyCollision)
}
