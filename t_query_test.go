package sequel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mitranim/sequel/metrics"
	"github.com/mitranim/sequel/stmt"
	"github.com/stretchr/testify/require"
)

func TestQuery_decorated(t *testing.T) {
	db := newTestDB(t, &fakeBackend{}, Config{})
	users := db.Define(schemaUsers)

	query := users.Select(`id`).Where(map[string]any{`id`: 1}).OrderBy(`id`).Limit(2).Offset(1)
	require.Same(t, db, query.DB())
	require.Equal(t,
		`select "users"."id" from "users" where "users"."id" = $1 order by "users"."id" limit 2 offset 1`,
		query.String(),
	)

	require.Same(t, db, users.As(`u`).Delete().DB())
	require.Same(t, db, users.Insert(map[string]any{`id`: 1}).Returning(`id`).DB())
	require.Same(t, db, db.Decorate(stmt.NewTable(schemaUsers, stmt.Postgres).Node()).Select().DB())
}

func TestQuery_Exec(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{rows: []Row{{`id`: int64(1)}, {`id`: int64(2)}}}
	db := newTestDB(t, backend, Config{})
	users := db.Define(schemaUsers)

	rows, err := users.Select(`id`).Where(map[string]any{`name`: `one`}).Exec(ctx)
	require.NoError(t, err)
	require.Equal(t, backend.rows, rows)
	require.Equal(t, fakeQuery{
		Text: `select "users"."id" from "users" where "users"."name" = $1`,
		Args: []any{`one`},
	}, backend.lastQuery())

	all, err := users.Select(`id`).All(ctx)
	require.NoError(t, err)
	require.Equal(t, rows, all)
}

func TestQuery_ExecNested(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{rows: []Row{{`users.id`: 1, `users.name`: `one`}}}
	db := newTestDB(t, backend, Config{})

	rows, err := db.Define(schemaUsers).Select().ExecNested(ctx)
	require.NoError(t, err)
	require.Equal(t, []Row{{`users`: Row{`id`: 1, `name`: `one`}}}, rows)
	require.Equal(t,
		`select "users"."id" as "users.id", "users"."name" as "users.name" from "users"`,
		backend.lastQuery().Text,
	)

	backend.rows = []Row{{`users`: 1, `users.id`: 2}}
	_, err = db.Define(schemaUsers).Select().ExecNested(ctx)
	require.ErrorIs(t, err, ErrKeyCollision)
}

func TestQuery_ExecWithin(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	db := newTestDB(t, backend, Config{})
	users := db.Define(schemaUsers)

	_, err := users.Select(`id`).ExecWithin(ctx, nil, false, `  for update `)
	require.NoError(t, err)
	require.Equal(t, `select "users"."id" from "users" for update`, backend.lastQuery().Text)

	other := &fakeBackend{rows: []Row{{`id`: 3}}}
	rows, err := users.Select(`id`).ExecWithin(ctx, other, false, ``)
	require.NoError(t, err)
	require.Equal(t, []Row{{`id`: 3}}, rows)
	require.Equal(t, 1, backend.queryCount())
}

func TestQuery_Get(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{rows: []Row{{`id`: 1}}}
	db := newTestDB(t, backend, Config{})
	users := db.Define(schemaUsers)

	row, err := users.Select(`id`).Get(ctx)
	require.NoError(t, err)
	require.Equal(t, Row{`id`: 1}, row)
	require.Equal(t, `select "users"."id" from "users" limit 1`, backend.lastQuery().Text)

	_, err = users.Select(`id`).Limit(5).Get(ctx)
	require.NoError(t, err)
	require.Equal(t, `select "users"."id" from "users" limit 5`, backend.lastQuery().Text)

	_, err = users.Delete().Where(map[string]any{`id`: 1}).Returning(`id`).Get(ctx)
	require.NoError(t, err)
	require.Equal(t, `delete from "users" where "id" = $1 returning "id"`, backend.lastQuery().Text)

	backend.rows = nil
	row, err = users.Select(`id`).Get(ctx)
	require.NoError(t, err)
	require.Nil(t, row)
}

func TestQuery_AllObject(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{rows: []Row{
		{`id`: 1, `name`: `one`},
		{`id`: 2, `name`: `two`},
	}}
	db := newTestDB(t, backend, Config{})

	out, err := db.Define(schemaUsers).Select().AllObject(ctx, `id`, Column(`name`), nil)
	require.NoError(t, err)
	require.Equal(t, Projection{1: `one`, 2: `two`}, out)

	_, err = db.Define(schemaUsers).Select().AllObject(ctx, `missing`, nil, nil)
	require.ErrorIs(t, err, ErrMissingKey)
}

func TestQuery_errors(t *testing.T) {
	ctx := context.Background()
	cause := errors.New(`relation "users" does not exist`)
	backend := &fakeBackend{err: cause}
	db := newTestDB(t, backend, Config{})
	query := db.Define(schemaUsers).Select(`id`).Limit(1)

	_, execErr := query.Exec(ctx)
	_, getErr := query.Get(ctx)
	_, objErr := query.AllObject(ctx, `id`, nil, nil)

	require.ErrorIs(t, execErr, cause)
	require.Equal(t, execErr, getErr)
	require.Equal(t, execErr, objErr)

	var exec *ExecErr
	require.ErrorAs(t, execErr, &exec)
	require.Equal(t, `select "users"."id" from "users" limit 1`, exec.Text)
	require.Equal(t, Fingerprint(exec.Text), exec.Fingerprint)
	require.Contains(t, exec.Error(), `does not exist`)
}

func TestQuery_renderError(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	db := newTestDB(t, backend, Config{})

	_, err := db.Define(schemaUsers).Delete().Update(map[string]any{`name`: `one`}).Exec(ctx)
	require.ErrorIs(t, err, stmt.ErrConflictingVerb)
	require.Zero(t, backend.queryCount())
}

func TestQuery_detached(t *testing.T) {
	_, err := Query{}.Exec(context.Background())
	require.ErrorIs(t, err, ErrDetached)
}

func TestQuery_ExecOn(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{rows: []Row{{`id`: 1}}}
	db := newTestDB(t, backend, Config{Connections: Connections{Max: 1}})
	users := db.Define(schemaUsers)

	conn, err := db.Conn(ctx)
	require.NoError(t, err)

	rows, err := users.Select(`id`).ExecOn(ctx, conn)
	require.NoError(t, err)
	require.Equal(t, []Row{{`id`: 1}}, rows)
	require.Equal(t, 1, backend.acquired)

	conn.Release()
	_, err = users.Select(`id`).ExecOn(ctx, conn)
	require.ErrorIs(t, err, ErrReleased)

	_, err = users.Select(`id`).ExecOn(ctx, nil)
	require.ErrorIs(t, err, ErrReleased)
}

func TestQuery_Defer(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{rows: []Row{{`users.id`: 1}}}
	db := newTestDB(t, backend, Config{})
	deferred := db.Define(schemaUsers).Select(`id`).Defer(nil, true, ``)

	require.Zero(t, backend.queryCount())

	rows, err := deferred.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, []Row{{`users`: Row{`id`: 1}}}, rows)

	var group sync.WaitGroup
	group.Add(2)
	for range 2 {
		deferred.Go(ctx, func(rows []Row, err error) {
			defer group.Done()
			require.NoError(t, err)
			require.Len(t, rows, 1)
		})
	}
	group.Wait()
	require.Equal(t, 3, backend.queryCount())
}

func TestQuery_timeout(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}

	db := newTestDB(t, backend, Config{})
	_, err := db.Define(schemaUsers).Select().Exec(ctx)
	require.NoError(t, err)

	db = newTestDB(t, backend, Config{QueryTimeout: time.Minute})
	_, err = db.Define(schemaUsers).Select().Exec(ctx)
	require.NoError(t, err)

	require.Equal(t, []bool{false, true}, backend.deadlines)
}

func TestQuery_metrics(t *testing.T) {
	ctx := context.Background()
	rec := &metricRecorder{}
	backend := &fakeBackend{}
	db := newTestDB(t, backend, Config{}, WithMetrics(rec), WithName(`main`))
	users := db.Define(schemaUsers)

	_, err := users.Select().Exec(ctx)
	require.NoError(t, err)

	backend.err = errors.New(`fail`)
	_, err = users.Delete().Exec(ctx)
	require.Error(t, err)

	require.Equal(t, float64(2), rec.counted(metrics.QueryTotal))

	var labels []metrics.Labels
	for _, val := range rec.counters {
		labels = append(labels, val.Labels)
	}
	require.Equal(t, []metrics.Labels{
		{`db`: `main`, `kind`: `select`, `status`: `success`},
		{`db`: `main`, `kind`: `statement`, `status`: `failure`},
	}, labels)
}

func TestQuery_logging(t *testing.T) {
	ctx := context.Background()
	var buf logBuffer
	db := newTestDB(t, &fakeBackend{}, Config{}, WithLogger(buf.Logger()))

	_, err := db.Define(schemaUsers).Select(`id`).Exec(ctx)
	require.NoError(t, err)
	require.Contains(t, buf.String(), `select \"users\".\"id\" from \"users\"`)
}
