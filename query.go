package sequel

import (
	"context"
	"strings"

	"github.com/mitranim/sequel/stmt"
)

/*
Executable statement: a `stmt.Node` bound to the `DB` that runs it. Chain
methods mirror `stmt.Node` and return `Query`, so a decorated statement stays
decorated however it's built. Like `stmt.Node`, this is an immutable value.

Rendering errors are reported as `stmt.Err`; execution errors as `*ExecErr`.
Every execution method returns the same error value for the same failure.
*/
type Query struct {
	node stmt.Node
	db   *DB
}

// Underlying statement.
func (self Query) Node() stmt.Node { return self.node }

// Database that executes this query. Nil for a zero `Query`.
func (self Query) DB() *DB { return self.db }

func (self Query) ToQuery() (stmt.Query, error) { return self.node.ToQuery() }
func (self Query) String() string               { return self.node.String() }

func (self Query) Select(cols ...any) Query        { return self.with(self.node.Select(cols...)) }
func (self Query) From(tables ...stmt.Table) Query { return self.with(self.node.From(tables...)) }
func (self Query) Insert(vals ...any) Query        { return self.with(self.node.Insert(vals...)) }
func (self Query) Update(val any) Query            { return self.with(self.node.Update(val)) }
func (self Query) Delete() Query                   { return self.with(self.node.Delete()) }
func (self Query) Create() Query                   { return self.with(self.node.Create()) }
func (self Query) Drop() Query                     { return self.with(self.node.Drop()) }
func (self Query) Alter() Query                    { return self.with(self.node.Alter()) }
func (self Query) Where(conds ...any) Query        { return self.with(self.node.Where(conds...)) }
func (self Query) Indexes() Query                  { return self.with(self.node.Indexes()) }
func (self Query) OrderBy(vals ...any) Query       { return self.with(self.node.OrderBy(vals...)) }
func (self Query) Limit(val int64) Query           { return self.with(self.node.Limit(val)) }
func (self Query) Offset(val int64) Query          { return self.with(self.node.Offset(val)) }
func (self Query) Returning(cols ...any) Query     { return self.with(self.node.Returning(cols...)) }
func (self Query) IfExists() Query                 { return self.with(self.node.IfExists()) }
func (self Query) IfNotExists() Query              { return self.with(self.node.IfNotExists()) }
func (self Query) AddColumn(col stmt.Column) Query { return self.with(self.node.AddColumn(col)) }
func (self Query) DropColumn(name string) Query    { return self.with(self.node.DropColumn(name)) }
func (self Query) RenameTo(name string) Query      { return self.with(self.node.RenameTo(name)) }
func (self Query) Named(name string) Query         { return self.with(self.node.Named(name)) }
func (self Query) On(cols ...string) Query         { return self.with(self.node.On(cols...)) }
func (self Query) Unique() Query                   { return self.with(self.node.Unique()) }

func (self Query) with(node stmt.Node) Query {
	self.node = node
	return self
}

/*
Core execution primitive. Renders the statement, appends `suffix` separated by
a space, and runs it on `target`, which is usually the pool of the database or
a connection acquired from it. With `nested`, table columns are selected as
"<table>.<column>" and the resulting rows are rebuilt into nested rows via
`Normalize`.
*/
func (self Query) ExecWithin(ctx context.Context, target Querier, nested bool, suffix string) ([]Row, error) {
	if self.db == nil {
		return nil, ErrDetached
	}
	if target == nil {
		target = self.db.pool
	}

	query, err := self.node.Render(nested)
	if err != nil {
		return nil, err
	}

	text := query.Text
	if suffix = strings.TrimSpace(suffix); suffix != `` {
		text += ` ` + suffix
	}

	rows, err := self.db.exec(ctx, target, self.kind(), text, query.Values)
	if err != nil {
		return nil, err
	}

	if nested && len(rows) > 0 {
		return NormalizeRows(rows)
	}
	return rows, nil
}

// Executes on the shared pool and returns flat rows.
func (self Query) Exec(ctx context.Context) ([]Row, error) {
	return self.ExecWithin(ctx, nil, false, ``)
}

// Same as `Exec`.
func (self Query) All(ctx context.Context) ([]Row, error) { return self.Exec(ctx) }

// Executes on the shared pool and returns nested rows. See `Normalize`.
func (self Query) ExecNested(ctx context.Context) ([]Row, error) {
	return self.ExecWithin(ctx, nil, true, ``)
}

// Executes on a connection acquired via `DB.Conn`.
func (self Query) ExecOn(ctx context.Context, conn *Conn) ([]Row, error) {
	if conn == nil {
		return nil, ErrReleased
	}
	return self.ExecWithin(ctx, conn, false, ``)
}

/*
Returns the first row, or a nil row and nil error when there are no rows.
Selects without an explicit limit are limited to one row.
*/
func (self Query) Get(ctx context.Context) (Row, error) {
	if self.node.IsSelect() && !self.node.HasLimit() {
		self.node = self.node.Limit(1)
	}

	rows, err := self.Exec(ctx)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// Executes the query and projects the rows. See `Project`.
func (self Query) AllObject(ctx context.Context, key string, mapper Mapper, filter Filter) (Projection, error) {
	rows, err := self.Exec(ctx)
	if err != nil {
		return nil, err
	}
	return Project(rows, key, mapper, filter)
}

/*
Prepares execution without performing it. The returned value can run the query
synchronously via `Deferred.Run` or on another goroutine via `Deferred.Go`.
*/
func (self Query) Defer(target Querier, nested bool, suffix string) Deferred {
	return Deferred{query: self, target: target, nested: nested, suffix: suffix}
}

func (self Query) kind() string {
	if self.node.IsSelect() {
		return `select`
	}
	return `statement`
}

// Execution prepared by `Query.Defer`. Can be run any number of times.
type Deferred struct {
	query  Query
	target Querier
	nested bool
	suffix string
}

func (self Deferred) Run(ctx context.Context) ([]Row, error) {
	return self.query.ExecWithin(ctx, self.target, self.nested, self.suffix)
}

/*
Runs the query on a new goroutine and passes the outcome to `done`, which may
be nil. Returns immediately.
*/
func (self Deferred) Go(ctx context.Context, done func([]Row, error)) {
	go func() {
		rows, err := self.Run(ctx)
		if done != nil {
			done(rows, err)
		}
	}()
}
