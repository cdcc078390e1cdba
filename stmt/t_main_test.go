package stmt

import (
	"errors"
	r "reflect"
	"testing"
)

// Short for "reified".
type R struct {
	Text string
	Args []any
}

/*
We don't really care about the difference between nil and zero-length arg
lists.
*/
func (self R) Norm() R {
	if self.Args == nil {
		self.Args = []any{}
	}
	return self
}

func rei(text string, args ...any) R { return R{text, args}.Norm() }

func reify(t testing.TB, vals ...Expr) R {
	t.Helper()
	text, args, err := Reify(vals...)
	if err != nil {
		t.Fatalf(`unexpected error: %+v`, err)
	}
	return R{text, args}.Norm()
}

func testExpr(t testing.TB, exp R, vals ...Expr) {
	t.Helper()
	eq(t, exp, reify(t, vals...))
}

func testExprErr(t testing.TB, exp error, vals ...Expr) {
	t.Helper()
	_, _, err := Reify(vals...)
	isErr(t, exp, err)
}

func render(t testing.TB, node Node, nested bool) R {
	t.Helper()
	query, err := node.Render(nested)
	if err != nil {
		t.Fatalf(`unexpected error: %+v`, err)
	}
	return R{query.Text, query.Values}.Norm()
}

func testNode(t testing.TB, exp R, node Node) {
	t.Helper()
	eq(t, exp, render(t, node, false))
}

func testNodeErr(t testing.TB, exp error, node Node) {
	t.Helper()
	_, err := node.Render(false)
	isErr(t, exp, err)
}

func isErr(t testing.TB, exp, act error) {
	t.Helper()
	if act == nil {
		t.Fatalf(`expected error %v, got nil`, exp)
	}
	if !errors.Is(act, exp) {
		t.Fatalf(`
expected error matching:
	%v
actual error:
	%v
`, exp, act)
	}
}

func eq(t testing.TB, exp, act any) {
	t.Helper()
	if !r.DeepEqual(exp, act) {
		t.Fatalf(`
expected (detailed):
	%#[1]v
actual (detailed):
	%#[2]v
expected (simple):
	%[1]v
actual (simple):
	%[2]v
`, exp, act)
	}
}

var (
	tabTables = NewTable(Schema{
		Name:    `tables`,
		Columns: Cols(`table_name`, `table_type`),
	}, Postgres)

	tabUsers = NewTable(Schema{
		Name: `users`,
		Columns: []Column{
			{Name: `id`, Type: `serial`, PrimaryKey: true},
			{Name: `name`, Type: `text`, NotNull: true, Default: `''`},
		},
	}, Postgres)
)

func inDialect(table Table, dialect Dialect) Table {
	return NewTable(table.Schema(), dialect)
}

type User struct {
	Id      int    `db:"id"`
	Name    string `db:"name"`
	Skipped string `db:"-"`
	Ignored string
}
