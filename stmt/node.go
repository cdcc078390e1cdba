package stmt

import "fmt"

type verb uint8

const (
	verbNone verb = iota
	verbSelect
	verbInsert
	verbUpdate
	verbDelete
	verbCreate
	verbDrop
	verbAlter
)

func (self verb) String() string {
	switch self {
	case verbSelect:
		return `select`
	case verbInsert:
		return `insert`
	case verbUpdate:
		return `update`
	case verbDelete:
		return `delete`
	case verbCreate:
		return `create`
	case verbDrop:
		return `drop`
	case verbAlter:
		return `alter`
	default:
		return `none`
	}
}

type alterKind uint8

const (
	alterAdd alterKind = iota + 1
	alterDrop
	alterRename
)

type alterOp struct {
	kind alterKind
	col  Column
	name string
}

/*
Immutable SQL statement bound to one table. Every chain method returns a
modified copy, leaving the receiver untouched, so partially-built statements
can be shared and extended independently. The first invalid input is recorded
and returned by `Render`; later chain calls on a failed node are nops.

A node without a verb renders as a select. `Indexes` switches the node into
index mode, where no verb lists the table's indexes, `Create` creates an index
and `Drop` drops one.
*/
type Node struct {
	table       Table
	verb        verb
	indexes     bool
	cols        []any
	from        []Table
	insertCols  []string
	rows        [][]any
	set         []Assign
	where       []any
	order       []any
	limit       int64
	offset      int64
	returning   []any
	ifExists    bool
	ifNotExists bool
	alter       []alterOp
	indexName   string
	indexCols   []string
	unique      bool
	err         error
}

// Table this statement is bound to.
func (self Node) Table() Table { return self.table }

// First error recorded while building, if any.
func (self Node) Err() error { return self.err }

// True if the statement renders as a select of table rows. Index listings
// don't count.
func (self Node) IsSelect() bool {
	return !self.indexes && (self.verb == verbNone || self.verb == verbSelect)
}

// True if `Limit` was called.
func (self Node) HasLimit() bool { return self.limit >= 0 }

/*
Adds columns to select and marks the statement as a select. Strings name
columns of the bound table; a dotted string such as "other.col" names a column
of another table reference. `Col` and other `Expr` values are used as-is.
Without any columns, every declared column of every table is selected.
*/
func (self Node) Select(cols ...any) Node {
	return self.with(func(node *Node) {
		node.setVerb(verbSelect)
		for _, val := range cols {
			switch val.(type) {
			case string, Expr:
			default:
				panic(exprPanic(`adding select columns`, val))
			}
		}
		node.cols = appendCopy(node.cols, cols...)
	})
}

// Adds more tables to the `from` clause, producing a cross join filtered by
// `Where`.
func (self Node) From(tables ...Table) Node {
	return self.with(func(node *Node) {
		node.from = appendCopy(node.from, tables...)
	})
}

/*
Marks the statement as an insert and adds rows. Each row is a map with string
keys or a struct with `db` tags. Every row must have the same columns as the
first one. Without any rows, inserts a row of defaults.
*/
func (self Node) Insert(vals ...any) Node {
	return self.with(func(node *Node) {
		const while = `adding insert rows`
		node.setVerb(verbInsert)

		for _, val := range vals {
			cols, row := recordOf(while, val)
			if node.insertCols == nil {
				node.insertCols = cols
			} else {
				sameCols(while, node.insertCols, cols)
			}
			node.rows = appendCopy(node.rows, row)
		}
	})
}

// Marks the statement as an update and adds assignments from a map or a struct
// with `db` tags.
func (self Node) Update(val any) Node {
	return self.with(func(node *Node) {
		node.setVerb(verbUpdate)
		cols, vals := recordOf(`adding update assignments`, val)
		set := make([]Assign, len(cols))
		for i, col := range cols {
			set[i] = Assign{Ident(col), vals[i]}
		}
		node.set = appendCopy(node.set, set...)
	})
}

func (self Node) Delete() Node { return self.withVerb(verbDelete) }
func (self Node) Create() Node { return self.withVerb(verbCreate) }
func (self Node) Drop() Node   { return self.withVerb(verbDrop) }
func (self Node) Alter() Node  { return self.withVerb(verbAlter) }

/*
Adds conditions joined with `and`, including conditions from previous calls.
Each condition may be an `Expr`, or a map or struct which becomes a set of
column equalities, where nil values become `is null`.
*/
func (self Node) Where(conds ...any) Node {
	return self.with(func(node *Node) {
		for _, val := range conds {
			if val == nil {
				panic(errf(ErrCodeInvalidInput, `adding conditions`, `unexpected nil condition`))
			}
		}
		node.where = appendCopy(node.where, conds...)
	})
}

// Switches the statement into index mode.
func (self Node) Indexes() Node {
	return self.with(func(node *Node) { node.indexes = true })
}

// Adds ordering. Strings name columns of the bound table, see `Asc` and `Desc`.
func (self Node) OrderBy(vals ...any) Node {
	return self.with(func(node *Node) {
		node.order = appendCopy(node.order, vals...)
	})
}

func (self Node) Limit(val int64) Node {
	return self.with(func(node *Node) {
		if val < 0 {
			panic(errf(ErrCodeInvalidInput, `setting limit`, `negative limit %v`, val))
		}
		node.limit = val
	})
}

func (self Node) Offset(val int64) Node {
	return self.with(func(node *Node) {
		if val < 0 {
			panic(errf(ErrCodeInvalidInput, `setting offset`, `negative offset %v`, val))
		}
		node.offset = val
	})
}

// Adds a `returning` clause to inserts, updates and deletes. Strings are
// column names.
func (self Node) Returning(cols ...any) Node {
	return self.with(func(node *Node) {
		node.returning = appendCopy(node.returning, cols...)
	})
}

func (self Node) IfExists() Node {
	return self.with(func(node *Node) { node.ifExists = true })
}

func (self Node) IfNotExists() Node {
	return self.with(func(node *Node) { node.ifNotExists = true })
}

// Adds a column to an `Alter` statement. The column must have a type.
func (self Node) AddColumn(col Column) Node {
	return self.withAlter(alterOp{kind: alterAdd, col: col})
}

func (self Node) DropColumn(name string) Node {
	return self.withAlter(alterOp{kind: alterDrop, name: name})
}

func (self Node) RenameTo(name string) Node {
	return self.withAlter(alterOp{kind: alterRename, name: name})
}

/*
Sets the name of the index for `Indexes().Create()` and `Indexes().Drop()`.
Created indexes without a name are named after the table and columns.
*/
func (self Node) Named(name string) Node {
	return self.with(func(node *Node) { node.indexName = name })
}

// Sets the indexed columns for `Indexes().Create()`.
func (self Node) On(cols ...string) Node {
	return self.with(func(node *Node) {
		node.indexCols = appendCopy(node.indexCols, cols...)
	})
}

func (self Node) Unique() Node {
	return self.with(func(node *Node) { node.unique = true })
}

/*
Renders the statement in the dialect of its table. In nested mode, selected
table columns are aliased as "<table>.<column>".
*/
func (self Node) Render(nested bool) (Query, error) {
	if self.err != nil {
		return Query{}, self.err
	}

	var bui Bui
	err := bui.CatchExprs(renderer{self, nested})
	if err != nil {
		return Query{}, err
	}

	text, args, err := self.table.dialect.Rewrite(bui.Reify())
	if err != nil {
		return Query{}, err
	}
	return Query{Text: text, Values: args}, nil
}

// Shortcut for `.Render(false)`.
func (self Node) ToQuery() (Query, error) { return self.Render(false) }

// Implement the `fmt.Stringer` interface for debug purposes.
func (self Node) String() string {
	query, err := self.ToQuery()
	if err != nil {
		return err.Error()
	}
	return query.Text
}

func (self Node) with(fun func(*Node)) (out Node) {
	if self.err != nil {
		return self
	}
	out = self
	defer rec(&out.err)
	fun(&out)
	return out
}

func (self Node) withVerb(val verb) Node {
	return self.with(func(node *Node) { node.setVerb(val) })
}

func (self Node) withAlter(op alterOp) Node {
	return self.with(func(node *Node) {
		if node.verb != verbAlter {
			panic(errf(ErrCodeInvalidInput, `adding alter operation`, `expected an alter statement, got %v`, node.verb))
		}
		node.alter = appendCopy(node.alter, op)
	})
}

func (self *Node) setVerb(val verb) {
	if self.verb != verbNone && self.verb != val {
		panic(Err{
			Code:  ErrCodeConflictingVerb,
			While: `setting statement verb`,
			Cause: fmt.Errorf(`statement is already %v, can't become %v`, self.verb, val),
		})
	}
	self.verb = val
}

// Rendered statement: text in the dialect's placeholder style and the values
// bound to its parameters.
type Query struct {
	Text   string
	Values []any
}
