package stmt

import (
	"strings"
)

// Renders a `Node` in the canonical form. Panics on invalid input; `Render`
// converts panics to errors.
type renderer struct {
	node   Node
	nested bool
}

// Implement the `Expr` interface, making this a sub-expression.
func (self renderer) AppendExpr(text []byte, args []any) ([]byte, []any) {
	bui := Bui{text, args}
	node := &self.node

	if node.indexes {
		switch node.verb {
		case verbNone, verbSelect:
			self.listIndexes(&bui)
		case verbCreate:
			self.createIndex(&bui)
		case verbDrop:
			self.dropIndex(&bui)
		default:
			panic(errf(ErrCodeInvalidInput, `rendering index statement`, `unsupported verb %v`, node.verb))
		}
		return bui.Get()
	}

	switch node.verb {
	case verbNone, verbSelect:
		self.selectRows(&bui)
	case verbInsert:
		self.insert(&bui)
	case verbUpdate:
		self.update(&bui)
	case verbDelete:
		self.delete(&bui)
	case verbCreate:
		self.createTable(&bui)
	case verbDrop:
		self.dropTable(&bui)
	case verbAlter:
		self.alterTable(&bui)
	}
	return bui.Get()
}

func (self renderer) dialect() Dialect { return self.node.table.dialect }

func (self renderer) selectRows(bui *Bui) {
	node := &self.node
	bui.Str(`select`)
	bui.Expr(Comma(self.selectCols()))
	bui.Str(`from`)
	bui.Expr(node.table)
	for _, table := range node.from {
		bui.Str(`,`)
		bui.Expr(table)
	}
	self.where(bui, true)
	if len(node.order) > 0 {
		bui.Str(`order by`)
		bui.Expr(Comma(self.orderCols()))
	}
	self.dialect().appendLimit(bui, node.limit, node.offset, len(node.order) > 0)
}

func (self renderer) selectCols() []any {
	node := &self.node

	if len(node.cols) == 0 {
		out := node.table.columns(self.nested)
		for _, table := range node.from {
			out = append(out, table.columns(self.nested)...)
		}
		return out
	}

	out := make([]any, len(node.cols))
	for i, val := range node.cols {
		switch val := val.(type) {
		case string:
			out[i] = selectCol(self.colRef(val), self.nested)
		case Col:
			out[i] = selectCol(val, self.nested)
		default:
			out[i] = val
		}
	}
	return out
}

// Resolves "col" against the bound table and "ref.col" against another table
// reference.
func (self renderer) colRef(name string) Col {
	index := strings.LastIndexByte(name, '.')
	if index < 0 {
		return self.node.table.Col(name)
	}
	return Col{Table: name[:index], Name: name[index+1:]}
}

func (self renderer) orderCols() []any {
	out := make([]any, len(self.node.order))
	for i, val := range self.node.order {
		switch val := val.(type) {
		case string:
			out[i] = self.colRef(val)
		case Ord:
			out[i] = ordering{self.colRef(val.Path), val}
		default:
			out[i] = val
		}
	}
	return out
}

/*
Record conditions are qualified by the table reference only in selects, which
may involve several tables. Other statements use bare column names, which every
dialect accepts in `update` and `delete`.
*/
func (self renderer) where(bui *Bui, qualify bool) {
	if len(self.node.where) == 0 {
		return
	}

	table := ``
	if qualify {
		table = self.node.table.Ref()
	}

	var conds And
	for _, val := range self.node.where {
		switch val := val.(type) {
		case Expr:
			conds = append(conds, val)
		default:
			conds = append(conds, recordConds(table, val)...)
		}
	}

	bui.Str(`where`)
	bui.Expr(conds)
}

func (self renderer) returning(bui *Bui) {
	node := &self.node
	if len(node.returning) == 0 {
		return
	}
	if !self.dialect().supportsReturning() {
		panic(unsupported(self.dialect(), `rendering returning clause`, `returning clause`))
	}

	cols := make(Comma, len(node.returning))
	for i, val := range node.returning {
		if str, ok := val.(string); ok {
			cols[i] = Ident(str)
		} else {
			cols[i] = val
		}
	}
	bui.Str(`returning`)
	bui.Expr(cols)
}

func (self renderer) insert(bui *Bui) {
	node := &self.node
	bui.Str(`insert into`)
	bui.Expr(node.table.ident())

	if len(node.rows) == 0 {
		if self.dialect() == MySQL {
			bui.Str(`() values ()`)
		} else {
			bui.Str(`default values`)
		}
	} else {
		cols := make(Comma, len(node.insertCols))
		for i, col := range node.insertCols {
			cols[i] = Ident(col)
		}
		bui.Str(`(`)
		bui.Expr(cols)
		bui.Str(`)`)

		bui.Str(`values`)
		for i, row := range node.rows {
			if i > 0 {
				bui.Str(`,`)
			}
			bui.Str(`(`)
			for j, val := range row {
				if j > 0 {
					bui.Str(`,`)
				}
				bui.SubAny(val)
			}
			bui.Str(`)`)
		}
	}
	self.returning(bui)
}

func (self renderer) update(bui *Bui) {
	node := &self.node
	if len(node.set) == 0 {
		panic(errf(ErrCodeMissingArgument, `rendering update`, `no columns to update`))
	}

	set := make(Comma, len(node.set))
	for i, val := range node.set {
		set[i] = val
	}

	bui.Str(`update`)
	bui.Expr(node.table.ident())
	bui.Str(`set`)
	bui.Expr(set)
	self.where(bui, false)
	self.returning(bui)
}

func (self renderer) delete(bui *Bui) {
	bui.Str(`delete from`)
	bui.Expr(self.node.table.ident())
	self.where(bui, false)
	self.returning(bui)
}

func (self renderer) createTable(bui *Bui) {
	node := &self.node
	if len(node.table.schema.Columns) == 0 {
		panic(errf(ErrCodeMissingArgument, `rendering create table`, `table %q declares no columns`, node.table.Name()))
	}

	defs := make(Comma, len(node.table.schema.Columns))
	for i, col := range node.table.schema.Columns {
		defs[i] = col
	}

	if node.ifNotExists {
		if self.dialect() == MSSQL {
			bui.Str(`if object_id(` + quoteString(node.table.Name()) + `, 'U') is null`)
			bui.Str(`create table`)
		} else {
			bui.Str(`create table if not exists`)
		}
	} else {
		bui.Str(`create table`)
	}

	bui.Expr(node.table.ident())
	bui.Str(`(`)
	bui.Expr(defs)
	bui.Str(`)`)
}

func (self renderer) dropTable(bui *Bui) {
	bui.Str(`drop table`)
	if self.node.ifExists {
		bui.Str(`if exists`)
	}
	bui.Expr(self.node.table.ident())
}

func (self renderer) alterTable(bui *Bui) {
	node := &self.node
	dialect := self.dialect()
	const while = `rendering alter table`

	if len(node.alter) == 0 {
		panic(errf(ErrCodeMissingArgument, while, `no alterations`))
	}
	if dialect == SQLite && len(node.alter) > 1 {
		panic(unsupported(dialect, while, `one alteration per statement`))
	}

	bui.Str(`alter table`)
	bui.Expr(node.table.ident())

	for i, op := range node.alter {
		if i > 0 {
			bui.Str(`,`)
		}

		switch op.kind {
		case alterAdd:
			if dialect == MSSQL {
				bui.Str(`add`)
			} else {
				bui.Str(`add column`)
			}
			bui.Expr(op.col)

		case alterDrop:
			bui.Str(`drop column`)
			bui.Expr(Ident(op.name))

		case alterRename:
			if dialect == MSSQL {
				panic(unsupported(dialect, while, `renaming tables`))
			}
			bui.Str(`rename to`)
			bui.Expr(Ident(op.name))
		}
	}
}

func (self renderer) listIndexes(bui *Bui) {
	bui.Expr(self.dialect().indexesQuery(self.node.table.baseName()))
}

func (self renderer) indexName() string {
	if self.node.indexName != `` {
		return self.node.indexName
	}
	return self.node.table.baseName() + `_` + strings.Join(self.node.indexCols, `_`)
}

func (self renderer) createIndex(bui *Bui) {
	node := &self.node
	dialect := self.dialect()
	const while = `rendering create index`

	if len(node.indexCols) == 0 {
		panic(errf(ErrCodeMissingArgument, while, `no indexed columns`))
	}

	cols := make(Comma, len(node.indexCols))
	for i, col := range node.indexCols {
		cols[i] = Ident(col)
	}

	bui.Str(`create`)
	if node.unique {
		bui.Str(`unique`)
	}
	bui.Str(`index`)
	if node.ifNotExists {
		if !dialect.supportsIndexIfNotExists() {
			panic(unsupported(dialect, while, `"if not exists" for indexes`))
		}
		bui.Str(`if not exists`)
	}
	bui.Expr(Ident(self.indexName()))
	bui.Str(`on`)
	bui.Expr(node.table.ident())
	bui.Str(`(`)
	bui.Expr(cols)
	bui.Str(`)`)
}

func (self renderer) dropIndex(bui *Bui) {
	node := &self.node
	dialect := self.dialect()
	const while = `rendering drop index`

	if node.indexName == `` {
		panic(errf(ErrCodeMissingArgument, while, `missing index name`))
	}

	bui.Str(`drop index`)
	if node.ifExists {
		if dialect == MySQL {
			panic(unsupported(dialect, while, `"if exists" for indexes`))
		}
		bui.Str(`if exists`)
	}
	bui.Expr(Ident(node.indexName))

	if dialect == MySQL || dialect == MSSQL {
		bui.Str(`on`)
		bui.Expr(node.table.ident())
	}
}

func quoteString(val string) string {
	return `'` + strings.ReplaceAll(val, `'`, `''`) + `'`
}
