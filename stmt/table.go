package stmt

/*
A declared table bound to a dialect. Immutable: `As` returns a modified copy.
Every query-producing method returns a fresh `Node` bound to this table.
Renders as the table name, followed by the alias when one is set.
*/
type Table struct {
	schema  Schema
	alias   string
	dialect Dialect
}

// Declares a table.
func NewTable(schema Schema, dialect Dialect) Table {
	return Table{schema: schema, dialect: dialect}
}

func (self Table) Name() string     { return self.schema.Name }
func (self Table) Alias() string    { return self.alias }
func (self Table) Schema() Schema   { return self.schema }
func (self Table) Dialect() Dialect { return self.dialect }

// Name used to qualify columns: the alias if any, otherwise the table name.
func (self Table) Ref() string {
	if self.alias != `` {
		return self.alias
	}
	return self.schema.Name
}

// Returns a copy of the table under a different alias.
func (self Table) As(alias string) Table {
	self.alias = alias
	return self
}

// Column reference qualified by `Ref`.
func (self Table) Col(name string) Col { return Col{Table: self.Ref(), Name: name} }

// Qualified "*".
func (self Table) Star() Col { return self.Col(`*`) }

// Returns a fresh statement bound to this table without any clauses. Renders
// as a select of every column.
func (self Table) Node() Node { return Node{table: self, limit: -1} }

func (self Table) Select(cols ...any) Node   { return self.Node().Select(cols...) }
func (self Table) From(tables ...Table) Node { return self.Node().From(tables...) }
func (self Table) Insert(vals ...any) Node   { return self.Node().Insert(vals...) }
func (self Table) Update(val any) Node       { return self.Node().Update(val) }
func (self Table) Delete() Node              { return self.Node().Delete() }
func (self Table) Create() Node              { return self.Node().Create() }
func (self Table) Drop() Node                { return self.Node().Drop() }
func (self Table) Alter() Node               { return self.Node().Alter() }
func (self Table) Where(conds ...any) Node   { return self.Node().Where(conds...) }
func (self Table) Indexes() Node             { return self.Node().Indexes() }

// Implement the `Expr` interface, making this a sub-expression.
func (self Table) AppendExpr(text []byte, args []any) ([]byte, []any) {
	bui := Bui{text, args}
	bui.Expr(self.ident())
	if self.alias != `` {
		bui.Str(`as`)
		bui.Expr(Ident(self.alias))
	}
	return bui.Get()
}

// Implement the `fmt.Stringer` interface for debug purposes.
func (self Table) String() string { return exprString(self) }

func (self Table) ident() Identifier {
	if self.schema.Name == `` {
		panic(errf(ErrCodeMissingArgument, `rendering table`, `missing table name`))
	}
	return Identifier(splitPath(self.schema.Name))
}

// Unqualified table name, without a schema prefix.
func (self Table) baseName() string {
	path := splitPath(self.schema.Name)
	return path[len(path)-1]
}

func (self Table) columns(nested bool) []any {
	if len(self.schema.Columns) == 0 {
		return []any{self.Star()}
	}
	out := make([]any, len(self.schema.Columns))
	for i, col := range self.schema.Columns {
		out[i] = selectCol(self.Col(col.Name), nested)
	}
	return out
}

func selectCol(val Col, nested bool) Col {
	if nested {
		return val.Nested()
	}
	return val
}
