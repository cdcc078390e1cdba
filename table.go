package sequel

import "github.com/mitranim/sequel/stmt"

/*
Table declared via `DB.Define`. Every query-producing method returns a
`Query` bound to the same database. A table doesn't execute anything by itself.
*/
type Table struct {
	table stmt.Table
	db    *DB
}

// Underlying table of the statement builder.
func (self Table) Raw() stmt.Table { return self.table }

func (self Table) DB() *DB                  { return self.db }
func (self Table) Name() string             { return self.table.Name() }
func (self Table) Schema() stmt.Schema      { return self.table.Schema() }
func (self Table) Col(name string) stmt.Col { return self.table.Col(name) }

// Same table under an alias, still bound to the same database.
func (self Table) As(alias string) Table {
	self.table = self.table.As(alias)
	return self
}

func (self Table) Select(cols ...any) Query        { return self.query(self.table.Select(cols...)) }
func (self Table) From(tables ...stmt.Table) Query { return self.query(self.table.From(tables...)) }
func (self Table) Insert(vals ...any) Query        { return self.query(self.table.Insert(vals...)) }
func (self Table) Update(val any) Query            { return self.query(self.table.Update(val)) }
func (self Table) Delete() Query                   { return self.query(self.table.Delete()) }
func (self Table) Create() Query                   { return self.query(self.table.Create()) }
func (self Table) Drop() Query                     { return self.query(self.table.Drop()) }
func (self Table) Alter() Query                    { return self.query(self.table.Alter()) }
func (self Table) Where(conds ...any) Query        { return self.query(self.table.Where(conds...)) }
func (self Table) Indexes() Query                  { return self.query(self.table.Indexes()) }

func (self Table) query(node stmt.Node) Query { return Query{node: node, db: self.db} }
