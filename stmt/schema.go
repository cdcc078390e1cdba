package stmt

// Describes one table column. `Type` and `Default` are raw SQL.
type Column struct {
	Name       string `json:"name"                 mapstructure:"name"`
	Type       string `json:"type,omitempty"       mapstructure:"type"`
	PrimaryKey bool   `json:"primaryKey,omitempty" mapstructure:"primaryKey"`
	NotNull    bool   `json:"notNull,omitempty"    mapstructure:"notNull"`
	Unique     bool   `json:"unique,omitempty"     mapstructure:"unique"`
	Default    string `json:"default,omitempty"    mapstructure:"default"`
}

/*
Declares a table: a name, optionally schema-qualified such as
"information_schema.tables", and its columns. Columns without types are enough
for selecting, inserting and updating; creating a table requires types.
*/
type Schema struct {
	Name    string   `json:"name"    mapstructure:"name"`
	Columns []Column `json:"columns" mapstructure:"columns"`
}

// Shortcut for declaring untyped columns by name.
func Cols(names ...string) []Column {
	out := make([]Column, len(names))
	for i, name := range names {
		out[i].Name = name
	}
	return out
}

// Returns the column names in declaration order.
func (self Schema) ColumnNames() []string {
	out := make([]string, len(self.Columns))
	for i, col := range self.Columns {
		out[i] = col.Name
	}
	return out
}

// True if the schema declares a column with this name.
func (self Schema) HasColumn(name string) bool {
	_, ok := self.Column(name)
	return ok
}

// Finds a declared column by name.
func (self Schema) Column(name string) (Column, bool) {
	for _, col := range self.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

func (self Column) AppendExpr(text []byte, args []any) ([]byte, []any) {
	if self.Type == `` {
		panic(errf(ErrCodeMissingArgument, `rendering column definition`, `missing type for column %q`, self.Name))
	}
	bui := Bui{text, args}
	bui.Expr(Ident(self.Name))
	bui.Str(self.Type)
	if self.PrimaryKey {
		bui.Str(`primary key`)
	}
	if self.NotNull {
		bui.Str(`not null`)
	}
	if self.Unique {
		bui.Str(`unique`)
	}
	if self.Default != `` {
		bui.Str(`default`)
		bui.Str(self.Default)
	}
	return bui.Get()
}
