package stmt

import (
	"fmt"
	"strings"

	"github.com/mitranim/sqlp"
)

/*
Short for "expression". Defines an arbitrary SQL expression. The method appends
arbitrary SQL text. In both the input and output, the arguments must correspond
to the parameters in the SQL text. Different databases support different styles
of ordinal parameters; this package always generates Postgres-style ordinal
parameters such as "$1", renumerating them as necessary, and leaves conversion
to `Dialect`.
*/
type Expr interface {
	AppendExpr([]byte, []any) ([]byte, []any)
}

/*
Shortcut for interpolating strings into queries. Because this implements `Expr`,
when used as an argument in another expression, this will be directly
interpolated into the resulting query string.
*/
type Str string

// Implement the `Expr` interface, making this a sub-expression.
func (self Str) AppendExpr(text []byte, args []any) ([]byte, []any) {
	return appendMaybeSpaced(text, string(self)), args
}

// Implement the `fmt.Stringer` interface for debug purposes.
func (self Str) String() string { return string(self) }

// Represents an SQL identifier, always quoted.
type Ident string

// Implement the `Expr` interface, making this a sub-expression.
func (self Ident) AppendExpr(text []byte, args []any) ([]byte, []any) {
	validateIdent(string(self))
	text = maybeAppendSpace(text)
	text = append(text, quoteDouble)
	text = append(text, self...)
	text = append(text, quoteDouble)
	return text, args
}

// Implement the `fmt.Stringer` interface for debug purposes.
func (self Ident) String() string { return exprString(self) }

/*
Represents a nested SQL identifier where all elements are quoted but not
parenthesized. Useful for schema-qualified table names.
*/
type Identifier []string

// Implement the `Expr` interface, making this a sub-expression.
func (self Identifier) AppendExpr(text []byte, args []any) ([]byte, []any) {
	for i, val := range self {
		if i > 0 {
			text = append(text, `.`...)
		}
		text, args = Ident(val).AppendExpr(text, args)
	}
	return text, args
}

// Implement the `fmt.Stringer` interface for debug purposes.
func (self Identifier) String() string { return exprString(self) }

/*
Represents a column reference, optionally qualified by a table reference and
optionally aliased. The name "*" is rendered unquoted. In nested selects, each
column is aliased as "<table>.<column>", which allows consumers to rebuild
nested objects from flat rows.
*/
type Col struct {
	Table string
	Name  string
	Alias string
}

// Implement the `Expr` interface, making this a sub-expression.
func (self Col) AppendExpr(text []byte, args []any) ([]byte, []any) {
	bui := Bui{text, args}
	if self.Table != `` {
		bui.Expr(Identifier(splitPath(self.Table)))
		bui.Text = append(bui.Text, `.`...)
	}
	if self.Name == `*` {
		bui.Str(`*`)
	} else {
		bui.Expr(Ident(self.Name))
	}
	if self.Alias != `` {
		bui.Str(`as`)
		bui.Expr(Ident(self.Alias))
	}
	return bui.Get()
}

// Implement the `fmt.Stringer` interface for debug purposes.
func (self Col) String() string { return exprString(self) }

// Returns a copy with the given output alias.
func (self Col) As(alias string) Col {
	self.Alias = alias
	return self
}

// Returns a copy aliased as "<table>.<column>", unless already aliased.
func (self Col) Nested() Col {
	if self.Alias == `` && self.Table != `` && self.Name != `*` {
		self.Alias = self.Table + `.` + self.Name
	}
	return self
}

/*
Represents an SQL assignment such as `"some_col" = arbitrary_expression`. The
LHS must be a column name, while the RHS can be an `Expr` instance or an
arbitrary argument.
*/
type Assign struct {
	Lhs Ident
	Rhs any
}

// Implement the `Expr` interface, making this a sub-expression.
func (self Assign) AppendExpr(text []byte, args []any) ([]byte, []any) {
	bui := Bui{text, args}
	bui.Expr(self.Lhs)
	bui.Str(`=`)
	bui.SubAny(self.Rhs)
	return bui.Get()
}

/*
Short for "equal". Represents SQL equality such as `A = B` or `A is null`.
Counterpart to `Neq`.
*/
type Eq [2]any

// Implement the `Expr` interface, making this a sub-expression.
func (self Eq) AppendExpr(text []byte, args []any) ([]byte, []any) {
	bui := Bui{text, args}
	bui.SubAny(self[0])

	val := norm(self[1])
	if val == nil {
		bui.Str(`is null`)
		return bui.Get()
	}

	bui.Str(`=`)
	bui.SubAny(val)
	return bui.Get()
}

// Implement the `fmt.Stringer` interface for debug purposes.
func (self Eq) String() string { return exprString(self) }

/*
Short for "not equal". Represents SQL non-equality such as `A <> B` or
`A is not null`. Counterpart to `Eq`.
*/
type Neq [2]any

// Implement the `Expr` interface, making this a sub-expression.
func (self Neq) AppendExpr(text []byte, args []any) ([]byte, []any) {
	bui := Bui{text, args}
	bui.SubAny(self[0])

	val := norm(self[1])
	if val == nil {
		bui.Str(`is not null`)
		return bui.Get()
	}

	bui.Str(`<>`)
	bui.SubAny(val)
	return bui.Get()
}

// Implement the `fmt.Stringer` interface for debug purposes.
func (self Neq) String() string { return exprString(self) }

// Represents an arbitrary binary comparison such as `A > B` or `A like B`.
type Cmp struct {
	Lhs any
	Op  string
	Rhs any
}

// Implement the `Expr` interface, making this a sub-expression.
func (self Cmp) AppendExpr(text []byte, args []any) ([]byte, []any) {
	if strings.TrimSpace(self.Op) == `` {
		panic(errf(ErrCodeInvalidInput, `rendering comparison`, `missing operator`))
	}
	bui := Bui{text, args}
	bui.SubAny(self.Lhs)
	bui.Str(self.Op)
	bui.SubAny(self.Rhs)
	return bui.Get()
}

/*
Represents `A in (B, C, ...)`. Each value becomes a separate parameter, which
works identically across dialects. An empty list renders a condition that is
always false.
*/
type In struct {
	Lhs  any
	Vals []any
}

// Implement the `Expr` interface, making this a sub-expression.
func (self In) AppendExpr(text []byte, args []any) ([]byte, []any) {
	bui := Bui{text, args}
	if len(self.Vals) == 0 {
		bui.Str(`1 = 0`)
		return bui.Get()
	}
	bui.SubAny(self.Lhs)
	bui.Str(`in (`)
	for i, val := range self.Vals {
		if i > 0 {
			bui.Str(`,`)
		}
		bui.SubAny(val)
	}
	bui.Str(`)`)
	return bui.Get()
}

// Represents SQL logical negation such as `not A`.
type Not [1]any

// Implement the `Expr` interface, making this a sub-expression.
func (self Not) AppendExpr(text []byte, args []any) ([]byte, []any) {
	bui := Bui{text, args}
	bui.Str(`not`)
	bui.SubAny(self[0])
	return bui.Get()
}

/*
Represents a sequence of arbitrary sub-expressions or arguments, joined with a
customizable delimiter, with a customizable fallback in case of empty list.
This is mostly an internal tool for building other sequences, such as `And` and
`Or`.
*/
type Seq struct {
	Empty string
	Delim string
	Vals  []any
}

// Implement the `Expr` interface, making this a sub-expression.
func (self Seq) AppendExpr(text []byte, args []any) ([]byte, []any) {
	bui := Bui{text, args}

	switch len(self.Vals) {
	case 0:
		bui.Str(self.Empty)
	case 1:
		bui.Any(self.Vals[0])
	default:
		for i, val := range self.Vals {
			if i > 0 {
				bui.Str(self.Delim)
			}
			bui.SubAny(val)
		}
	}
	return bui.Get()
}

// Represents a comma-separated list of arbitrary sub-expressions or arguments.
type Comma []any

// Implement the `Expr` interface, making this a sub-expression.
func (self Comma) AppendExpr(text []byte, args []any) ([]byte, []any) {
	bui := Bui{text, args}
	for i, val := range self {
		if i > 0 {
			bui.Str(`,`)
		}
		bui.Any(val)
	}
	return bui.Get()
}

/*
Represents a sequence of sub-expressions or arguments joined by the SQL `and`
operator. An empty list renders a condition that is always true.
*/
type And []any

// Implement the `Expr` interface, making this a sub-expression.
func (self And) AppendExpr(text []byte, args []any) ([]byte, []any) {
	return Seq{`1 = 1`, `and`, self}.AppendExpr(text, args)
}

// Implement the `fmt.Stringer` interface for debug purposes.
func (self And) String() string { return exprString(self) }

/*
Represents a sequence of sub-expressions or arguments joined by the SQL `or`
operator. An empty list renders a condition that is always false.
*/
type Or []any

// Implement the `Expr` interface, making this a sub-expression.
func (self Or) AppendExpr(text []byte, args []any) ([]byte, []any) {
	return Seq{`1 = 0`, `or`, self}.AppendExpr(text, args)
}

// Implement the `fmt.Stringer` interface for debug purposes.
func (self Or) String() string { return exprString(self) }

// Represents an arbitrary sub-expression wrapped in parens.
type Parens [1]Expr

// Implement the `Expr` interface, making this a sub-expression.
func (self Parens) AppendExpr(text []byte, args []any) ([]byte, []any) {
	bui := Bui{text, args}
	bui.SubExpr(self[0])
	return bui.Get()
}

// Combines an expression with a string prefix. If the expr is nil, this is a
// nop.
type Prefix struct {
	Prefix string
	Expr   Expr
}

// Implement the `Expr` interface, making this a sub-expression.
func (self Prefix) AppendExpr(text []byte, args []any) ([]byte, []any) {
	if self.Expr == nil {
		return text, args
	}
	bui := Bui{text, args}
	bui.Str(self.Prefix)
	bui.Expr(self.Expr)
	return bui.Get()
}

// Ascending ordering for `Node.OrderBy`. Strings are column names.
type Asc [1]any

// Implement the `Expr` interface, making this a sub-expression.
func (self Asc) AppendExpr(text []byte, args []any) ([]byte, []any) {
	bui := Bui{text, args}
	bui.Any(orderOperand(self[0]))
	bui.Str(`asc`)
	return bui.Get()
}

// Descending ordering for `Node.OrderBy`. Strings are column names.
type Desc [1]any

// Implement the `Expr` interface, making this a sub-expression.
func (self Desc) AppendExpr(text []byte, args []any) ([]byte, []any) {
	bui := Bui{text, args}
	bui.Any(orderOperand(self[0]))
	bui.Str(`desc`)
	return bui.Get()
}

func orderOperand(val any) any {
	if str, ok := val.(string); ok {
		return Ident(str)
	}
	return val
}

/*
Represents raw SQL text with ordinal parameters "$1", "$2", ..., "$N" and the
corresponding arguments. When appended to another expression, the parameters
are renumbered to follow the arguments already present. Quoted text and
comments are left untouched. Named parameters are rejected.
*/
type Raw struct {
	Text string
	Args []any
}

// Implement the `Expr` interface, making this a sub-expression.
func (self Raw) AppendExpr(text []byte, args []any) ([]byte, []any) {
	const while = `appending raw SQL`

	offset := len(args)
	args = append(args, self.Args...)
	text = maybeAppendSpace(text)
	tokenizer := sqlp.Tokenizer{Source: self.Text}

	for {
		node := tokenizer.Next()
		if node == nil {
			break
		}

		switch node := node.(type) {
		case sqlp.NodeOrdinalParam:
			if int(node) < 1 || int(node) > len(self.Args) {
				panic(errf(ErrCodeOrdinalOutOfBounds, while, `parameter $%v with %v arguments`, int(node), len(self.Args)))
			}
			sqlp.NodeOrdinalParam(int(node) + offset).Append(&text)

		case sqlp.NodeNamedParam:
			panic(errf(ErrCodeUnexpectedParameter, while, `expected only ordinal params, got named param %q`, string(node)))

		default:
			node.Append(&text)
		}
	}
	return text, args
}

// Implement the `fmt.Stringer` interface for debug purposes.
func (self Raw) String() string { return self.Text }

/*
Represents raw SQL text with named parameters such as ":id" and a map of
arguments. Each distinct name becomes one ordinal parameter. A named parameter
without a matching argument is an error. Ordinal parameters are rejected.
*/
type Named struct {
	Text string
	Args map[string]any
}

// Implement the `Expr` interface, making this a sub-expression.
func (self Named) AppendExpr(text []byte, args []any) ([]byte, []any) {
	const while = `appending named SQL`

	text = maybeAppendSpace(text)
	tokenizer := sqlp.Tokenizer{Source: self.Text}
	seen := make(map[sqlp.NodeNamedParam]sqlp.NodeOrdinalParam, len(self.Args))

	for {
		node := tokenizer.Next()
		if node == nil {
			break
		}

		switch node := node.(type) {
		case sqlp.NodeOrdinalParam:
			panic(errf(ErrCodeUnexpectedParameter, while, `expected only named params, got ordinal param $%v`, int(node)))

		case sqlp.NodeNamedParam:
			ord, ok := seen[node]
			if !ok {
				arg, found := self.Args[string(node)]
				if !found {
					panic(errf(ErrCodeMissingArgument, while, `missing named argument %q`, string(node)))
				}
				args = append(args, arg)
				ord = sqlp.NodeOrdinalParam(len(args))
				seen[node] = ord
			}
			ord.Append(&text)

		default:
			node.Append(&text)
		}
	}
	return text, args
}

func exprString(val Expr) string {
	text, _ := val.AppendExpr(nil, nil)
	return string(text)
}

func exprPanic(while string, val any) Err {
	return Err{
		Code:  ErrCodeInvalidInput,
		While: while,
		Cause: fmt.Errorf(`unsupported value of type %v`, typeName(val)),
	}
}
