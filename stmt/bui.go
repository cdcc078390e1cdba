package stmt

import "strconv"

/*
Short for "builder". Tiny shortcut for building SQL expressions. Used internally
by every `Expr` implementation in this package. Text is always rendered in the
canonical form: double-quoted identifiers and ordinal parameters "$1", "$2",
..., "$N". Conversion to other placeholder styles happens once, at the end,
via `Dialect.Rewrite`.
*/
type Bui struct {
	Text []byte
	Args []any
}

// Returns text and args as-is. Useful shortcut for passing them to
// `AppendExpr`.
func (self Bui) Get() ([]byte, []any) {
	return self.Text, self.Args
}

// Replaces text and args with the inputs.
func (self *Bui) Set(text []byte, args []any) {
	self.Text = text
	self.Args = args
}

// Shortcut for `self.String(), self.Args`.
func (self Bui) Reify() (string, []any) {
	return self.String(), self.Args
}

// Returns inner text as a string.
func (self Bui) String() string { return string(self.Text) }

// Adds a space if the preceding text doesn't already end with a terminator.
func (self *Bui) Space() {
	self.Text = maybeAppendSpace(self.Text)
}

// Appends the provided string, delimiting it from the previous text with a
// space if necessary.
func (self *Bui) Str(val string) {
	self.Text = appendMaybeSpaced(self.Text, val)
}

// Appends a literal integer without a parameter.
func (self *Bui) Int(val int64) {
	self.Space()
	self.Text = strconv.AppendInt(self.Text, val, 10)
}

/*
Appends an expression, delimited from the preceding text by a space, if
necessary. Nil input is a nop: nothing will be appended.
*/
func (self *Bui) Expr(val Expr) {
	if val != nil {
		self.Space()
		self.Set(val.AppendExpr(self.Get()))
	}
}

// Appends a sub-expression wrapped in parens. Nil input is a nop.
func (self *Bui) SubExpr(val Expr) {
	if val != nil {
		self.Str(`(`)
		self.Expr(val)
		self.Str(`)`)
	}
}

// Appends each expr by calling `(*Bui).Expr`.
func (self *Bui) Exprs(vals ...Expr) {
	for _, val := range vals {
		self.Expr(val)
	}
}

// Same as `(*Bui).Exprs` but catches panics. Many exprs in this package panic
// on invalid input; this converts them to errors.
func (self *Bui) CatchExprs(vals ...Expr) (err error) {
	defer rec(&err)
	self.Exprs(vals...)
	return
}

/*
Appends an argument to `.Args` and a corresponding ordinal parameter to
`.Text`.
*/
func (self *Bui) Arg(val any) {
	self.Args = append(self.Args, val)
	self.Space()
	self.Text = append(self.Text, ordinalParamPrefix)
	self.Text = strconv.AppendInt(self.Text, int64(len(self.Args)), 10)
}

/*
Appends an arbitrary value. If the value implements `Expr`, this calls
`(*Bui).Expr`. Otherwise appends an argument and the corresponding ordinal
parameter.
*/
func (self *Bui) Any(val any) {
	impl, _ := val.(Expr)
	if impl != nil {
		self.Expr(impl)
		return
	}
	self.Arg(val)
}

/*
Like `(*Bui).Any`, but if the value implements `Expr`, this uses
`(*Bui).SubExpr` in order to parenthesize the sub-expression. Identifiers are
never parenthesized.
*/
func (self *Bui) SubAny(val any) {
	switch val := val.(type) {
	case Ident, Identifier, Col, Str:
		self.Expr(val.(Expr))
	case Expr:
		self.SubExpr(val)
	default:
		self.Arg(val)
	}
}

/*
Renders the given expressions into a single string and list of args. Panics
during rendering are returned as errors.
*/
func Reify(vals ...Expr) (string, []any, error) {
	var bui Bui
	err := bui.CatchExprs(vals...)
	text, args := bui.Reify()
	return text, args, err
}
