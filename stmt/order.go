package stmt

import (
	"regexp"
	"strings"
)

// Sort direction of `Ord`.
type Dir uint8

const (
	DirNone Dir = iota
	DirAsc
	DirDesc
)

// Implement `fmt.Stringer`.
func (self Dir) String() string {
	switch self {
	case DirAsc:
		return `asc`
	case DirDesc:
		return `desc`
	default:
		return ``
	}
}

// Placement of nulls in `Ord`.
type Nulls uint8

const (
	NullsNone Nulls = iota
	NullsFirst
	NullsLast
)

// Implement `fmt.Stringer`.
func (self Nulls) String() string {
	switch self {
	case NullsFirst:
		return `nulls first`
	case NullsLast:
		return `nulls last`
	default:
		return ``
	}
}

/*
One element of an "order by" clause, usually obtained from `ParseOrd`. `Path`
is a column name, or "ref.col" for a column of another table reference. When
passed to `Node.OrderBy`, the path is resolved like a selected column. MySQL
and SQL Server don't support `Nulls`.
*/
type Ord struct {
	Path  string
	Dir   Dir
	Nulls Nulls
}

// Implement the `Expr` interface, making this a sub-expression.
func (self Ord) AppendExpr(text []byte, args []any) ([]byte, []any) {
	return ordering{Identifier(strings.Split(self.Path, `.`)), self}.AppendExpr(text, args)
}

// Implement the `fmt.Stringer` interface for debug purposes.
func (self Ord) String() string { return exprString(self) }

type ordering struct {
	expr Expr
	ord  Ord
}

func (self ordering) AppendExpr(text []byte, args []any) ([]byte, []any) {
	bui := Bui{text, args}
	bui.Expr(self.expr)
	if self.ord.Dir != DirNone {
		bui.Str(self.ord.Dir.String())
	}
	if self.ord.Nulls != NullsNone {
		bui.Str(self.ord.Nulls.String())
	}
	return bui.Get()
}

var ordReg = regexp.MustCompile(
	`^\s*((?:\w+\.)?\w+)(?i)(?:\s+(asc|desc))?(?:\s+nulls\s+(first|last))?\s*$`,
)

/*
Parses an ordering from text, typically from user input such as a URL query or
a CLI flag:

	<column> <asc|desc>? <nulls first | nulls last>?

The column may be qualified by one table reference: "ref.col". Keywords are
case-insensitive.
*/
func ParseOrd(src string) (Ord, error) {
	match := ordReg.FindStringSubmatch(src)
	if match == nil {
		return Ord{}, errf(ErrCodeInvalidInput, `parsing ordering`, `expected "<column> <asc|desc>? <nulls first|last>?", got %q`, src)
	}

	return Ord{
		Path:  match[1],
		Dir:   strDir(match[2]),
		Nulls: strNulls(match[3]),
	}, nil
}

/*
Parses several orderings, skipping empty strings. When the schema declares
columns, unqualified paths must name one of them; this allows passing untrusted
input to `Node.OrderBy`.
*/
func ParseOrds(schema Schema, src ...string) ([]any, error) {
	out := make([]any, 0, len(src))
	for _, val := range src {
		if strings.TrimSpace(val) == `` {
			continue
		}

		ord, err := ParseOrd(val)
		if err != nil {
			return nil, err
		}

		if len(schema.Columns) > 0 && !strings.Contains(ord.Path, `.`) && !schema.HasColumn(ord.Path) {
			return nil, errf(ErrCodeInvalidInput, `parsing ordering`, `unknown column %q of table %q`, ord.Path, schema.Name)
		}
		out = append(out, ord)
	}
	return out, nil
}

func strDir(val string) Dir {
	if strings.EqualFold(val, `asc`) {
		return DirAsc
	}
	if strings.EqualFold(val, `desc`) {
		return DirDesc
	}
	return DirNone
}

func strNulls(val string) Nulls {
	if strings.EqualFold(val, `first`) {
		return NullsFirst
	}
	if strings.EqualFold(val, `last`) {
		return NullsLast
	}
	return NullsNone
}
