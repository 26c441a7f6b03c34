package parser

import (
	exprparser "github.com/expr-lang/expr/parser"

	"github.com/ardnew/tmplc/syntax"
)

// Func parses template source into an [AST]. path is empty when the source
// has no file of origin.
type Func func(source, path string, s syntax.Syntax) (*AST, error)

// AST is the parsed form of one template. It is never modified after [Parse]
// returns and may be shared freely.
type AST struct {
	Path   string
	Syntax syntax.Syntax
	Nodes  []Node
	// Deps lists the include, extends, and import targets in source order.
	Deps []Dep
}

// Pos is a location in template source. Line and Column are 1-based; Column
// counts runes.
type Pos struct {
	Offset int
	Line   int
	Column int
}

// Position returns p. Embedding Pos gives every node a Position method.
func (p Pos) Position() Pos { return p }

// Node is one element of a template body.
type Node interface {
	Position() Pos
	node()
}

// Marker is a whitespace-control character written directly inside a tag
// delimiter, as in "{%-" or "~}}".
type Marker byte

const (
	MarkNone     Marker = 0
	MarkPreserve Marker = '+'
	MarkSuppress Marker = '-'
	MarkMinimize Marker = '~'
)

// Apply returns the whitespace policy selected by m, or def when m is
// [MarkNone].
func (m Marker) Apply(def syntax.Whitespace) syntax.Whitespace {
	switch m {
	case MarkPreserve:
		return syntax.Preserve
	case MarkSuppress:
		return syntax.Suppress
	case MarkMinimize:
		return syntax.Minimize
	default:
		return def
	}
}

func (m Marker) String() string {
	if m == MarkNone {
		return ""
	}

	return string(rune(m))
}

// Ws holds the markers on the inner side of a tag's opening (Left) and
// closing (Right) delimiters.
type Ws struct {
	Left  Marker
	Right Marker
}

// Expression is an expression body with its parsed tree.
type Expression struct {
	Source string
	Tree   *exprparser.Tree
}

// Text is literal template content.
type Text struct {
	Pos
	Value string
}

// Comment is the body of a comment tag.
type Comment struct {
	Pos
	Ws    Ws
	Value string
}

// Expr is an expression tag such as "{{ user.name | upper }}".
type Expr struct {
	Pos
	Ws Ws
	Expression
}

// Cond is one arm of an [If]. Cond is nil for the else arm.
type Cond struct {
	Pos
	Ws   Ws
	Cond *Expression
	Body []Node
}

// If is an if/elif/else chain.
type If struct {
	Pos
	Arms  []Cond
	EndWs Ws
}

// For is a loop over an iterable expression with an optional else body.
type For struct {
	Pos
	Ws     Ws
	Vars   []string
	Iter   Expression
	Body   []Node
	Else   []Node
	ElseWs Ws
	EndWs  Ws
}

// Block is a named, overridable region.
type Block struct {
	Pos
	Ws    Ws
	Name  string
	Body  []Node
	EndWs Ws
}

// Macro is a named, parameterized region.
type Macro struct {
	Pos
	Ws     Ws
	Name   string
	Params []string
	Body   []Node
	EndWs  Ws
}

// Filter applies a filter expression to its rendered body.
type Filter struct {
	Pos
	Ws     Ws
	Filter Expression
	Body   []Node
	EndWs  Ws
}

// Set binds a name to an expression value.
type Set struct {
	Pos
	Ws    Ws
	Name  string
	Value Expression
}

// Dep is an include, extends, or import statement naming another template.
type Dep struct {
	Pos
	Ws     Ws
	Kind   string
	Target string
	Alias  string
}

// Control is a loop control statement: break or continue.
type Control struct {
	Pos
	Ws   Ws
	Kind string
}

func (Text) node()    {}
func (Comment) node() {}
func (Expr) node()    {}
func (If) node()      {}
func (For) node()     {}
func (Block) node()   {}
func (Macro) node()   {}
func (Filter) node()  {}
func (Set) node()     {}
func (Dep) node()     {}
func (Control) node() {}
