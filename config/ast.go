package config

// Program is the root AST node: an ordered sequence of process and template
// definitions.
type Program struct {
	Definitions []*ProcessDefinition
}

// ProcessDefinition is either a `process NAME { ... }` or a
// `template NAME { ... }` block.
type ProcessDefinition struct {
	Name       string
	IsTemplate bool
	Statements []*Statement
	Line, Col  int
}

// Statement is one `[object.path ->] method.path(args) [label];` entry.
type Statement struct {
	// ObjectPrefix is the dotted path before "->"; nil if absent.
	ObjectPrefix []string
	// Method is the dotted module/method name, e.g. ["net","ipv4","addr"].
	Method []string
	Args   []Expr
	// Label is the explicit label text; HasLabel is false when the
	// statement used the auto-naming rule (label defaults to the last
	// segment of Method at resolution time).
	Label     string
	HasLabel  bool
	Line, Col int
}

// Expr is an argument expression: a string literal, a dotted variable
// reference, or a nested list.
type Expr interface {
	exprNode()
}

// StringExpr is a double-quoted string literal argument.
type StringExpr struct {
	Value string
}

func (StringExpr) exprNode() {}

// VarExpr is a dotted variable reference argument, e.g. `a.b.c`.
type VarExpr struct {
	Path []string
}

func (VarExpr) exprNode() {}

// ListExpr is a `{ expr, expr, ... }` nested list argument.
type ListExpr struct {
	Elems []Expr
}

func (ListExpr) exprNode() {}
