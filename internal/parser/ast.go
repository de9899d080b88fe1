package parser

// Node is a lowered Python syntax node. The variant set is closed: only the
// types declared in this file implement Node, and Extract handles each of them.
type Node interface {
	pyNode()
}

// Module is the root of a parsed unit.
type Module struct {
	Body []Node
}

// FunctionDef is a def or async def statement.
type FunctionDef struct {
	Name string
	Args *Arguments
	Body []Node
}

// ClassDef is a class statement. Bases and decorators are not kept.
type ClassDef struct {
	Name string
	Body []Node
}

// Arguments holds the positional parameter names of a function.
type Arguments struct {
	Names []string
}

// Return is a return statement. Value is nil for a bare return.
type Return struct {
	Value Node
}

// Tuple is a tuple literal, a bare comma list, or a tuple assignment target.
type Tuple struct {
	Elts []Node
}

// Import is `import a, b.c as d`. Names holds canonical module names only.
type Import struct {
	Names []string
}

// ImportFrom is `from module import a, b as c`. Module is empty for a purely
// relative import such as `from . import a`.
type ImportFrom struct {
	Module string
	Names  []string
}

// Assign is a plain (possibly chained) assignment.
type Assign struct {
	Targets []Node
	Value   Node
}

// AssignName is a bare name used as an assignment target.
type AssignName struct {
	Name string
}

// AssignAttr is an attribute used as an assignment target (obj.attr = ...).
type AssignAttr struct {
	Attr string
}

// Call is a call expression.
type Call struct {
	Func     Node
	Args     []Node
	Keywords []*Keyword
}

// Keyword is a keyword argument in a call.
type Keyword struct {
	Arg   string
	Value Node
}

// Name is a name used in an expression.
type Name struct {
	Name string
}

// Expr is an expression used as a statement.
type Expr struct {
	Value Node
}

// Attribute is an attribute access expression (obj.attr).
type Attribute struct {
	Attr  string
	Value Node
}

// Compound is a control-flow statement (if, for, while, with, try) that
// exposes a nested statement sequence but contributes no identifiers itself.
type Compound struct {
	Kind string
	Body []Node
}

// Other is any construct that contributes no identifiers.
type Other struct {
	Kind string
}

func (*Module) pyNode()      {}
func (*FunctionDef) pyNode() {}
func (*ClassDef) pyNode()    {}
func (*Arguments) pyNode()   {}
func (*Return) pyNode()      {}
func (*Tuple) pyNode()       {}
func (*Import) pyNode()      {}
func (*ImportFrom) pyNode()  {}
func (*Assign) pyNode()      {}
func (*AssignName) pyNode()  {}
func (*AssignAttr) pyNode()  {}
func (*Call) pyNode()        {}
func (*Keyword) pyNode()     {}
func (*Name) pyNode()        {}
func (*Expr) pyNode()        {}
func (*Attribute) pyNode()   {}
func (*Compound) pyNode()    {}
func (*Other) pyNode()       {}

// Body returns the nested statement sequence of n, if it has one.
func Body(n Node) ([]Node, bool) {
	switch n := n.(type) {
	case *Module:
		return n.Body, true
	case *FunctionDef:
		return n.Body, true
	case *ClassDef:
		return n.Body, true
	case *Compound:
		return n.Body, true
	default:
		return nil, false
	}
}
