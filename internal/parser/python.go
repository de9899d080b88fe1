package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

func getPythonLanguage() *sitter.Language {
	return python.GetLanguage()
}

// pythonLowerer converts a tree-sitter concrete syntax tree into the closed
// Node variant set. Every string is copied out of source, so the tree can be
// released as soon as lowering returns.
type pythonLowerer struct {
	source []byte
}

func lowerPythonModule(root *sitter.Node, source []byte) *Module {
	l := &pythonLowerer{source: source}
	return &Module{Body: l.statements(root)}
}

func (l *pythonLowerer) statements(block *sitter.Node) []Node {
	if block == nil {
		return nil
	}
	var stmts []Node
	for _, child := range namedChildren(block) {
		stmts = append(stmts, l.statement(child))
	}
	return stmts
}

func (l *pythonLowerer) statement(node *sitter.Node) Node {
	switch node.Type() {
	case "function_definition":
		return &FunctionDef{
			Name: l.fieldContent(node, "name"),
			Args: l.parameters(node.ChildByFieldName("parameters")),
			Body: l.statements(node.ChildByFieldName("body")),
		}

	case "class_definition":
		return &ClassDef{
			Name: l.fieldContent(node, "name"),
			Body: l.statements(node.ChildByFieldName("body")),
		}

	case "decorated_definition":
		if def := node.ChildByFieldName("definition"); def != nil {
			return l.statement(def)
		}
		return &Other{Kind: node.Type()}

	case "return_statement":
		children := namedChildren(node)
		if len(children) == 0 {
			return &Return{}
		}
		return &Return{Value: l.expression(children[0])}

	case "import_statement":
		imp := &Import{}
		for _, child := range namedChildren(node) {
			if name := l.importedName(child); name != "" {
				imp.Names = append(imp.Names, name)
			}
		}
		return imp

	case "import_from_statement", "future_import_statement":
		return l.importFrom(node)

	case "expression_statement":
		return l.expressionStatement(node)

	case "if_statement":
		return &Compound{Kind: node.Type(), Body: l.statements(node.ChildByFieldName("consequence"))}

	case "for_statement", "while_statement", "with_statement", "try_statement":
		return &Compound{Kind: node.Type(), Body: l.statements(node.ChildByFieldName("body"))}

	default:
		return &Other{Kind: node.Type()}
	}
}

func (l *pythonLowerer) importFrom(node *sitter.Node) *ImportFrom {
	imp := &ImportFrom{}

	module := node.ChildByFieldName("module_name")
	switch {
	case module == nil:
		if node.Type() == "future_import_statement" {
			imp.Module = "__future__"
		}
	case module.Type() == "relative_import":
		// The leading dots are dropped; only a named module part is kept.
		if dotted := findChild(module, "dotted_name"); dotted != nil {
			imp.Module = nodeContent(dotted, l.source)
		}
	default:
		imp.Module = nodeContent(module, l.source)
	}

	for _, child := range namedChildren(node) {
		if module != nil && child.StartByte() == module.StartByte() {
			continue
		}
		if name := l.importedName(child); name != "" {
			imp.Names = append(imp.Names, name)
		}
	}
	return imp
}

// importedName returns the canonical name of an import clause, ignoring any
// alias. Wildcards and other clauses yield "".
func (l *pythonLowerer) importedName(node *sitter.Node) string {
	switch node.Type() {
	case "dotted_name":
		return nodeContent(node, l.source)
	case "aliased_import":
		return l.fieldContent(node, "name")
	default:
		return ""
	}
}

func (l *pythonLowerer) expressionStatement(node *sitter.Node) Node {
	children := namedChildren(node)
	switch len(children) {
	case 0:
		return &Other{Kind: node.Type()}
	case 1:
	default:
		tuple := &Tuple{}
		for _, child := range children {
			tuple.Elts = append(tuple.Elts, l.expression(child))
		}
		return &Expr{Value: tuple}
	}

	inner := children[0]
	switch inner.Type() {
	case "assignment":
		return l.assignment(inner)
	case "augmented_assignment":
		return &Other{Kind: inner.Type()}
	default:
		return &Expr{Value: l.expression(inner)}
	}
}

// assignment flattens chained assignments (a = b = value) into one Assign.
// Annotated assignments are not plain assignments and contribute nothing.
func (l *pythonLowerer) assignment(node *sitter.Node) Node {
	if node.ChildByFieldName("type") != nil {
		return &Other{Kind: "annotated_assignment"}
	}

	assign := &Assign{}
	current := node
	for {
		if left := current.ChildByFieldName("left"); left != nil {
			assign.Targets = append(assign.Targets, l.target(left))
		}
		right := current.ChildByFieldName("right")
		if right != nil && right.Type() == "assignment" && right.ChildByFieldName("type") == nil {
			current = right
			continue
		}
		if right != nil {
			assign.Value = l.expression(right)
		}
		return assign
	}
}

func (l *pythonLowerer) target(node *sitter.Node) Node {
	switch node.Type() {
	case "identifier":
		return &AssignName{Name: nodeContent(node, l.source)}
	case "attribute":
		return &AssignAttr{Attr: l.fieldContent(node, "attribute")}
	case "pattern_list", "tuple_pattern", "tuple", "expression_list":
		tuple := &Tuple{}
		for _, child := range namedChildren(node) {
			tuple.Elts = append(tuple.Elts, l.target(child))
		}
		return tuple
	case "parenthesized_expression":
		if children := namedChildren(node); len(children) == 1 {
			return l.target(children[0])
		}
		return &Other{Kind: node.Type()}
	default:
		return &Other{Kind: node.Type()}
	}
}

func (l *pythonLowerer) expression(node *sitter.Node) Node {
	if node == nil {
		return nil
	}

	switch node.Type() {
	case "identifier":
		return &Name{Name: nodeContent(node, l.source)}

	case "attribute":
		return &Attribute{
			Attr:  l.fieldContent(node, "attribute"),
			Value: l.expression(node.ChildByFieldName("object")),
		}

	case "call":
		return l.call(node)

	case "tuple", "expression_list":
		tuple := &Tuple{}
		for _, child := range namedChildren(node) {
			tuple.Elts = append(tuple.Elts, l.expression(child))
		}
		return tuple

	case "parenthesized_expression":
		if children := namedChildren(node); len(children) == 1 {
			return l.expression(children[0])
		}
		return &Other{Kind: node.Type()}

	default:
		return &Other{Kind: node.Type()}
	}
}

func (l *pythonLowerer) call(node *sitter.Node) *Call {
	call := &Call{Func: l.expression(node.ChildByFieldName("function"))}

	args := node.ChildByFieldName("arguments")
	if args == nil || args.Type() != "argument_list" {
		// A bare generator argument: f(x for x in y).
		if args != nil {
			call.Args = append(call.Args, &Other{Kind: args.Type()})
		}
		return call
	}

	for _, arg := range namedChildren(args) {
		switch arg.Type() {
		case "keyword_argument":
			call.Keywords = append(call.Keywords, &Keyword{
				Arg:   l.fieldContent(arg, "name"),
				Value: l.expression(arg.ChildByFieldName("value")),
			})
		case "list_splat", "dictionary_splat":
			call.Args = append(call.Args, &Other{Kind: arg.Type()})
		default:
			call.Args = append(call.Args, l.expression(arg))
		}
	}
	return call
}

// parameters keeps positional parameter names. Collection stops at the first
// `*`, `*args` or `**kwargs`, since everything after is keyword-only.
func (l *pythonLowerer) parameters(node *sitter.Node) *Arguments {
	args := &Arguments{}
	if node == nil {
		return args
	}

	for _, param := range namedChildren(node) {
		switch param.Type() {
		case "identifier":
			args.Names = append(args.Names, nodeContent(param, l.source))
		case "typed_parameter":
			first := firstNamedChild(param)
			if first == nil || first.Type() != "identifier" {
				return args
			}
			args.Names = append(args.Names, nodeContent(first, l.source))
		case "default_parameter", "typed_default_parameter":
			if name := l.fieldContent(param, "name"); name != "" {
				args.Names = append(args.Names, name)
			}
		case "positional_separator":
			continue
		case "keyword_separator", "list_splat_pattern", "dictionary_splat_pattern":
			return args
		}
	}
	return args
}

func (l *pythonLowerer) fieldContent(node *sitter.Node, field string) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return nodeContent(child, l.source)
}

// Helper functions

// namedChildren returns the named children of node, skipping comments.
func namedChildren(node *sitter.Node) []*sitter.Node {
	var children []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		children = append(children, child)
	}
	return children
}

func firstNamedChild(node *sitter.Node) *sitter.Node {
	if children := namedChildren(node); len(children) > 0 {
		return children[0]
	}
	return nil
}

func findChild(node *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == nodeType {
			return child
		}
	}
	return nil
}

func nodeContent(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
