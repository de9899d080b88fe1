package parser

// placeholderName is the synthetic name given to tuple nodes by some Python
// front ends; it never names anything in the source.
const placeholderName = "tuple"

// Walk collects identifiers from every statement of mod, descending into the
// body of each statement that has one. Order follows the source.
func Walk(mod *Module) []string {
	if mod == nil {
		return nil
	}
	var names []string
	for _, stmt := range mod.Body {
		names = walkStmt(names, stmt)
	}
	return names
}

func walkStmt(names []string, stmt Node) []string {
	names = appendNames(names, stmt)
	body, ok := Body(stmt)
	if !ok {
		return names
	}
	for _, child := range body {
		names = walkStmt(names, child)
	}
	return names
}

// Extract returns the identifiers n contributes on its own, without
// descending into nested statement bodies.
func Extract(n Node) []string {
	return appendNames(nil, n)
}

func appendNames(names []string, n Node) []string {
	switch n := n.(type) {
	case nil:
		return names

	case *Module:
		return names

	case *FunctionDef:
		names = appendName(names, n.Name)
		if n.Args != nil {
			names = appendNames(names, n.Args)
		}
		return names

	case *ClassDef:
		return appendName(names, n.Name)

	case *Arguments:
		// Annotations are available on the grammar but not extracted.
		return append(names, n.Names...)

	case *Return:
		return appendNames(names, n.Value)

	case *Tuple:
		for _, elt := range n.Elts {
			names = appendNames(names, elt)
		}
		return names

	case *Import:
		return append(names, n.Names...)

	case *ImportFrom:
		names = appendName(names, n.Module)
		for _, sym := range n.Names {
			names = appendName(names, sym)
		}
		return names

	case *Assign:
		for _, target := range n.Targets {
			names = appendNames(names, target)
		}
		return appendNames(names, n.Value)

	case *AssignName:
		return appendName(names, n.Name)

	case *AssignAttr:
		return appendName(names, n.Attr)

	case *Call:
		names = appendNames(names, n.Func)
		for _, arg := range n.Args {
			names = appendNames(names, arg)
		}
		for _, kw := range n.Keywords {
			if kw != nil {
				names = appendNames(names, kw)
			}
		}
		return names

	case *Keyword:
		// Neither the keyword nor its value is a name of the call.
		return names

	case *Name:
		return appendName(names, n.Name)

	case *Expr:
		return appendNames(names, n.Value)

	case *Attribute:
		names = appendName(names, n.Attr)
		return appendNames(names, n.Value)

	case *Compound, *Other:
		return names

	default:
		return names
	}
}

func appendName(names []string, name string) []string {
	if name == "" || name == placeholderName {
		return names
	}
	return append(names, name)
}
