// Package parser provides tree-sitter based parsing for extracting identifiers from source code.
package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrSyntax is returned when the source does not parse cleanly under the grammar.
var ErrSyntax = errors.New("syntax error")

// Language represents a supported programming language.
type Language string

const (
	LanguagePython Language = "python"
)

// Parser wraps tree-sitter for the Python grammar. A Parser is not safe for
// concurrent use.
type Parser struct {
	language Language
	parser   *sitter.Parser
}

// NewParser creates a parser for Python source.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(getPythonLanguage())

	return &Parser{
		language: LanguagePython,
		parser:   p,
	}
}

// Parse parses source code into a lowered syntax tree. Source containing
// error or missing nodes is rejected with ErrSyntax.
func (p *Parser) Parse(ctx context.Context, source []byte) (*Module, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%w near line %d", ErrSyntax, firstErrorLine(root))
	}

	return lowerPythonModule(root, source), nil
}

// Identifiers parses source and returns its identifier multiset in traversal
// order. Unparseable source yields nil.
func (p *Parser) Identifiers(ctx context.Context, source []byte) []string {
	mod, err := p.Parse(ctx, source)
	if err != nil {
		return nil
	}
	return Walk(mod)
}

// DetectLanguage determines language from file extension.
func DetectLanguage(filePath string) (Language, bool) {
	switch {
	case hasExtension(filePath, ".py", ".pyi"):
		return LanguagePython, true
	default:
		return "", false
	}
}

func hasExtension(path string, exts ...string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// firstErrorLine reports the 1-based line of the first ERROR or MISSING node.
func firstErrorLine(node *sitter.Node) int {
	if node.Type() == "ERROR" || node.IsMissing() {
		return int(node.StartPoint().Row) + 1
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || !child.HasError() && !child.IsMissing() {
			continue
		}
		return firstErrorLine(child)
	}
	return int(node.StartPoint().Row) + 1
}
