// Package imports extracts module references from JavaScript and TypeScript syntax trees.
package imports

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/depchain/pkg/importmodel"
	"github.com/Sumatoshi-tech/depchain/pkg/syntax"
)

// Tree-sitter node and field names used by the walker.
const (
	nodeImportStatement = "import_statement"
	nodeExportStatement = "export_statement"
	nodeCallExpression  = "call_expression"
	nodeRequireClause   = "import_require_clause"
	nodeIdentifier      = "identifier"
	nodeImport          = "import"
	nodeString          = "string"
	nodeComment         = "comment"
	keywordType         = "type"

	fieldSource    = "source"
	fieldFunction  = "function"
	fieldArguments = "arguments"

	requireIdent = "require"
)

// typeNodes are the TypeScript nodes whose subtrees only exist at the type
// level. An import() call inside them is `typeof import('x')` or
// `import('x').T` and is erased at compile time.
var typeNodes = map[string]bool{
	"type_alias_declaration":    true,
	"interface_declaration":     true,
	"type_annotation":           true,
	"opting_type_annotation":    true,
	"omitting_type_annotation":  true,
	"type_predicate_annotation": true,
	"asserts_annotation":        true,
	"type_query":                true,
	"type_arguments":            true,
	"type_parameters":           true,
	"extends_type_clause":       true,
	"implements_clause":         true,
	"abstract_method_signature": true,
	"function_signature":        true,
	"ambient_declaration":       true,
	"index_signature":           true,
	"property_signature":        true,
	"method_signature":          true,
	"construct_signature":       true,
	"call_signature":            true,
}

// Walk returns every module reference in the tree, in document order.
func Walk(tree *syntax.Tree) []importmodel.Reference {
	var refs []importmodel.Reference

	walkNode(tree, tree.Root(), false, &refs)

	return refs
}

// walkNode visits n in pre-order. Nodes that yield a reference are not descended into.
// inType is set below type-level nodes.
func walkNode(tree *syntax.Tree, n sitter.Node, inType bool, refs *[]importmodel.Reference) {
	inType = inType || typeNodes[n.Type()]

	switch n.Type() {
	case nodeImportStatement:
		if ref, ok := importDeclaration(tree, n); ok {
			*refs = append(*refs, ref)

			return
		}
	case nodeExportStatement:
		if ref, ok := reExport(tree, n); ok {
			*refs = append(*refs, ref)

			return
		}
	case nodeCallExpression:
		if ref, ok := requireCall(tree, n); ok {
			ref.TypeOnly = inType
			*refs = append(*refs, ref)

			return
		}
	}

	for idx := range n.NamedChildCount() {
		walkNode(tree, n.NamedChild(idx), inType, refs)
	}
}

// importDeclaration handles `import ... from 'x'`, `import 'x'` and `import x = require('x')`.
func importDeclaration(tree *syntax.Tree, n sitter.Node) (importmodel.Reference, bool) {
	source := n.ChildByFieldName(fieldSource)

	if source.IsNull() {
		for idx := range n.NamedChildCount() {
			child := n.NamedChild(idx)
			if child.Type() == nodeRequireClause {
				source = child.ChildByFieldName(fieldSource)

				break
			}
		}
	}

	if source.IsNull() || source.Type() != nodeString {
		return importmodel.Reference{}, false
	}

	return importmodel.Reference{
		Specifier: tree.Text(source),
		TypeOnly:  hasTypeKeyword(n),
		Line:      syntax.Line(source),
	}, true
}

// reExport handles `export ... from 'x'`.
func reExport(tree *syntax.Tree, n sitter.Node) (importmodel.Reference, bool) {
	source := n.ChildByFieldName(fieldSource)
	if source.IsNull() || source.Type() != nodeString {
		return importmodel.Reference{}, false
	}

	return importmodel.Reference{
		Specifier: tree.Text(source),
		TypeOnly:  hasTypeKeyword(n),
		Line:      syntax.Line(source),
	}, true
}

// requireCall handles require('x') and import('x'). Calls whose arguments
// are not all string literals cannot be resolved statically and are skipped.
func requireCall(tree *syntax.Tree, n sitter.Node) (importmodel.Reference, bool) {
	callee := n.ChildByFieldName(fieldFunction)
	if callee.IsNull() {
		return importmodel.Reference{}, false
	}

	isRequire := callee.Type() == nodeIdentifier && tree.Text(callee) == requireIdent
	if !isRequire && callee.Type() != nodeImport {
		return importmodel.Reference{}, false
	}

	args := n.ChildByFieldName(fieldArguments)
	if args.IsNull() {
		return importmodel.Reference{}, false
	}

	var literals []sitter.Node

	for idx := range args.NamedChildCount() {
		arg := args.NamedChild(idx)

		switch arg.Type() {
		case nodeComment:
		case nodeString:
			literals = append(literals, arg)
		default:
			return importmodel.Reference{}, false
		}
	}

	if len(literals) == 0 {
		return importmodel.Reference{}, false
	}

	first := literals[0]

	return importmodel.Reference{
		Specifier: tree.Text(first),
		Dynamic:   true,
		Line:      syntax.Line(first),
	}, true
}

// hasTypeKeyword reports whether the declaration itself carries the `type` modifier.
// Inline specifier modifiers such as `import { type A } from 'x'` live deeper and do not count.
func hasTypeKeyword(n sitter.Node) bool {
	for idx := range n.ChildCount() {
		child := n.Child(idx)
		if !child.IsNamed() && child.Type() == keywordType {
			return true
		}
	}

	return false
}
