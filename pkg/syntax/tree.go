package syntax

import (
	"fmt"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// maxErrorSnippet bounds the source excerpt quoted in parse errors.
const maxErrorSnippet = 40

// Tree is a parsed source file. Nodes obtained from it are valid until Close.
type Tree struct {
	Path   string
	Lang   string
	Source []byte

	tree *sitter.Tree
}

// Root returns the root node.
func (t *Tree) Root() sitter.Node {
	return t.tree.RootNode()
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// Text returns a copy of the source covered by n.
func (t *Tree) Text(n sitter.Node) string {
	start, end := n.StartByte(), n.EndByte()
	if end > uint(len(t.Source)) || start > end {
		return ""
	}

	return string(t.Source[start:end])
}

// Line returns the 1-based line where n starts.
func Line(n sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// ParseError reports malformed source. It names the file and the position
// of the first erroneous node.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
}

// firstError finds the first ERROR or MISSING node in document order.
func (t *Tree) firstError(n sitter.Node) *ParseError {
	if n.IsMissing() {
		return t.newParseError(n, "missing "+n.Type())
	}

	if n.IsError() {
		return t.newParseError(n, "unexpected "+snippet(t.Text(n)))
	}

	for idx := range n.ChildCount() {
		child := n.Child(idx)
		if child.IsNull() || !child.HasError() {
			continue
		}

		if found := t.firstError(child); found != nil {
			return found
		}
	}

	return t.newParseError(n, "syntax error")
}

func (t *Tree) newParseError(n sitter.Node, msg string) *ParseError {
	point := n.StartPoint()

	return &ParseError{
		Path:    t.Path,
		Line:    int(point.Row) + 1,
		Column:  int(point.Column) + 1,
		Message: msg,
	}
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > maxErrorSnippet {
		text = text[:maxErrorSnippet] + "..."
	}

	return fmt.Sprintf("%q", text)
}
