// Package pyast parses Python source with tree-sitter and exposes the small
// set of node helpers the analysis engine needs: dispatch kinds, dotted and
// alias-resolved names, literal decoding, and comment scanning.
package pyast

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrSyntax is returned when the source does not parse cleanly.
var ErrSyntax = errors.New("syntax error")

// File is a parsed source file.
type File struct {
	Tree   *sitter.Tree
	Source []byte
}

// Root returns the module node.
func (f *File) Root() *sitter.Node {
	return f.Tree.RootNode()
}

// Close releases the tree-sitter tree.
func (f *File) Close() {
	if f.Tree != nil {
		f.Tree.Close()
	}
}

// Parse parses src as Python. A tree containing ERROR or MISSING nodes is
// reported as ErrSyntax along with the first offending line.
func Parse(ctx context.Context, src []byte) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	root := tree.RootNode()
	if root.HasError() {
		line := firstErrorLine(root)
		tree.Close()
		return nil, fmt.Errorf("%w at line %d", ErrSyntax, line)
	}
	return &File{Tree: tree, Source: src}, nil
}

func firstErrorLine(n *sitter.Node) int {
	if n.IsError() || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c != nil && c.HasError() {
			return firstErrorLine(c)
		}
	}
	return int(n.StartPoint().Row) + 1
}

// CommentLines returns the 1-based lines holding a comment that contains marker.
func CommentLines(root *sitter.Node, src []byte, marker string) map[int]bool {
	lines := make(map[int]bool)
	if marker == "" {
		return lines
	}
	walk(root, func(n *sitter.Node) {
		if n.Type() == "comment" && strings.Contains(n.Content(src), marker) {
			lines[int(n.StartPoint().Row)+1] = true
		}
	})
	return lines
}

func walk(n *sitter.Node, fn func(*sitter.Node)) {
	if n == nil {
		return
	}
	fn(n)
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), fn)
	}
}

// Line returns the 1-based start line of n.
func Line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// EndLine returns the 1-based end line of n.
func EndLine(n *sitter.Node) int {
	return int(n.EndPoint().Row) + 1
}

// NextSibling returns the next named sibling that is not a comment.
func NextSibling(n *sitter.Node) *sitter.Node {
	for s := n.NextNamedSibling(); s != nil; s = s.NextNamedSibling() {
		if s.Type() != "comment" {
			return s
		}
	}
	return nil
}

// bodyTypes are the compound-statement parts left out of a node's line range.
var bodyTypes = map[string]bool{
	"block":          true,
	"else_clause":    true,
	"elif_clause":    true,
	"except_clause":  true,
	"finally_clause": true,
	"case_clause":    true,
}

// LineRange returns every line spanned by n, leaving out the bodies of
// nested compound statements so a def or if reports only its header.
func LineRange(n *sitter.Node) []int {
	lo, hi := Line(n), Line(n)
	if n.ChildCount() == 0 {
		hi = EndLine(n)
	}
	var visit func(*sitter.Node)
	visit = func(c *sitter.Node) {
		for i := 0; i < int(c.ChildCount()); i++ {
			ch := c.Child(i)
			if ch == nil || bodyTypes[ch.Type()] || ch.Type() == "comment" {
				continue
			}
			if l := Line(ch); l < lo {
				lo = l
			}
			if l := EndLine(ch); l > hi {
				hi = l
			}
			visit(ch)
		}
	}
	visit(n)
	out := make([]int, 0, hi-lo+1)
	for l := lo; l <= hi; l++ {
		out = append(out, l)
	}
	return out
}
