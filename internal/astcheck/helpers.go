package astcheck

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// findNodes performs a recursive DFS and calls fn for every node whose Type()
// is in the nodeTypes set.
func findNodes(node *sitter.Node, nodeTypes map[string]bool, fn func(*sitter.Node)) {
	if node == nil {
		return
	}
	if nodeTypes[node.Type()] {
		fn(node)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		findNodes(node.Child(int(i)), nodeTypes, fn)
	}
}

// findChildBlock finds the block child node of a compound clause.
func findChildBlock(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(int(i))
		if child != nil && child.Type() == "block" {
			return child
		}
	}
	return nil
}

// statements returns the named children of a block, skipping comments.
func statements(block *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(block.NamedChildCount()); i++ {
		if c := block.NamedChild(i); c != nil && c.Type() != "comment" {
			out = append(out, c)
		}
	}
	return out
}

// lastPart returns the final dotted component of a qualified name.
func lastPart(qualname string) string {
	return qualname[strings.LastIndex(qualname, ".")+1:]
}

// hasPart reports whether part is one of the dotted components of qualname.
func hasPart(qualname, part string) bool {
	for _, p := range strings.Split(qualname, ".") {
		if p == part {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// candidateRE matches identifiers that look like they hold a credential.
var candidateRE = func() *regexp.Regexp {
	words := `(pas+wo?r?d|pass(phrase)?|pwd|token|secrete?)`
	return regexp.MustCompile(`(?i)(^` + words + `$|_` + words + `_|^` + words + `_|_` + words + `$)`)
}()
