package pyast

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// QualName renders an identifier or attribute chain as a dotted name,
// resolving each prefix through aliases. Any other expression yields "".
//
// For "h.new" with aliases {h: hashlib} the result is "hashlib.new"; a
// fully spelled chain is itself looked up so "a.b" -> "x.y" mappings apply.
func QualName(n *sitter.Node, src []byte, aliases map[string]string) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "identifier":
		name := n.Content(src)
		if full, ok := aliases[name]; ok {
			return full
		}
		return name
	case "attribute":
		attr := n.ChildByFieldName("attribute")
		if attr == nil {
			return ""
		}
		name := QualName(n.ChildByFieldName("object"), src, aliases) + "." + attr.Content(src)
		if full, ok := aliases[name]; ok {
			return full
		}
		return name
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return QualName(n.NamedChild(0), src, aliases)
		}
	}
	return ""
}

// CallName returns the alias-resolved dotted name of a call's function.
func CallName(call *sitter.Node, src []byte, aliases map[string]string) string {
	return QualName(call.ChildByFieldName("function"), src, aliases)
}

// DottedName renders dotted_name, identifier, and relative_import nodes as text.
func DottedName(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return strings.Join(strings.Fields(n.Content(src)), "")
}

// Name returns the "name" field of a def or class node.
func Name(n *sitter.Node, src []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Content(src)
	}
	return ""
}

// ImportName is one imported name with its optional local alias.
type ImportName struct {
	Name  string
	Alias string
}

// ImportNames lists the names bound by an import or from-import statement.
// A wildcard import yields a single "*" entry.
func ImportNames(n *sitter.Node, src []byte) []ImportName {
	var out []ImportName
	module := n.ChildByFieldName("module_name")
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil || (module != nil && c.Equal(module)) {
			continue
		}
		switch c.Type() {
		case "dotted_name":
			out = append(out, ImportName{Name: DottedName(c, src)})
		case "aliased_import":
			out = append(out, ImportName{
				Name:  DottedName(c.ChildByFieldName("name"), src),
				Alias: DottedName(c.ChildByFieldName("alias"), src),
			})
		case "wildcard_import":
			out = append(out, ImportName{Name: "*"})
		}
	}
	return out
}

// ImportModule returns the module of a from-import ("os.path" or ".pkg").
// Plain imports and __future__ imports report "" and "__future__".
func ImportModule(n *sitter.Node, src []byte) string {
	if n.Type() == "future_import_statement" {
		return "__future__"
	}
	return DottedName(n.ChildByFieldName("module_name"), src)
}

// ModuleQualname derives a dotted module name from path segments such as
// ["pkg", "sub", "mod.py"]; the caller supplies how many trailing
// directories are packages.
func ModuleQualname(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	last := segments[len(segments)-1]
	if i := strings.LastIndex(last, "."); i > 0 {
		last = last[:i]
	}
	parts := append(append([]string{}, segments[:len(segments)-1]...), last)
	return strings.Join(parts, ".")
}
