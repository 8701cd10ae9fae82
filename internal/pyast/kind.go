package pyast

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Kind is the dispatch tag for a syntax node.
type Kind int

const (
	KindUnknown Kind = iota
	KindCall
	KindImport
	KindImportFrom
	KindFunctionDef
	KindClassDef
	KindStr
	KindBytes
	KindExceptHandler
	KindAssert
	KindExec
	KindAssign
)

var kindNames = map[Kind]string{
	KindUnknown:       "Unknown",
	KindCall:          "Call",
	KindImport:        "Import",
	KindImportFrom:    "ImportFrom",
	KindFunctionDef:   "FunctionDef",
	KindClassDef:      "ClassDef",
	KindStr:           "Str",
	KindBytes:         "Bytes",
	KindExceptHandler: "ExceptHandler",
	KindAssert:        "Assert",
	KindExec:          "Exec",
	KindAssign:        "Assign",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a kind name ("Call", "ImportFrom") to its tag.
func ParseKind(name string) (Kind, error) {
	for k, s := range kindNames {
		if k != KindUnknown && s == name {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown node kind %q", name)
}

// KindOf classifies a tree-sitter node. Nodes the engine does not dispatch
// on map to KindUnknown.
func KindOf(n *sitter.Node, src []byte) Kind {
	switch n.Type() {
	case "call":
		return KindCall
	case "import_statement":
		return KindImport
	case "import_from_statement", "future_import_statement":
		return KindImportFrom
	case "function_definition":
		return KindFunctionDef
	case "class_definition":
		return KindClassDef
	case "string":
		if p := n.Parent(); p != nil && p.Type() == "concatenated_string" {
			return KindUnknown
		}
		return stringKind(n, src)
	case "concatenated_string":
		if n.NamedChildCount() == 0 {
			return KindUnknown
		}
		return stringKind(n.NamedChild(0), src)
	case "except_clause", "except_group_clause":
		return KindExceptHandler
	case "assert_statement":
		return KindAssert
	case "exec_statement":
		return KindExec
	case "assignment":
		return KindAssign
	}
	return KindUnknown
}

// stringKind distinguishes str from bytes literals. f-strings are not
// constant strings and are left undispatched.
func stringKind(n *sitter.Node, src []byte) Kind {
	prefix := strings.ToLower(stringPrefix(n.Content(src)))
	switch {
	case strings.Contains(prefix, "f"):
		return KindUnknown
	case strings.Contains(prefix, "b"):
		return KindBytes
	default:
		return KindStr
	}
}
