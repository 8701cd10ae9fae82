// Package inspect provides the read-only view of the node under inspection
// that the engine hands to every rule.
package inspect

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/chris-regnier/bailiff/internal/pyast"
)

// Context describes the node currently being visited. The visitor builds a
// fresh one per node and the tester hands each rule its own copy, so rules
// must treat the shared Imports and ImportAliases tables as read-only.
type Context struct {
	Node    *sitter.Node
	Kind    pyast.Kind
	Parent  *sitter.Node
	Sibling *sitter.Node
	// Stmt is the innermost enclosing statement, or Node itself.
	Stmt *sitter.Node

	Filename     string
	Source       []byte
	LineNumber   int
	LineRange    []int
	ColOffset    int
	EndColOffset int

	Imports       map[string]bool
	ImportAliases map[string]string

	// Qualname is the alias-resolved call name for calls and the
	// namespace-qualified name for function definitions; Name is its last
	// dotted component.
	Qualname string
	Name     string
	// Module is the module named by the current import statement.
	Module string
}

// Copy returns a context safe to hand to a single rule invocation.
func (c *Context) Copy() *Context {
	cp := *c
	cp.LineRange = append([]int(nil), c.LineRange...)
	return &cp
}

// FileData returns the source of the file under inspection.
func (c *Context) FileData() []byte {
	return c.Source
}

// Statement returns the innermost statement containing the node.
func (c *Context) Statement() *sitter.Node {
	if c.Stmt != nil {
		return c.Stmt
	}
	return c.Node
}

// Text returns the source text of n.
func (c *Context) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(c.Source)
}

// CallFunctionName returns the last component of the called name.
func (c *Context) CallFunctionName() string {
	if c.Kind != pyast.KindCall {
		return ""
	}
	return c.Name
}

// CallFunctionNameQual returns the alias-resolved dotted name of the call.
func (c *Context) CallFunctionNameQual() string {
	if c.Kind != pyast.KindCall {
		return ""
	}
	return c.Qualname
}

// FunctionQualname returns the namespace-qualified name of a function definition.
func (c *Context) FunctionQualname() string {
	if c.Kind != pyast.KindFunctionDef {
		return ""
	}
	return c.Qualname
}

// argList returns the argument_list node of a call, or nil.
func (c *Context) argList() *sitter.Node {
	if c.Kind != pyast.KindCall || c.Node == nil {
		return nil
	}
	args := c.Node.ChildByFieldName("arguments")
	if args == nil || args.Type() != "argument_list" {
		return nil
	}
	return args
}

func (c *Context) positional() []*sitter.Node {
	args := c.argList()
	if args == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(args.NamedChildCount()); i++ {
		a := args.NamedChild(i)
		switch a.Type() {
		case "keyword_argument", "dictionary_splat", "comment":
			continue
		}
		out = append(out, a)
	}
	return out
}

func (c *Context) keywords() []*sitter.Node {
	args := c.argList()
	if args == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(args.NamedChildCount()); i++ {
		if a := args.NamedChild(i); a.Type() == "keyword_argument" {
			out = append(out, a)
		}
	}
	return out
}

// argValue renders an argument: attribute access yields the attribute
// name, anything else its literal value.
func (c *Context) argValue(n *sitter.Node) any {
	if n != nil && n.Type() == "attribute" {
		if attr := n.ChildByFieldName("attribute"); attr != nil {
			return attr.Content(c.Source)
		}
	}
	return pyast.Literal(n, c.Source)
}

// CallArgs returns the positional arguments of the call.
func (c *Context) CallArgs() []any {
	pos := c.positional()
	out := make([]any, 0, len(pos))
	for _, a := range pos {
		out = append(out, c.argValue(a))
	}
	return out
}

// CallArgsCount returns the number of positional arguments.
func (c *Context) CallArgsCount() int {
	return len(c.positional())
}

// CallArgAtPosition returns the i-th positional argument, or nil.
func (c *Context) CallArgAtPosition(i int) any {
	pos := c.positional()
	if i < 0 || i >= len(pos) {
		return nil
	}
	return c.argValue(pos[i])
}

// CallArgNode returns the i-th positional argument node, or nil.
func (c *Context) CallArgNode(i int) *sitter.Node {
	pos := c.positional()
	if i < 0 || i >= len(pos) {
		return nil
	}
	return pos[i]
}

// CallKeywords maps keyword names to their rendered values.
func (c *Context) CallKeywords() map[string]any {
	kws := c.keywords()
	out := make(map[string]any, len(kws))
	for _, kw := range kws {
		name := kw.ChildByFieldName("name")
		if name == nil {
			continue
		}
		out[name.Content(c.Source)] = c.argValue(kw.ChildByFieldName("value"))
	}
	return out
}

// CallKeywordNode returns the value node of a keyword argument, or nil.
func (c *Context) CallKeywordNode(name string) *sitter.Node {
	for _, kw := range c.keywords() {
		if n := kw.ChildByFieldName("name"); n != nil && n.Content(c.Source) == name {
			return kw.ChildByFieldName("value")
		}
	}
	return nil
}

// CallArgValue returns the rendered value of a keyword argument.
func (c *Context) CallArgValue(name string) (any, bool) {
	v, ok := c.CallKeywords()[name]
	return v, ok
}

// CheckCallArgValue reports whether keyword name is present and, if so,
// whether its value equals one of values. Values compare by their printed
// form, so "True" matches both the constant and the string.
func (c *Context) CheckCallArgValue(name string, values ...any) (match, present bool) {
	v, ok := c.CallArgValue(name)
	if !ok {
		return false, false
	}
	got := render(v)
	for _, want := range values {
		if render(want) == got {
			return true, true
		}
	}
	return false, true
}

func render(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case nil:
		return "None"
	}
	return ""
}

// LinenoForCallArg returns the line of keyword argument name, or 0.
func (c *Context) LinenoForCallArg(name string) int {
	for _, kw := range c.keywords() {
		if n := kw.ChildByFieldName("name"); n != nil && n.Content(c.Source) == name {
			return pyast.Line(kw)
		}
	}
	return 0
}

// IsModuleBeingImported reports whether the current import statement names module.
func (c *Context) IsModuleBeingImported(module string) bool {
	return c.Module == module
}

// IsModuleImportedExact reports whether module was imported earlier in the file.
func (c *Context) IsModuleImportedExact(module string) bool {
	return c.Imports[module]
}

// IsModuleImportedLike reports whether any import so far contains module.
func (c *Context) IsModuleImportedLike(module string) bool {
	for imp := range c.Imports {
		if strings.Contains(imp, module) {
			return true
		}
	}
	return false
}

// StringVal returns the decoded value of a str literal node.
func (c *Context) StringVal() (string, bool) {
	if c.Kind != pyast.KindStr {
		return "", false
	}
	return pyast.StringValue(c.Node, c.Source)
}

// BytesVal returns the decoded value of a bytes literal node.
func (c *Context) BytesVal() ([]byte, bool) {
	if c.Kind != pyast.KindBytes {
		return nil, false
	}
	s, ok := pyast.StringValue(c.Node, c.Source)
	if !ok {
		return nil, false
	}
	return []byte(s), true
}

// StringValAsEscapedBytes returns the str literal with non-ASCII runes
// written as escape sequences.
func (c *Context) StringValAsEscapedBytes() []byte {
	s, ok := c.StringVal()
	if !ok {
		return nil
	}
	q := strconv.QuoteToASCII(s)
	return []byte(q[1 : len(q)-1])
}

// FunctionDefDefaultsQual returns the dotted names of a function's default
// values; defaults that are not names render as "".
func (c *Context) FunctionDefDefaultsQual() []string {
	if c.Kind != pyast.KindFunctionDef {
		return nil
	}
	params := c.Node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() != "default_parameter" && p.Type() != "typed_default_parameter" {
			continue
		}
		out = append(out, pyast.QualName(p.ChildByFieldName("value"), c.Source, c.ImportAliases))
	}
	return out
}
