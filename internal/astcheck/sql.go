package astcheck

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/pyast"
)

var sqlRE = regexp.MustCompile(`(?is)(select\s.*from\s|delete\s+from\s|insert\s+into\s.*values\s|update\s.*set\s)`)

var sqlExecutors = []string{"execute", "executemany"}

// HardcodedSQLExpressions flags SQL statements assembled with string
// operators or formatting methods.
func HardcodedSQLExpressions() Rule {
	return NewRule("B608", "hardcoded_sql_expressions", hardcodedSQLExpressions, kinds(pyast.KindStr),
		WithHints(issue.Medium, issue.Medium, 89))
}

func hardcodedSQLExpressions(c *inspect.Context, _ Config) *issue.Issue {
	if c.Parent == nil {
		return nil
	}
	var statement string
	var wrapper *sitter.Node
	replace := false

	switch c.Parent.Type() {
	case "binary_operator":
		top := c.Parent
		for p := top.Parent(); p != nil && p.Type() == "binary_operator"; p = p.Parent() {
			top = p
		}
		statement = concatStrings(top, c.Source)
		wrapper = enclosingCall(top)
	case "attribute":
		attr := c.Parent.ChildByFieldName("attribute")
		if attr == nil {
			return nil
		}
		switch attr.Content(c.Source) {
		case "replace":
			replace = true
		case "format":
		default:
			return nil
		}
		statement, _ = c.StringVal()
		if call := c.Parent.Parent(); call != nil && call.Type() == "call" {
			wrapper = enclosingCall(call)
		}
	default:
		return nil
	}

	if !sqlRE.MatchString(statement) {
		return nil
	}
	conf := issue.Low
	if wrapper != nil && !replace && contains(sqlExecutors, lastPart(pyast.CallName(wrapper, c.Source, c.ImportAliases))) {
		conf = issue.Medium
	}
	return issue.New(issue.Medium, conf, 89, "Possible SQL injection vector through string-based query construction.")
}

// concatStrings joins every string literal operand of a binary operator chain.
func concatStrings(n *sitter.Node, src []byte) string {
	var parts []string
	var collect func(*sitter.Node)
	collect = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "binary_operator" {
			collect(n.ChildByFieldName("left"))
			collect(n.ChildByFieldName("right"))
			return
		}
		if s, ok := pyast.StringValue(n, src); ok {
			parts = append(parts, s)
		}
	}
	collect(n)
	return strings.Join(parts, " ")
}

// enclosingCall returns the call n is passed to as an argument, or nil.
func enclosingCall(n *sitter.Node) *sitter.Node {
	p := n.Parent()
	if p == nil || p.Type() != "argument_list" {
		return nil
	}
	if call := p.Parent(); call != nil && call.Type() == "call" {
		return call
	}
	return nil
}
