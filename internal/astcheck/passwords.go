package astcheck

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/pyast"
)

func passwordIssue(value string) *issue.Issue {
	return issue.New(issue.Low, issue.Medium, 259, fmt.Sprintf("Possible hardcoded password: '%s'", value))
}

// HardcodedPasswordString flags string literals assigned to, or compared
// against, names that look like credentials.
func HardcodedPasswordString() Rule {
	return NewRule("B105", "hardcoded_password_string", hardcodedPasswordString, kinds(pyast.KindStr),
		WithHints(issue.Low, issue.Medium, 259))
}

func hardcodedPasswordString(c *inspect.Context, _ Config) *issue.Issue {
	value, ok := c.StringVal()
	if !ok || c.Parent == nil {
		return nil
	}
	switch c.Parent.Type() {
	case "assignment":
		// password = "..."
		right := c.Parent.ChildByFieldName("right")
		if right == nil || !right.Equal(c.Node) {
			return nil
		}
		if candidateTarget(c.Parent.ChildByFieldName("left"), c.Source) {
			return passwordIssue(value)
		}
	case "subscript":
		// config["password"] = "..."
		if !candidateRE.MatchString(value) {
			return nil
		}
		assign := c.Parent.Parent()
		if assign == nil || assign.Type() != "assignment" {
			return nil
		}
		if s, ok := pyast.StringValue(assign.ChildByFieldName("right"), c.Source); ok {
			return passwordIssue(s)
		}
	case "comparison_operator":
		// password == "..."
		if c.Parent.NamedChildCount() < 2 {
			return nil
		}
		left := c.Parent.NamedChild(0)
		if !candidateTarget(left, c.Source) {
			return nil
		}
		if s, ok := pyast.StringValue(c.Parent.NamedChild(1), c.Source); ok {
			return passwordIssue(s)
		}
	case "pair":
		// {"password": "..."}
		key, ok := pyast.StringValue(c.Parent.ChildByFieldName("key"), c.Source)
		if value2 := c.Parent.ChildByFieldName("value"); ok && value2 != nil && value2.Equal(c.Node) && candidateRE.MatchString(key) {
			return passwordIssue(value)
		}
	}
	return nil
}

// candidateTarget reports whether an assignment target or comparison
// operand is a name or attribute whose identifier looks like a credential.
func candidateTarget(n *sitter.Node, src []byte) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "identifier":
		return candidateRE.MatchString(n.Content(src))
	case "attribute":
		attr := n.ChildByFieldName("attribute")
		return attr != nil && candidateRE.MatchString(attr.Content(src))
	case "pattern_list", "tuple_pattern", "expression_list":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if candidateTarget(n.NamedChild(i), src) {
				return true
			}
		}
	}
	return false
}

// HardcodedPasswordFuncarg flags string literals passed as credential-like keywords.
func HardcodedPasswordFuncarg() Rule {
	return NewRule("B106", "hardcoded_password_funcarg", hardcodedPasswordFuncarg, kinds(pyast.KindCall),
		WithHints(issue.Low, issue.Medium, 259))
}

func hardcodedPasswordFuncarg(c *inspect.Context, _ Config) *issue.Issue {
	args := c.Node.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		kw := args.NamedChild(i)
		if kw.Type() != "keyword_argument" {
			continue
		}
		name := kw.ChildByFieldName("name")
		if name == nil || !candidateRE.MatchString(name.Content(c.Source)) {
			continue
		}
		if s, ok := pyast.StringValue(kw.ChildByFieldName("value"), c.Source); ok {
			return passwordIssue(s)
		}
	}
	return nil
}

// HardcodedPasswordDefault flags credential-like parameters with string defaults.
func HardcodedPasswordDefault() Rule {
	return NewRule("B107", "hardcoded_password_default", hardcodedPasswordDefault, kinds(pyast.KindFunctionDef),
		WithHints(issue.Low, issue.Medium, 259))
}

func hardcodedPasswordDefault(c *inspect.Context, _ Config) *issue.Issue {
	params := c.Node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() != "default_parameter" && p.Type() != "typed_default_parameter" {
			continue
		}
		name := p.ChildByFieldName("name")
		if name == nil || !candidateRE.MatchString(name.Content(c.Source)) {
			continue
		}
		if s, ok := pyast.StringValue(p.ChildByFieldName("value"), c.Source); ok {
			return passwordIssue(s)
		}
	}
	return nil
}
