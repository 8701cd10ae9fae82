package astcheck

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/pyast"
)

func emptyHandlerDefaults() Config {
	return Config{"check_typed_exception": false}
}

// TryExceptPass flags exception handlers whose only statement is pass.
func TryExceptPass() Rule {
	return NewRule("B110", "try_except_pass", emptyHandler("pass_statement", "Try, Except, Pass detected."),
		kinds(pyast.KindExceptHandler),
		WithConfig("try_except_pass", emptyHandlerDefaults),
		WithHints(issue.Low, issue.High, 703))
}

// TryExceptContinue flags exception handlers whose only statement is continue.
func TryExceptContinue() Rule {
	return NewRule("B112", "try_except_continue", emptyHandler("continue_statement", "Try, Except, Continue detected."),
		kinds(pyast.KindExceptHandler),
		WithConfig("try_except_continue", emptyHandlerDefaults),
		WithHints(issue.Low, issue.High, 703))
}

func emptyHandler(stmtType, text string) CheckFunc {
	return func(c *inspect.Context, cfg Config) *issue.Issue {
		if !cfg.Bool("check_typed_exception") {
			if t := handlerType(c.Node, c.Source); t != "" && t != "Exception" {
				return nil
			}
		}
		body := findChildBlock(c.Node)
		if body == nil {
			return nil
		}
		stmts := statements(body)
		if len(stmts) != 1 || stmts[0].Type() != stmtType {
			return nil
		}
		return issue.New(issue.Low, issue.High, 703, text)
	}
}

// handlerType returns the source text of the exception type an except
// clause catches, without any "as" binding. A bare except yields "".
func handlerType(n *sitter.Node, src []byte) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "block", "comment":
			continue
		case "as_pattern":
			if child.NamedChildCount() > 0 {
				return child.NamedChild(0).Content(src)
			}
		}
		return child.Content(src)
	}
	return ""
}
