package astcheck

import (
	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/pyast"
)

// ExecUsed flags both the exec() builtin and the Python 2 exec statement.
func ExecUsed() Rule {
	return NewRule("B102", "exec_used", execUsed, kinds(pyast.KindCall, pyast.KindExec),
		WithHints(issue.Medium, issue.High, 78))
}

func execUsed(c *inspect.Context, _ Config) *issue.Issue {
	if c.Kind == pyast.KindExec || c.CallFunctionNameQual() == "exec" {
		return issue.New(issue.Medium, issue.High, 78, "Use of exec detected.")
	}
	return nil
}
