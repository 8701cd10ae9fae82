package astcheck

import (
	"strings"

	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/pyast"
)

// FlaskDebugTrue flags Flask applications started with debug=True.
func FlaskDebugTrue() Rule {
	return NewRule("B201", "flask_debug_true", flaskDebugTrue, kinds(pyast.KindCall),
		WithHints(issue.High, issue.Medium, 94))
}

func flaskDebugTrue(c *inspect.Context, _ Config) *issue.Issue {
	if !c.IsModuleImportedLike("flask") {
		return nil
	}
	if !strings.HasSuffix(c.CallFunctionNameQual(), ".run") {
		return nil
	}
	if match, _ := c.CheckCallArgValue("debug", "True"); !match {
		return nil
	}
	return issue.New(issue.High, issue.Medium, 94,
		"A Flask app appears to be run with debug=True, which exposes the Werkzeug debugger and allows the execution of arbitrary code.")
}
