package astcheck

import (
	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/pyast"
)

// Jinja2AutoescapeFalse flags jinja2 environments built without autoescaping.
func Jinja2AutoescapeFalse() Rule {
	return NewRule("B701", "jinja2_autoescape_false", jinja2AutoescapeFalse, kinds(pyast.KindCall),
		WithHints(issue.High, issue.High, 94))
}

func jinja2AutoescapeFalse(c *inspect.Context, _ Config) *issue.Issue {
	qual := c.CallFunctionNameQual()
	if !hasPart(qual, "jinja2") || c.CallFunctionName() != "Environment" {
		return nil
	}
	value := c.CallKeywordNode("autoescape")
	if value == nil {
		return issue.New(issue.High, issue.High, 94,
			"By default, jinja2 sets autoescape to False. Consider using autoescape=True or use the select_autoescape function to mitigate XSS vulnerabilities.")
	}
	switch value.Type() {
	case "true":
		return nil
	case "call":
		if lastPart(pyast.CallName(value, c.Source, c.ImportAliases)) == "select_autoescape" {
			return nil
		}
	}
	const unsafe = "Using jinja2 templates with autoescape=False is dangerous and can lead to XSS. Ensure autoescape=True or use the select_autoescape function to mitigate XSS vulnerabilities."
	if value.Type() == "false" {
		return issue.New(issue.High, issue.High, 94, unsafe)
	}
	return issue.New(issue.High, issue.Medium, 94, unsafe)
}
