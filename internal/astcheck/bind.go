package astcheck

import (
	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/pyast"
)

// HardcodedBindAllInterfaces flags the literal "0.0.0.0".
func HardcodedBindAllInterfaces() Rule {
	return NewRule("B104", "hardcoded_bind_all_interfaces", hardcodedBindAll, kinds(pyast.KindStr),
		WithHints(issue.Medium, issue.Medium, 605))
}

func hardcodedBindAll(c *inspect.Context, _ Config) *issue.Issue {
	if s, ok := c.StringVal(); ok && s == "0.0.0.0" {
		return issue.New(issue.Medium, issue.Medium, 605, "Possible binding to all interfaces.")
	}
	return nil
}
