package astcheck

import (
	"fmt"
	"strings"

	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/pyast"
)

var weakHashes = []string{"md4", "md5", "sha", "sha1"}

// HashlibInsecureFunctions flags hashlib.new with a broken algorithm unless
// the caller opts out with usedforsecurity=False. Direct constructors such
// as hashlib.md5 are covered by the rule list.
func HashlibInsecureFunctions() Rule {
	return NewRule("B324", "hashlib_insecure_functions", hashlibInsecureFunctions, kinds(pyast.KindCall),
		WithHints(issue.High, issue.High, 327))
}

func hashlibInsecureFunctions(c *inspect.Context, _ Config) *issue.Issue {
	if c.CallFunctionNameQual() != "hashlib.new" {
		return nil
	}
	name, ok := c.CallArgAtPosition(0).(string)
	if !ok {
		v, _ := c.CallArgValue("name")
		if name, ok = v.(string); !ok {
			return nil
		}
	}
	if !contains(weakHashes, strings.ToLower(name)) {
		return nil
	}
	if match, _ := c.CheckCallArgValue("usedforsecurity", "False"); match {
		return nil
	}
	return issue.New(issue.High, issue.High, 327,
		fmt.Sprintf("Use of weak %s hash for security. Consider usedforsecurity=False", strings.ToUpper(name)))
}
