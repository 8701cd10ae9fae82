package astcheck

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/pyast"
)

// AssertUsed flags assert statements, which are stripped under -O.
// Files matching the "skips" globs are exempt.
func AssertUsed() Rule {
	return NewRule("B101", "assert_used", assertUsed, kinds(pyast.KindAssert),
		WithConfig("assert_used", func() Config { return Config{"skips": []string{}} }),
		WithHints(issue.Low, issue.High, 703))
}

func assertUsed(c *inspect.Context, cfg Config) *issue.Issue {
	for _, pattern := range cfg.Strings("skips") {
		if ok, _ := doublestar.Match(pattern, c.Filename); ok {
			return nil
		}
	}
	return issue.New(issue.Low, issue.High, 703,
		"Use of assert detected. The enclosed code will be removed when compiling to optimised byte code.")
}
