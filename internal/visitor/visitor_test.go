package visitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/bailiff/internal/astcheck"
	"github.com/chris-regnier/bailiff/internal/config"
	"github.com/chris-regnier/bailiff/internal/extension"
	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/pyast"
	"github.com/chris-regnier/bailiff/internal/rules"
	"github.com/chris-regnier/bailiff/internal/testset"
)

type ruleSource []astcheck.Rule

func (s ruleSource) Rules() []astcheck.Rule  { return s }
func (s ruleSource) Entries() []rules.Entry { return nil }

func setOf(rs ...astcheck.Rule) *testset.Set {
	return testset.New(ruleSource(rs), &config.Resolved{})
}

// recorder returns a rule that never reports and remembers every context.
func recorder(kind pyast.Kind, seen *[]*inspect.Context) astcheck.Rule {
	return astcheck.NewRule("B900", "recorder", func(c *inspect.Context, _ astcheck.Config) *issue.Issue {
		*seen = append(*seen, c)
		return nil
	}, []pyast.Kind{kind})
}

func always(id string, kind pyast.Kind) astcheck.Rule {
	return astcheck.NewRule(id, "always_"+id, func(c *inspect.Context, _ astcheck.Config) *issue.Issue {
		return issue.New(issue.Low, issue.High, 0, "found")
	}, []pyast.Kind{kind})
}

func walk(t *testing.T, filename, src string, opts Options) (*Result, error) {
	t.Helper()
	f, err := pyast.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return New(filename, f, opts).Walk(context.Background())
}

func TestAliasesResolveCallNames(t *testing.T) {
	var seen []*inspect.Context
	src := `import hashlib as h
from os import path as p
from subprocess import Popen
import xml.etree
h.md5()
p.join("a")
Popen()
xml.etree.parse()
`
	_, err := walk(t, "t.py", src, Options{Tests: setOf(recorder(pyast.KindCall, &seen))})
	require.NoError(t, err)

	var names []string
	for _, c := range seen {
		names = append(names, c.Qualname)
	}
	assert.Equal(t, []string{"hashlib.md5", "os.path.join", "subprocess.Popen", "xml.etree.parse"}, names)

	last := seen[len(seen)-1]
	assert.Equal(t, "parse", last.Name)
	assert.True(t, last.Imports["xml.etree"])
	assert.True(t, last.Imports["os.path"])
	assert.Equal(t, "hashlib", last.ImportAliases["h"])
	assert.NotContains(t, last.ImportAliases, "xml.etree")
}

func TestImportContextModule(t *testing.T) {
	var seen []*inspect.Context
	rule := recorder(pyast.KindImportFrom, &seen)
	rule.Checks = append(rule.Checks, pyast.KindImport)
	src := "import os, sys\nfrom ..pkg import thing\nfrom . import sibling\n"
	_, err := walk(t, "t.py", src, Options{Tests: setOf(rule)})
	require.NoError(t, err)

	require.Len(t, seen, 3)
	assert.Equal(t, "sys", seen[0].Module)
	assert.Equal(t, "pkg", seen[1].Module)
	assert.Equal(t, "sibling", seen[2].Module)
	assert.Equal(t, "pkg.thing", seen[2].ImportAliases["thing"])
	assert.NotContains(t, seen[2].ImportAliases, "sibling")
}

func TestNamespaceQualifiesFunctions(t *testing.T) {
	dir := t.TempDir()
	pkg := filepath.Join(dir, "pkg")
	require.NoError(t, os.MkdirAll(pkg, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "__init__.py"), nil, 0o644))
	path := filepath.Join(pkg, "mod.py")

	var seen []*inspect.Context
	src := `class A:
    def f(self):
        def inner():
            pass

def g():
    pass
`
	_, err := walk(t, path, src, Options{Tests: setOf(recorder(pyast.KindFunctionDef, &seen))})
	require.NoError(t, err)

	var quals []string
	for _, c := range seen {
		quals = append(quals, c.FunctionQualname())
	}
	assert.Equal(t, []string{"pkg.mod.A.f", "pkg.mod.A.f.inner", "pkg.mod.g"}, quals)
}

func TestModuleName(t *testing.T) {
	name, err := ModuleName(filepath.Join(t.TempDir(), "script.py"))
	require.NoError(t, err)
	assert.Equal(t, "script", name)

	_, err = ModuleName("<stdin>")
	assert.ErrorIs(t, err, ErrInvalidModulePath)
}

func TestDocstringsAreNotDispatched(t *testing.T) {
	var seen []*inspect.Context
	src := `"""module doc"""
def f():
    "function doc"
    return "value"
`
	_, err := walk(t, "t.py", src, Options{Tests: setOf(recorder(pyast.KindStr, &seen))})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	s, ok := seen[0].StringVal()
	require.True(t, ok)
	assert.Equal(t, "value", s)
}

func TestParentSiblingAndStatement(t *testing.T) {
	var seen []*inspect.Context
	src := "x = foo(1)\nbar()\n"
	_, err := walk(t, "t.py", src, Options{Tests: setOf(recorder(pyast.KindCall, &seen))})
	require.NoError(t, err)
	require.Len(t, seen, 2)

	assert.Equal(t, "assignment", seen[0].Parent.Type())
	assert.Equal(t, "expression_statement", seen[0].Statement().Type())
	assert.Equal(t, 1, seen[0].LineNumber)
	assert.Equal(t, 4, seen[0].ColOffset)
	assert.Equal(t, 10, seen[0].EndColOffset)
	assert.Nil(t, seen[0].Sibling)
	assert.Equal(t, 2, seen[1].LineNumber)
}

func TestTesterFillsIssueFields(t *testing.T) {
	res, err := walk(t, "t.py", "a = 1\nassert a\n", Options{Tests: setOf(always("B901", pyast.KindAssert))})
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)

	got := res.Issues[0]
	assert.Equal(t, "t.py", got.Filename)
	assert.Equal(t, "B901", got.TestID)
	assert.Equal(t, "always_B901", got.TestName)
	assert.Equal(t, 2, got.LineNumber)
	assert.Equal(t, []int{2}, got.LineRange)
	assert.Equal(t, issue.Low.Weight(), res.Scores.Severity[issue.Low])
	assert.Equal(t, issue.High.Weight(), res.Scores.Confidence[issue.High])
	assert.Contains(t, got.Code(3, false), "2 assert a")
}

func TestTesterExtendsLineRangeToReportedLine(t *testing.T) {
	rule := astcheck.NewRule("B902", "late_line", func(c *inspect.Context, _ astcheck.Config) *issue.Issue {
		i := issue.New(issue.High, issue.High, 0, "late")
		i.LineNumber = c.LinenoForCallArg("verify")
		return i
	}, []pyast.Kind{pyast.KindCall})

	src := "get(\n    'u',\n    verify=False,\n)\n"
	res, err := walk(t, "t.py", src, Options{Tests: setOf(rule)})
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, 3, res.Issues[0].LineNumber)
	assert.Equal(t, []int{1, 2, 3, 4}, res.Issues[0].LineRange)
}

func TestSuppressedLines(t *testing.T) {
	src := "assert True  # nosec\nassert False\n"
	f, err := pyast.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	defer f.Close()
	nosec := pyast.CommentLines(f.Root(), f.Source, "nosec")

	res, err := New("t.py", f, Options{Tests: setOf(always("B901", pyast.KindAssert)), Nosec: nosec}).Walk(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, 2, res.Issues[0].LineNumber)
	assert.Equal(t, 1, res.SkippedTests)

	res, err = New("t.py", f, Options{Tests: setOf(always("B901", pyast.KindAssert))}).Walk(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Issues, 2)
	assert.Zero(t, res.SkippedTests)
}

func TestIssuesShareSourceLines(t *testing.T) {
	src := "assert a\nassert b\nassert c\n"
	res, err := walk(t, "t.py", src, Options{Tests: setOf(always("B901", pyast.KindAssert))})
	require.NoError(t, err)
	require.Len(t, res.Issues, 3)

	first := res.Issues[0].Lines()
	require.NotEmpty(t, first)
	for _, i := range res.Issues[1:] {
		lines := i.Lines()
		require.Len(t, lines, len(first))
		assert.Same(t, &first[0], &lines[0])
	}
	assert.Equal(t, "2\tassert b\n", res.Issues[1].Code(1, true))
}

func TestSuppressionOnReportedLineCountsSkip(t *testing.T) {
	rule := astcheck.NewRule("B902", "late_line", func(c *inspect.Context, _ astcheck.Config) *issue.Issue {
		i := issue.New(issue.High, issue.High, 0, "late")
		i.LineNumber = c.LinenoForCallArg("verify")
		return i
	}, []pyast.Kind{pyast.KindCall})

	src := "get(\n    verify=False,  # nosec\n)\n"
	res, err := walk(t, "t.py", src, Options{Tests: setOf(rule), Nosec: map[int]bool{2: true}})
	require.NoError(t, err)
	assert.Empty(t, res.Issues)
	assert.Equal(t, 1, res.SkippedTests)
}

func TestPanickingRuleIsIsolated(t *testing.T) {
	boom := astcheck.NewRule("B903", "boom", func(*inspect.Context, astcheck.Config) *issue.Issue {
		panic("kaboom")
	}, []pyast.Kind{pyast.KindAssert})
	set := setOf(boom, always("B901", pyast.KindAssert))

	res, err := walk(t, "t.py", "assert x\n", Options{Tests: set})
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "B901", res.Issues[0].TestID)

	_, err = walk(t, "t.py", "assert x\n", Options{Tests: set, Debug: true})
	var rf *RuleFailure
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, "boom", rf.Rule)
	assert.Equal(t, 1, rf.Line)
	assert.Contains(t, rf.Error(), "error running boom on file t.py at line 1: kaboom")
}

func TestWalkHonoursCancellation(t *testing.T) {
	f, err := pyast.Parse(context.Background(), []byte("a = 1\n"))
	require.NoError(t, err)
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New("t.py", f, Options{Tests: setOf()}).Walk(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuiltinRulesEndToEnd(t *testing.T) {
	reg, err := extension.Default()
	require.NoError(t, err)
	res, err := config.Resolve(config.SystemDefaults(), reg, config.ResolveOptions{})
	require.NoError(t, err)
	set := testset.New(reg, res)

	out, err := walk(t, "t.py", "import hashlib as h\nh.md5(b\"x\")\n", Options{Tests: set})
	require.NoError(t, err)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, "B303", out.Issues[0].TestID)
	assert.Equal(t, 2, out.Issues[0].LineNumber)
	assert.Equal(t, issue.Medium, out.Issues[0].Severity)
}
