// Package visitor walks a parsed Python file depth-first, tracking the
// import-alias table and namespace of the file, and hands every node to
// the rules subscribed to its kind.
package visitor

import (
	"context"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/pyast"
	"github.com/chris-regnier/bailiff/internal/testset"
)

// Options configures a single file walk.
type Options struct {
	Tests *testset.Set
	// Nosec holds the suppressed lines. Pass nil to ignore suppressions.
	Nosec  map[int]bool
	Debug  bool
	Logger *slog.Logger
}

// Result is what one file walk produced.
type Result struct {
	Issues       []*issue.Issue
	Scores       issue.Scores
	SkippedTests int
}

// Visitor walks one file. It is not safe for concurrent use; each worker
// builds its own.
type Visitor struct {
	filename string
	file     *pyast.File
	tester   *Tester

	imports map[string]bool
	aliases map[string]string
	ns      *namespace
}

// New prepares a walk of f, which was read from filename.
func New(filename string, f *pyast.File, opts Options) *Visitor {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	module, err := ModuleName(filename)
	if err != nil {
		log.Debug("module name unavailable", "file", filename, "error", err)
	}
	return &Visitor{
		filename: filename,
		file:     f,
		tester:   NewTester(opts.Tests, f.Source, opts.Nosec, opts.Debug, log),
		imports:  make(map[string]bool),
		aliases:  make(map[string]string),
		ns:       newNamespace(module),
	}
}

// Walk visits every node of the file. It stops early when ctx is done or,
// in debug mode, when a rule panics.
func (v *Visitor) Walk(ctx context.Context) (*Result, error) {
	if err := v.visit(ctx, v.file.Root(), nil, nil); err != nil {
		return nil, err
	}
	return &Result{
		Issues:       v.tester.Results(),
		Scores:       v.tester.Scores(),
		SkippedTests: v.tester.Skipped(),
	}, nil
}

func (v *Visitor) visit(ctx context.Context, n, parent, stmt *sitter.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if isStatement(n) {
		stmt = n
	}

	kind := pyast.KindOf(n, v.file.Source)
	if kind != pyast.KindUnknown && !isDocstring(kind, parent) {
		if err := v.dispatch(n, kind, parent, stmt); err != nil {
			return err
		}
	}

	if kind == pyast.KindFunctionDef || kind == pyast.KindClassDef {
		v.ns.push(pyast.Name(n, v.file.Source))
		defer v.ns.pop()
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		if err := v.visit(ctx, child, n, stmt); err != nil {
			return err
		}
	}
	return nil
}

// dispatch builds the context for n, updates the file-scope tables and
// runs the subscribed rules. The tester drops findings on suppressed lines.
func (v *Visitor) dispatch(n *sitter.Node, kind pyast.Kind, parent, stmt *sitter.Node) error {
	src := v.file.Source
	c := &inspect.Context{
		Node:          n,
		Kind:          kind,
		Parent:        parent,
		Sibling:       pyast.NextSibling(n),
		Stmt:          stmt,
		Filename:      v.filename,
		Source:        src,
		LineNumber:    pyast.Line(n),
		LineRange:     pyast.LineRange(n),
		ColOffset:     int(n.StartPoint().Column),
		EndColOffset:  int(n.EndPoint().Column),
		Imports:       v.imports,
		ImportAliases: v.aliases,
	}

	switch kind {
	case pyast.KindImport:
		c.Module = v.addImports("", pyast.ImportNames(n, src))
	case pyast.KindImportFrom:
		module := strings.TrimLeft(pyast.ImportModule(n, src), ".")
		c.Module = v.addImports(module, pyast.ImportNames(n, src))
		if module != "" {
			c.Module = module
		}
	case pyast.KindCall:
		c.Qualname = pyast.CallName(n, src, v.aliases)
		c.Name = lastPart(c.Qualname)
	case pyast.KindFunctionDef:
		c.Name = pyast.Name(n, src)
		c.Qualname = v.ns.qualify(c.Name)
	}

	return v.tester.Run(c)
}

// addImports records the names bound by an import statement. For a
// from-import module is the source module; for a plain import it is "".
// It returns the last name imported.
func (v *Visitor) addImports(module string, names []pyast.ImportName) string {
	last := ""
	for _, in := range names {
		full := in.Name
		if module != "" {
			full = module + "." + in.Name
		}
		v.imports[full] = true
		last = full

		local := in.Alias
		if local == "" && module != "" && in.Name != "*" {
			local = in.Name
		}
		if local != "" && local != full {
			v.aliases[local] = full
		}
	}
	return last
}

// isStatement reports whether n is a simple or compound statement.
func isStatement(n *sitter.Node) bool {
	t := n.Type()
	return strings.HasSuffix(t, "_statement") || strings.HasSuffix(t, "_definition")
}

// isDocstring reports whether a string literal stands alone as an
// expression statement.
func isDocstring(kind pyast.Kind, parent *sitter.Node) bool {
	if kind != pyast.KindStr && kind != pyast.KindBytes {
		return false
	}
	return parent != nil && parent.Type() == "expression_statement"
}

func lastPart(qualname string) string {
	if i := strings.LastIndex(qualname, "."); i >= 0 {
		return qualname[i+1:]
	}
	return qualname
}
