// Package rules holds the data-only rule list: qualified-name patterns that
// are flagged whenever a matching call or import is seen.
package rules

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/chris-regnier/bailiff/internal/issue"
)

// Entry is one rule-list item.
type Entry struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	NodeKinds  []string `yaml:"node_kinds,omitempty"`
	Qualnames  []string `yaml:"qualnames"`
	Message    string   `yaml:"message"`
	Severity   string   `yaml:"severity"`
	Confidence string   `yaml:"confidence,omitempty"`
	CWE        int      `yaml:"cwe,omitempty"`

	patterns []glob.Glob
}

// RuleFile is the on-disk shape of a rule-list document. Entries under
// "calls" target Call nodes; entries under "imports" target Import,
// ImportFrom and the dynamic-import calls.
type RuleFile struct {
	Calls   []Entry `yaml:"calls"`
	Imports []Entry `yaml:"imports"`
}

var (
	callKinds   = []string{"Call"}
	importKinds = []string{"Import", "ImportFrom", "Call"}
)

// Entries returns all entries in document order, calls first.
func (rf *RuleFile) Entries() []Entry {
	out := make([]Entry, 0, len(rf.Calls)+len(rf.Imports))
	out = append(out, rf.Calls...)
	return append(out, rf.Imports...)
}

// ParseRuleFile decodes and validates a rule-list document.
func ParseRuleFile(data []byte) (*RuleFile, error) {
	var rf RuleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing rule file: %w", err)
	}

	seen := make(map[string]bool)
	prepare := func(list []Entry, kinds []string) error {
		for i := range list {
			e := &list[i]
			if len(e.NodeKinds) == 0 {
				e.NodeKinds = kinds
			}
			if err := e.Compile(); err != nil {
				return fmt.Errorf("entry %q (index %d): %w", e.ID, i, err)
			}
			if seen[e.ID] {
				return fmt.Errorf("duplicate entry ID %q", e.ID)
			}
			seen[e.ID] = true
		}
		return nil
	}
	if err := prepare(rf.Calls, callKinds); err != nil {
		return nil, err
	}
	if err := prepare(rf.Imports, importKinds); err != nil {
		return nil, err
	}
	return &rf, nil
}

// Compile validates the entry and prepares its patterns. It must be called
// again after Qualnames change.
func (e *Entry) Compile() error {
	if err := validateEntry(e); err != nil {
		return err
	}
	if e.Confidence == "" {
		e.Confidence = "HIGH"
	}
	e.patterns = make([]glob.Glob, 0, len(e.Qualnames))
	for _, qn := range e.Qualnames {
		g, err := glob.Compile(qn)
		if err != nil {
			return fmt.Errorf("invalid qualname pattern %q: %w", qn, err)
		}
		e.patterns = append(e.patterns, g)
	}
	return nil
}

func validateEntry(e *Entry) error {
	if e.ID == "" {
		return fmt.Errorf("missing required field: id")
	}
	if e.Name == "" {
		return fmt.Errorf("missing required field: name")
	}
	if len(e.Qualnames) == 0 {
		return fmt.Errorf("missing required field: qualnames")
	}
	if e.Message == "" {
		return fmt.Errorf("missing required field: message")
	}
	if _, err := issue.ParseLevel(e.Severity); err != nil || e.Severity == "" {
		return fmt.Errorf("severity must be LOW, MEDIUM or HIGH, got %q", e.Severity)
	}
	if e.Confidence != "" {
		if _, err := issue.ParseLevel(e.Confidence); err != nil {
			return fmt.Errorf("invalid confidence: %w", err)
		}
	}
	return nil
}

// MatchCall reports whether a called name matches one of the patterns.
// Entries must be compiled first.
func (e *Entry) MatchCall(name string) bool {
	for _, g := range e.patterns {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// MatchImport reports whether an imported dotted name starts with one of
// the qualnames.
func (e *Entry) MatchImport(name string) bool {
	for _, qn := range e.Qualnames {
		if strings.HasPrefix(name, qn) {
			return true
		}
	}
	return false
}

// Issue builds the finding for a match on name.
func (e *Entry) Issue(name string) *issue.Issue {
	sev, _ := issue.ParseLevel(e.Severity)
	conf, err := issue.ParseLevel(e.Confidence)
	if err != nil || e.Confidence == "" {
		conf = issue.High
	}
	i := issue.New(sev, conf, e.CWE, strings.ReplaceAll(e.Message, "{name}", name))
	i.TestID = e.ID
	i.TestName = e.Name
	return i
}

// ByKind groups entries under each node kind they target, keeping order.
func ByKind(entries []Entry) map[string][]Entry {
	out := make(map[string][]Entry)
	for _, e := range entries {
		for _, k := range e.NodeKinds {
			out[k] = append(out[k], e)
		}
	}
	return out
}
