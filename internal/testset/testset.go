// Package testset materializes the rules to run for each node kind from
// the extension registry and a resolved configuration.
package testset

import (
	"github.com/chris-regnier/bailiff/internal/astcheck"
	"github.com/chris-regnier/bailiff/internal/config"
	"github.com/chris-regnier/bailiff/internal/pyast"
	"github.com/chris-regnier/bailiff/internal/rules"
)

// Bound is a rule paired with the configuration it is invoked with.
type Bound struct {
	Rule   astcheck.Rule
	Config astcheck.Config
}

// Source is the part of the extension registry a test set draws from.
type Source interface {
	Rules() []astcheck.Rule
	Entries() []rules.Entry
}

// Set maps node kinds to the ordered rules subscribed to them. It is
// read-only after New and shared by all workers.
type Set struct {
	tests map[pyast.Kind][]Bound
}

// New builds the test set. The rule-list rule comes first for every kind
// it targets; other rules follow in discovery order.
func New(src Source, res *config.Resolved) *Set {
	s := &Set{tests: make(map[pyast.Kind][]Bound)}

	if bl := blocklist(src, res); bl != nil {
		for _, kind := range bl.Rule.Checks {
			s.tests[kind] = append(s.tests[kind], *bl)
		}
	}

	for _, rule := range src.Rules() {
		if rule.ID == astcheck.BlocklistID || !res.Enabled(rule.ID) {
			continue
		}
		b := Bound{Rule: rule, Config: res.RuleConfig(rule)}
		for _, kind := range rule.Checks {
			s.tests[kind] = append(s.tests[kind], b)
		}
	}
	return s
}

// blocklist synthesizes the rule-list rule from the enabled entries, with
// legacy overrides applied. It returns nil when no entry is enabled.
func blocklist(src Source, res *config.Resolved) *Bound {
	overrides := make(map[string]rules.Entry, len(res.LegacyOverrides))
	for _, e := range res.LegacyOverrides {
		overrides[e.ID] = e
	}

	byKind := make(map[pyast.Kind][]rules.Entry)
	var order []pyast.Kind
	for _, e := range src.Entries() {
		if !res.Enabled(e.ID) {
			continue
		}
		if o, ok := overrides[e.ID]; ok {
			e = o
		}
		for _, name := range e.NodeKinds {
			kind, err := pyast.ParseKind(name)
			if err != nil {
				continue
			}
			if _, seen := byKind[kind]; !seen {
				order = append(order, kind)
			}
			byKind[kind] = append(byKind[kind], e)
		}
	}
	if len(byKind) == 0 {
		return nil
	}
	return &Bound{
		Rule:   astcheck.Blocklist(order),
		Config: astcheck.BlocklistConfig(byKind),
	}
}

// TestsForKind returns the rules to run on nodes of kind, in order.
func (s *Set) TestsForKind(kind pyast.Kind) []Bound {
	return s.tests[kind]
}

// Len returns the number of distinct rules in the set.
func (s *Set) Len() int {
	seen := make(map[string]bool)
	for _, list := range s.tests {
		for _, b := range list {
			seen[b.Rule.ID] = true
		}
	}
	return len(seen)
}
