// Package extension discovers and indexes the pluggable parts of the
// analyzer: inspection rules, rule-list data sets and report formatters.
package extension

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/chris-regnier/bailiff/internal/astcheck"
	"github.com/chris-regnier/bailiff/internal/output"
	"github.com/chris-regnier/bailiff/internal/pyast"
	"github.com/chris-regnier/bailiff/internal/rules"
)

// Discovery namespaces.
const (
	PluginsNamespace    = "bailiff.plugins"
	BlocklistsNamespace = "bailiff.blocklists"
	FormattersNamespace = "bailiff.formatters"
)

// ErrUnknownNodeKind is returned when a rule-list entry targets a node kind
// the engine does not dispatch on.
var ErrUnknownNodeKind = errors.New("unknown node kind")

// EntryPoint is one discoverable extension. Load yields an astcheck.Rule,
// a []rules.Entry data set or an output.Formatter depending on namespace.
type EntryPoint struct {
	Name string
	Load func() (any, error)
}

// Lookup lists the entry points registered under a namespace.
type Lookup func(namespace string) []EntryPoint

// Registry is the immutable index of everything discovered at startup. It
// is safe to share across goroutines once New returns.
type Registry struct {
	rules       *astcheck.Registry
	rulesByName map[string]string

	entries       []rules.Entry
	entryByID     map[string]int
	entryByName   map[string]int
	rulesetByKind map[pyast.Kind][]rules.Entry

	formatters map[string]output.Formatter
}

// New loads every entry point lookup exposes and indexes the results.
func New(lookup Lookup) (*Registry, error) {
	r := &Registry{
		rules:         astcheck.NewRegistry(),
		rulesByName:   make(map[string]string),
		entryByID:     make(map[string]int),
		entryByName:   make(map[string]int),
		rulesetByKind: make(map[pyast.Kind][]rules.Entry),
		formatters:    make(map[string]output.Formatter),
	}

	for _, ep := range lookup(PluginsNamespace) {
		v, err := ep.Load()
		if err != nil {
			slog.Warn("failed to load rule plugin", "plugin", ep.Name, "error", err)
			continue
		}
		switch x := v.(type) {
		case astcheck.Rule:
			r.addRule(ep.Name, x)
		case []astcheck.Rule:
			for _, rule := range x {
				r.addRule(ep.Name, rule)
			}
		default:
			slog.Warn("rule plugin has unexpected type", "plugin", ep.Name, "type", fmt.Sprintf("%T", v))
		}
	}

	for _, ep := range lookup(BlocklistsNamespace) {
		v, err := ep.Load()
		if err != nil {
			return nil, fmt.Errorf("loading rule list %s: %w", ep.Name, err)
		}
		entries, ok := v.([]rules.Entry)
		if !ok {
			slog.Warn("rule list plugin has unexpected type", "plugin", ep.Name, "type", fmt.Sprintf("%T", v))
			continue
		}
		if err := r.addEntries(entries); err != nil {
			return nil, fmt.Errorf("rule list %s: %w", ep.Name, err)
		}
	}

	for _, ep := range lookup(FormattersNamespace) {
		v, err := ep.Load()
		if err != nil {
			slog.Warn("failed to load formatter", "formatter", ep.Name, "error", err)
			continue
		}
		f, ok := v.(output.Formatter)
		if !ok {
			slog.Warn("formatter plugin has unexpected type", "formatter", ep.Name, "type", fmt.Sprintf("%T", v))
			continue
		}
		r.formatters[ep.Name] = f
	}

	return r, nil
}

func (r *Registry) addRule(plugin string, rule astcheck.Rule) {
	if rule.ID == "" {
		slog.Warn("skipping rule without an ID", "plugin", plugin, "rule", rule.Name)
		return
	}
	if rule.Fn == nil {
		slog.Warn("skipping rule without a check function", "plugin", plugin, "rule", rule.ID)
		return
	}
	if _, dup := r.rules.Get(rule.ID); dup {
		slog.Warn("rule ID registered twice, keeping the later one", "plugin", plugin, "rule", rule.ID)
	}
	r.rules.Register(rule)
	if rule.Name != "" {
		r.rulesByName[rule.Name] = rule.ID
	}
}

func (r *Registry) addEntries(entries []rules.Entry) error {
	for _, e := range entries {
		for _, name := range e.NodeKinds {
			if _, err := pyast.ParseKind(name); err != nil {
				return fmt.Errorf("%w: %q in entry %s", ErrUnknownNodeKind, name, e.ID)
			}
		}
		if i, ok := r.entryByID[e.ID]; ok {
			r.entries[i] = e
		} else {
			r.entryByID[e.ID] = len(r.entries)
			r.entries = append(r.entries, e)
		}
	}

	r.rulesetByKind = make(map[pyast.Kind][]rules.Entry)
	r.entryByName = make(map[string]int, len(r.entries))
	for i, e := range r.entries {
		r.entryByName[e.Name] = i
		for _, name := range e.NodeKinds {
			kind, _ := pyast.ParseKind(name)
			r.rulesetByKind[kind] = append(r.rulesetByKind[kind], e)
		}
	}
	return nil
}

// RuleByID returns the rule registered under id.
func (r *Registry) RuleByID(id string) (astcheck.Rule, bool) {
	return r.rules.Get(id)
}

// RuleByName returns the rule whose symbol is name.
func (r *Registry) RuleByName(name string) (astcheck.Rule, bool) {
	id, ok := r.rulesByName[name]
	if !ok {
		return astcheck.Rule{}, false
	}
	return r.rules.Get(id)
}

// Rules returns the rules in discovery order.
func (r *Registry) Rules() []astcheck.Rule {
	return r.rules.Rules()
}

// RuleIDs returns the IDs of all rules, sorted.
func (r *Registry) RuleIDs() []string {
	return r.rules.Names()
}

// Entries returns every rule-list entry in discovery order.
func (r *Registry) Entries() []rules.Entry {
	return append([]rules.Entry(nil), r.entries...)
}

// EntryIDs returns the IDs of all rule-list entries in discovery order.
func (r *Registry) EntryIDs() []string {
	ids := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		ids = append(ids, e.ID)
	}
	return ids
}

// RulesetForKind returns the rule-list entries targeting kind, in discovery order.
func (r *Registry) RulesetForKind(kind pyast.Kind) []rules.Entry {
	return append([]rules.Entry(nil), r.rulesetByKind[kind]...)
}

// BlocklistByID returns the rule-list entry with the given ID.
func (r *Registry) BlocklistByID(id string) (rules.Entry, bool) {
	i, ok := r.entryByID[id]
	if !ok {
		return rules.Entry{}, false
	}
	return r.entries[i], true
}

// BlocklistByName returns the rule-list entry with the given name.
func (r *Registry) BlocklistByName(name string) (rules.Entry, bool) {
	i, ok := r.entryByName[name]
	if !ok {
		return rules.Entry{}, false
	}
	return r.entries[i], true
}

// Formatter returns the formatter registered under name.
func (r *Registry) Formatter(name string) (output.Formatter, bool) {
	f, ok := r.formatters[name]
	return f, ok
}

// FormatterNames returns the registered formatter names, sorted.
func (r *Registry) FormatterNames() []string {
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsKnownID reports whether id names a rule, a rule-list entry, or the
// rule-list alias.
func (r *Registry) IsKnownID(id string) bool {
	if id == astcheck.BlocklistID {
		return true
	}
	if _, ok := r.rules.Get(id); ok {
		return true
	}
	_, ok := r.entryByID[id]
	return ok
}

// IDForName maps a rule or rule-list symbol to its ID.
func (r *Registry) IDForName(name string) (string, bool) {
	if id, ok := r.rulesByName[name]; ok {
		return id, true
	}
	if i, ok := r.entryByName[name]; ok {
		return r.entries[i].ID, true
	}
	return "", false
}
