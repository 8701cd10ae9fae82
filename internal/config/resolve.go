package config

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/chris-regnier/bailiff/internal/astcheck"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/rules"
)

// Catalog is the part of the extension registry the resolver consults.
type Catalog interface {
	IsKnownID(id string) bool
	IDForName(name string) (string, bool)
	EntryIDs() []string
	Entries() []rules.Entry
	BlocklistByName(name string) (rules.Entry, bool)
	Rules() []astcheck.Rule
}

// ResolveOptions carries the command-line selections.
type ResolveOptions struct {
	// Profile names a profile in the document, or is a comma-separated
	// list of rule IDs used as an ad-hoc include list.
	Profile string
	Tests   []string
	Skips   []string
}

// Resolved is the effective rule selection. It is read-only once built.
type Resolved struct {
	Include map[string]bool
	Exclude map[string]bool
	// LegacyOverrides replace the rule-list entries with the same ID.
	LegacyOverrides []rules.Entry

	ruleConfigs map[string]astcheck.Config
}

// Enabled reports whether the rule or rule-list entry id is selected.
func (r *Resolved) Enabled(id string) bool {
	if len(r.Include) > 0 && !r.Include[id] {
		return false
	}
	return !r.Exclude[id]
}

// RuleConfig returns the configuration block for a rule that takes one.
func (r *Resolved) RuleConfig(rule astcheck.Rule) astcheck.Config {
	if rule.TakesConfig == "" {
		return nil
	}
	return r.ruleConfigs[rule.TakesConfig]
}

// Legacy pseudo-IDs standing for groups of rule-list entries.
const (
	legacyCalls   = "blacklist_calls"
	legacyImports = "blacklist_imports"
)

// Resolve computes the effective rule selection for doc.
func Resolve(doc *Document, cat Catalog, opts ResolveOptions) (*Resolved, error) {
	if doc == nil {
		doc = SystemDefaults()
	}

	include, exclude := doc.Include, doc.Exclude
	if opts.Profile != "" {
		if p, ok := doc.Profiles[opts.Profile]; ok {
			include, exclude = p.Include, p.Exclude
		} else if adhoc := splitList(opts.Profile); knownAll(cat, adhoc) {
			include, exclude = adhoc, nil
		} else {
			return nil, fmt.Errorf("%w: %q", ErrProfileNotFound, opts.Profile)
		}
	}
	include = append(append([]string(nil), include...), opts.Tests...)
	exclude = append(append([]string(nil), exclude...), opts.Skips...)

	overrides, groups, err := legacyOverrides(doc, cat)
	if err != nil {
		return nil, err
	}

	res := &Resolved{
		Include:         normalize(include, cat, groups),
		Exclude:         normalize(exclude, cat, groups),
		LegacyOverrides: overrides,
	}

	expandBlocklistAlias(res.Include, cat)
	expandBlocklistAlias(res.Exclude, cat)

	var overlap, unknown []string
	for id := range res.Include {
		if res.Exclude[id] {
			overlap = append(overlap, id)
		}
	}
	for _, set := range []map[string]bool{res.Include, res.Exclude} {
		for id := range set {
			if !cat.IsKnownID(id) {
				unknown = append(unknown, id)
			}
		}
	}
	if len(overlap) > 0 {
		sort.Strings(overlap)
		return nil, fmt.Errorf("%w: rules both included and excluded: %s", ErrConfig, strings.Join(overlap, ", "))
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: unknown test found in profile: %s", ErrConfig, strings.Join(unknown, ", "))
	}

	res.ruleConfigs = make(map[string]astcheck.Config)
	for _, rule := range cat.Rules() {
		key := rule.TakesConfig
		if key == "" {
			continue
		}
		if _, done := res.ruleConfigs[key]; done {
			continue
		}
		switch block := doc.Block(key); {
		case block != nil:
			res.ruleConfigs[key] = astcheck.Config(block)
		case rule.DefaultConfig != nil:
			res.ruleConfigs[key] = rule.DefaultConfig()
		default:
			res.ruleConfigs[key] = astcheck.Config{}
		}
	}

	return res, nil
}

func knownAll(cat Catalog, ids []string) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if cat.IsKnownID(id) {
			continue
		}
		if _, ok := cat.IDForName(id); !ok {
			return false
		}
	}
	return true
}

// normalize maps names to IDs and legacy group names to their entry IDs.
// Unknown values are kept so the caller can report them.
func normalize(list []string, cat Catalog, groups map[string][]string) map[string]bool {
	out := make(map[string]bool, len(list))
	for _, v := range list {
		if ids, ok := groups[v]; ok {
			slog.Warn("legacy rule-list group in profile is deprecated, use rule IDs", "group", v)
			for _, id := range ids {
				out[id] = true
			}
			continue
		}
		if !cat.IsKnownID(v) {
			if id, ok := cat.IDForName(v); ok {
				v = id
			}
		}
		out[v] = true
	}
	return out
}

func expandBlocklistAlias(set map[string]bool, cat Catalog) {
	if !set[astcheck.BlocklistID] {
		return
	}
	delete(set, astcheck.BlocklistID)
	for _, id := range cat.EntryIDs() {
		set[id] = true
	}
}

// legacyOverrides converts the deprecated blacklist_calls/bad_name_sets and
// blacklist_imports/bad_import_sets blocks into rule-list overrides. It
// also returns the entry IDs each legacy group name stands for.
func legacyOverrides(doc *Document, cat Catalog) ([]rules.Entry, map[string][]string, error) {
	groups := map[string][]string{}
	for _, e := range cat.Entries() {
		group := legacyCalls
		for _, k := range e.NodeKinds {
			if k == "Import" || k == "ImportFrom" {
				group = legacyImports
			}
		}
		groups[group] = append(groups[group], e.ID)
	}

	var overrides []rules.Entry
	for _, legacy := range []struct{ group, sets, names string }{
		{legacyCalls, "bad_name_sets", "qualnames"},
		{legacyImports, "bad_import_sets", "imports"},
	} {
		block := doc.Block(legacy.group)
		if block == nil {
			continue
		}
		slog.Warn("legacy rule-list configuration is deprecated", "key", legacy.group+"."+legacy.sets)

		sets, ok := asList(block[legacy.sets])
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s.%s must be a list", ErrConfig, legacy.group, legacy.sets)
		}
		var ids []string
		for _, item := range sets {
			named, ok := asMap(item)
			if !ok {
				return nil, nil, fmt.Errorf("%w: %s.%s entries must be mappings", ErrConfig, legacy.group, legacy.sets)
			}
			for name, body := range named {
				e, err := legacyEntry(cat, name, body, legacy.names)
				if err != nil {
					return nil, nil, fmt.Errorf("%w: %s: %v", ErrConfig, legacy.group, err)
				}
				overrides = append(overrides, e)
				ids = append(ids, e.ID)
			}
		}
		sort.Strings(ids)
		groups[legacy.group] = ids
	}

	sort.SliceStable(overrides, func(i, j int) bool { return overrides[i].ID < overrides[j].ID })
	return overrides, groups, nil
}

var legacyPlaceholders = strings.NewReplacer("{func}", "{name}", "{module}", "{name}")

func legacyEntry(cat Catalog, name string, body any, namesKey string) (rules.Entry, error) {
	base, ok := cat.BlocklistByName(name)
	if !ok {
		base, ok = cat.BlocklistByName("import_" + name)
	}
	if !ok {
		return rules.Entry{}, fmt.Errorf("unknown rule-list entry %q", name)
	}

	fields, ok := asMap(body)
	if !ok {
		return rules.Entry{}, fmt.Errorf("entry %q must be a mapping", name)
	}
	e := base
	e.Qualnames = append([]string(nil), base.Qualnames...)
	if names, err := stringsKey(fields, namesKey, "qualnames"); err != nil {
		return rules.Entry{}, fmt.Errorf("entry %q: %w", name, err)
	} else if len(names) > 0 {
		e.Qualnames = names
	}
	if msg := asString(fields["message"]); msg != "" {
		e.Message = legacyPlaceholders.Replace(msg)
	}
	if level := asString(fields["level"]); level != "" {
		lvl, err := issue.ParseLevel(level)
		if err != nil {
			return rules.Entry{}, fmt.Errorf("entry %q: %w", name, err)
		}
		e.Severity = lvl.String()
	}
	if err := e.Compile(); err != nil {
		return rules.Entry{}, fmt.Errorf("entry %q: %w", name, err)
	}
	return e, nil
}
