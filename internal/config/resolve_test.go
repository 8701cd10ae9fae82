package config

import (
	"errors"
	"slices"
	"sort"
	"strings"
	"testing"

	"github.com/chris-regnier/bailiff/internal/astcheck"
	"github.com/chris-regnier/bailiff/internal/extension"
)

func registry(t *testing.T) *extension.Registry {
	t.Helper()
	r, err := extension.Default()
	if err != nil {
		t.Fatalf("extension.Default() returned error: %v", err)
	}
	return r
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func mustResolve(t *testing.T, doc *Document, cat Catalog, opts ResolveOptions) *Resolved {
	t.Helper()
	res, err := Resolve(doc, cat, opts)
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}
	return res
}

func TestResolve_DefaultsEnableEverything(t *testing.T) {
	res := mustResolve(t, SystemDefaults(), registry(t), ResolveOptions{})
	if len(res.Include) != 0 || len(res.Exclude) != 0 {
		t.Errorf("expected empty include/exclude, got %v / %v", res.Include, res.Exclude)
	}
	for _, id := range []string{"B101", "B303"} {
		if !res.Enabled(id) {
			t.Errorf("expected %s enabled", id)
		}
	}
}

func TestResolve_Profile(t *testing.T) {
	doc, err := FromMap(map[string]any{
		"profiles": map[string]any{
			"minimal": map[string]any{"include": []any{"B102", "assert_used"}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	res := mustResolve(t, doc, registry(t), ResolveOptions{Profile: "minimal"})
	if got := keys(res.Include); !slices.Equal(got, []string{"B101", "B102"}) {
		t.Errorf("Include = %v, want [B101 B102]", got)
	}
	if !res.Enabled("B102") {
		t.Error("expected B102 enabled")
	}
	if res.Enabled("B303") {
		t.Error("expected B303 disabled by the profile")
	}
}

func TestResolve_ProfileNotFound(t *testing.T) {
	_, err := Resolve(SystemDefaults(), registry(t), ResolveOptions{Profile: "nope"})
	if !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestResolve_AdHocProfile(t *testing.T) {
	res := mustResolve(t, SystemDefaults(), registry(t), ResolveOptions{Profile: "B101,B303"})
	if got := keys(res.Include); !slices.Equal(got, []string{"B101", "B303"}) {
		t.Errorf("Include = %v", got)
	}
}

func TestResolve_BlocklistAlias(t *testing.T) {
	reg := registry(t)
	res := mustResolve(t, SystemDefaults(), reg, ResolveOptions{Tests: []string{"B001"}})

	if res.Include["B001"] {
		t.Error("B001 should expand to the rule-list ids, not stay in the set")
	}
	if len(res.Include) != len(reg.EntryIDs()) {
		t.Errorf("Include has %d ids, want %d", len(res.Include), len(reg.EntryIDs()))
	}
	if !res.Enabled("B401") {
		t.Error("expected B401 enabled")
	}
	if res.Enabled("B101") {
		t.Error("expected B101 disabled")
	}
}

func TestResolve_OverlapIsError(t *testing.T) {
	tests := []struct {
		name         string
		tests, skips []string
	}{
		{"id and name", []string{"B101"}, []string{"assert_used"}},
		{"rule-list alias", []string{"B001"}, []string{"B303"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(SystemDefaults(), registry(t), ResolveOptions{Tests: tc.tests, Skips: tc.skips})
			if !errors.Is(err, ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestResolve_UnknownIsError(t *testing.T) {
	_, err := Resolve(SystemDefaults(), registry(t), ResolveOptions{Skips: []string{"B999"}})
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
	if !strings.Contains(err.Error(), "B999") {
		t.Errorf("error %q should name the unknown id", err)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	reg := registry(t)
	a := mustResolve(t, SystemDefaults(), reg, ResolveOptions{Tests: []string{"B101", "B102"}})
	b := mustResolve(t, SystemDefaults(), reg, ResolveOptions{Tests: []string{"B101", "B102", "B101"}})
	if !slices.Equal(keys(a.Include), keys(b.Include)) {
		t.Errorf("duplicate include changed the set: %v vs %v", keys(a.Include), keys(b.Include))
	}

	c := mustResolve(t, SystemDefaults(), reg, ResolveOptions{Skips: []string{"B105"}})
	d := mustResolve(t, SystemDefaults(), reg, ResolveOptions{Tests: []string{}, Skips: []string{"B105", "B105"}})
	if !slices.Equal(keys(c.Exclude), keys(d.Exclude)) {
		t.Errorf("duplicate exclude changed the set: %v vs %v", keys(c.Exclude), keys(d.Exclude))
	}
}

func TestRuleConfig_FallsBackToDefaults(t *testing.T) {
	reg := registry(t)
	doc, err := FromMap(map[string]any{
		"hardcoded_tmp_directory": map[string]any{"tmp_dirs": []any{"/scratch"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	res := mustResolve(t, doc, reg, ResolveOptions{})

	rule := func(id string) astcheck.Rule {
		r, ok := reg.RuleByID(id)
		if !ok {
			t.Fatalf("rule %s not registered", id)
		}
		return r
	}

	if got := res.RuleConfig(rule("B108")).Strings("tmp_dirs"); !slices.Equal(got, []string{"/scratch"}) {
		t.Errorf("B108 tmp_dirs = %v, want configured value", got)
	}
	if got := res.RuleConfig(rule("B602")).Strings("subprocess"); !slices.Contains(got, "subprocess.Popen") {
		t.Errorf("B602 subprocess = %v, want rule defaults", got)
	}
	if cfg := res.RuleConfig(rule("B102")); cfg != nil {
		t.Errorf("B102 takes no config, got %v", cfg)
	}
}

func TestResolve_LegacyBlocklist(t *testing.T) {
	doc, err := FromMap(map[string]any{
		"profiles": map[string]any{
			"legacy": map[string]any{"include": []any{"blacklist_calls"}},
		},
		"blacklist_calls": map[string]any{
			"bad_name_sets": []any{
				map[string]any{"pickle": map[string]any{
					"qualnames": []any{"pickle.loads"},
					"message":   "Pickle use: {func}",
				}},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	res := mustResolve(t, doc, registry(t), ResolveOptions{Profile: "legacy"})
	if got := keys(res.Include); !slices.Equal(got, []string{"B301"}) {
		t.Errorf("Include = %v, want [B301]", got)
	}
	if len(res.LegacyOverrides) != 1 {
		t.Fatalf("expected 1 legacy override, got %d", len(res.LegacyOverrides))
	}

	e := res.LegacyOverrides[0]
	if e.ID != "B301" {
		t.Errorf("ID = %q, want B301", e.ID)
	}
	if !slices.Equal(e.Qualnames, []string{"pickle.loads"}) {
		t.Errorf("Qualnames = %v", e.Qualnames)
	}
	if e.Message != "Pickle use: {name}" {
		t.Errorf("Message = %q", e.Message)
	}
	if !e.MatchCall("pickle.loads") {
		t.Error("expected override to match pickle.loads")
	}
	if e.MatchCall("pickle.load") {
		t.Error("override should replace the built-in qualnames")
	}
}

func TestResolve_LegacyImportsGroupWithoutOverrides(t *testing.T) {
	doc, err := FromMap(map[string]any{"exclude": []any{"blacklist_imports"}})
	if err != nil {
		t.Fatal(err)
	}
	res := mustResolve(t, doc, registry(t), ResolveOptions{})
	if !res.Exclude["B401"] {
		t.Error("expected B401 excluded")
	}
	if res.Exclude["B301"] {
		t.Error("call entries should not be excluded by blacklist_imports")
	}
	if !res.Enabled("B301") {
		t.Error("expected B301 enabled")
	}
}

func TestResolve_LegacyUnknownName(t *testing.T) {
	doc, err := FromMap(map[string]any{
		"blacklist_imports": map[string]any{
			"bad_import_sets": []any{
				map[string]any{"gopher": map[string]any{"imports": []any{"gopherlib"}}},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Resolve(doc, registry(t), ResolveOptions{}); !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestResolve_BlocklistIDIsKnown(t *testing.T) {
	if !registry(t).IsKnownID(astcheck.BlocklistID) {
		t.Errorf("%s should be a known id", astcheck.BlocklistID)
	}
}
