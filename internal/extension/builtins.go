package extension

import (
	"os"
	"path/filepath"

	"github.com/chris-regnier/bailiff/internal/astcheck"
	"github.com/chris-regnier/bailiff/internal/output"
	"github.com/chris-regnier/bailiff/internal/rules"
)

// Builtins returns the lookup for the shipped rules and formatters. The
// rule list is the embedded one overlaid with any rule files in userDir and
// projectDir; either may be empty.
func Builtins(userDir, projectDir string) Lookup {
	return func(namespace string) []EntryPoint {
		switch namespace {
		case PluginsNamespace:
			var eps []EntryPoint
			for _, rule := range astcheck.Builtins() {
				rule := rule
				eps = append(eps, EntryPoint{
					Name: rule.Name,
					Load: func() (any, error) { return rule, nil },
				})
			}
			return eps
		case BlocklistsNamespace:
			return []EntryPoint{{
				Name: "blocklist",
				Load: func() (any, error) { return rules.LoadEntries(userDir, projectDir) },
			}}
		case FormattersNamespace:
			var eps []EntryPoint
			for name, f := range output.Builtins() {
				f := f
				eps = append(eps, EntryPoint{
					Name: name,
					Load: func() (any, error) { return f, nil },
				})
			}
			return eps
		}
		return nil
	}
}

// Combine merges several lookups; entry points keep the order of the
// lookups that supplied them.
func Combine(lookups ...Lookup) Lookup {
	return func(namespace string) []EntryPoint {
		var eps []EntryPoint
		for _, l := range lookups {
			eps = append(eps, l(namespace)...)
		}
		return eps
	}
}

// DefaultUserRulesDir returns ~/.config/bailiff/rules, or "" when the home
// directory is unknown.
func DefaultUserRulesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "bailiff", "rules")
}

// Default builds a registry over the built-in extensions only.
func Default() (*Registry, error) {
	return New(Builtins("", ""))
}
