package astcheck

import (
	"fmt"

	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/pyast"
)

// Config is the configuration block handed to rules that declare TakesConfig.
type Config map[string]any

// Strings returns the string list stored under key, or nil.
func (c Config) Strings(key string) []string {
	switch v := c[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			out = append(out, fmt.Sprint(x))
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}

// Bool returns the boolean stored under key, or false.
func (c Config) Bool(key string) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "True" || v == "1"
	}
	return false
}

// CheckFunc inspects a node and returns a finding or nil. A CheckFunc may
// panic; the tester recovers and reports it as a rule failure.
type CheckFunc func(c *inspect.Context, cfg Config) *issue.Issue

// Rule pairs a check with its metadata.
type Rule struct {
	ID     string
	Name   string
	Checks []pyast.Kind
	// TakesConfig names the configuration block passed to Fn.
	TakesConfig string
	// DefaultConfig supplies the block when the configuration lacks it.
	DefaultConfig func() Config

	// Hints only; the returned issue is authoritative.
	Severity   issue.Level
	Confidence issue.Level
	CWE        int

	Fn CheckFunc
}

// Option customizes a Rule built by NewRule.
type Option func(*Rule)

// NewRule builds a rule subscribed to the given node kinds.
func NewRule(id, name string, fn CheckFunc, checks []pyast.Kind, opts ...Option) Rule {
	r := Rule{ID: id, Name: name, Fn: fn, Checks: checks}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// WithConfig declares the configuration block the rule takes and its defaults.
func WithConfig(key string, defaults func() Config) Option {
	return func(r *Rule) {
		r.TakesConfig = key
		r.DefaultConfig = defaults
	}
}

// WithHints records the typical severity, confidence and CWE of the rule.
func WithHints(sev, conf issue.Level, cwe int) Option {
	return func(r *Rule) {
		r.Severity = sev
		r.Confidence = conf
		r.CWE = cwe
	}
}

// Subscribes reports whether the rule fires on kind.
func (r Rule) Subscribes(kind pyast.Kind) bool {
	for _, k := range r.Checks {
		if k == kind {
			return true
		}
	}
	return false
}

func kinds(k ...pyast.Kind) []pyast.Kind { return k }
