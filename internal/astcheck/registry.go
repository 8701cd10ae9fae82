package astcheck

import (
	"sort"
)

// Registry holds rules in registration order.
type Registry struct {
	rules []Rule
	byID  map[string]int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]int)}
}

// Register adds a rule. Registering an ID again replaces the earlier rule
// in place.
func (r *Registry) Register(rule Rule) {
	if i, ok := r.byID[rule.ID]; ok {
		r.rules[i] = rule
		return
	}
	r.byID[rule.ID] = len(r.rules)
	r.rules = append(r.rules, rule)
}

// Get retrieves a rule by ID.
func (r *Registry) Get(id string) (Rule, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Rule{}, false
	}
	return r.rules[i], true
}

// Rules returns the rules in registration order.
func (r *Registry) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// Names returns all registered rule IDs in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		names = append(names, rule.ID)
	}
	sort.Strings(names)
	return names
}
