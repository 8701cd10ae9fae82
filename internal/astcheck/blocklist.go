package astcheck

import (
	"strings"

	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/pyast"
	"github.com/chris-regnier/bailiff/internal/rules"
)

const (
	// BlocklistID is the reserved ID of the synthesized rule-list rule.
	BlocklistID = "B001"
	// BlocklistEntriesKey holds the map[pyast.Kind][]rules.Entry payload.
	BlocklistEntriesKey = "entries"
)

// Blocklist returns the rule that applies rule-list entries. It is
// subscribed to kinds and expects its entries in the config payload.
func Blocklist(checks []pyast.Kind) Rule {
	return NewRule(BlocklistID, "blocklist", blocklist, checks)
}

// BlocklistConfig wraps rule-list entries as the rule's config payload.
func BlocklistConfig(entries map[pyast.Kind][]rules.Entry) Config {
	return Config{BlocklistEntriesKey: entries}
}

func blocklist(c *inspect.Context, cfg Config) *issue.Issue {
	entries, _ := cfg[BlocklistEntriesKey].(map[pyast.Kind][]rules.Entry)
	list := entries[c.Kind]
	if len(list) == 0 {
		return nil
	}

	switch c.Kind {
	case pyast.KindCall:
		name, ok := calledName(c)
		if !ok {
			return nil
		}
		for i := range list {
			if list[i].MatchCall(name) {
				return list[i].Issue(name)
			}
		}
	case pyast.KindImport, pyast.KindImportFrom:
		prefix := ""
		if c.Kind == pyast.KindImportFrom {
			if mod := strings.TrimLeft(pyast.ImportModule(c.Node, c.Source), "."); mod != "" {
				prefix = mod + "."
			}
		}
		names := pyast.ImportNames(c.Node, c.Source)
		for i := range list {
			for _, n := range names {
				if list[i].MatchImport(prefix + n.Name) {
					return list[i].Issue(n.Name)
				}
			}
		}
	}
	return nil
}

// calledName returns the name a call is matched under. Dynamic imports
// through __import__ or importlib match on the imported module.
func calledName(c *inspect.Context) (string, bool) {
	fn := c.Node.ChildByFieldName("function")
	if fn != nil && fn.Type() == "identifier" && fn.Content(c.Source) == "__import__" {
		if c.CallArgsCount() == 0 {
			return "", true
		}
		if s, ok := c.CallArgAtPosition(0).(string); ok {
			if arg := c.CallArgNode(0); arg != nil && arg.Type() == "string" {
				return s, true
			}
		}
		return "UNKNOWN", true
	}

	name := c.CallFunctionNameQual()
	if name == "importlib.import_module" || name == "importlib.__import__" {
		var v any
		if c.CallArgsCount() > 0 {
			v = c.CallArgAtPosition(0)
		} else {
			v, _ = c.CallArgValue("name")
		}
		s, ok := v.(string)
		return s, ok
	}
	return name, true
}
