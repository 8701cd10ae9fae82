package astcheck

import (
	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/pyast"
)

var safeLoaders = []string{"SafeLoader", "CSafeLoader", "BaseLoader", "CBaseLoader"}

// YamlLoad flags yaml.load calls that do not pin a safe loader.
func YamlLoad() Rule {
	return NewRule("B506", "yaml_load", yamlLoad, kinds(pyast.KindCall),
		WithHints(issue.Medium, issue.High, 20))
}

func yamlLoad(c *inspect.Context, _ Config) *issue.Issue {
	if !c.IsModuleImportedExact("yaml") {
		return nil
	}
	qual := c.CallFunctionNameQual()
	if !hasPart(qual, "yaml") || c.CallFunctionName() != "load" {
		return nil
	}
	if v, ok := c.CallArgValue("Loader"); ok && contains(safeLoaders, lastPart(asString(v))) {
		return nil
	}
	if v := c.CallArgAtPosition(1); v != nil && contains(safeLoaders, lastPart(asString(v))) {
		return nil
	}
	return issue.New(issue.Medium, issue.High, 20,
		"Use of unsafe yaml load. Allows instantiation of arbitrary objects. Consider yaml.safe_load().")
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
