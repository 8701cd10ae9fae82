package rules

import _ "embed"

//go:embed blocklist.yaml
var blocklistYAML []byte

// DefaultEntries returns the built-in rule list.
func DefaultEntries() ([]Entry, error) {
	rf, err := ParseRuleFile(blocklistYAML)
	if err != nil {
		return nil, err
	}
	return rf.Entries(), nil
}
