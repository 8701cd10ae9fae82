package manager

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chris-regnier/bailiff/internal/issue"
)

// LoadBaseline reads the results of a prior JSON report.
func LoadBaseline(path string) ([]*issue.Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrBaselineLoad, path, err)
	}
	var doc struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrBaselineLoad, path, err)
	}
	out := make([]*issue.Issue, 0, len(doc.Results))
	for k, rec := range doc.Results {
		i, err := issue.FromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%w %s: result %d: %v", ErrBaselineLoad, path, k, err)
		}
		out = append(out, i)
	}
	return out, nil
}

// SetBaseline loads the baseline report at path. A report that cannot be
// loaded is logged and treated as empty.
func (m *Manager) SetBaseline(path string) {
	m.hasBase = true
	b, err := LoadBaseline(path)
	if err != nil {
		m.log.Warn("could not open baseline report", "path", path, "error", err)
		m.baseline = nil
		return
	}
	m.baseline = b
}

// UseBaseline installs an already loaded baseline.
func (m *Manager) UseBaseline(b []*issue.Issue) {
	m.hasBase = true
	m.baseline = b
}

// CompareBaseline returns the results with no equal issue in the baseline.
func CompareBaseline(baseline, results []*issue.Issue) []*issue.Issue {
	var out []*issue.Issue
	for _, r := range results {
		if !contains(baseline, r) {
			out = append(out, r)
		}
	}
	return out
}

func contains(list []*issue.Issue, i *issue.Issue) bool {
	for _, b := range list {
		if b.Equal(i) {
			return true
		}
	}
	return false
}

// FindCandidates maps each new issue to the baseline issues with the same
// rule, file, and message.
func FindCandidates(newIssues, baseline []*issue.Issue) map[*issue.Issue][]*issue.Issue {
	out := make(map[*issue.Issue][]*issue.Issue, len(newIssues))
	for _, n := range newIssues {
		var cands []*issue.Issue
		for _, b := range baseline {
			if n.SameCandidate(b) {
				cands = append(cands, b)
			}
		}
		out[n] = cands
	}
	return out
}
