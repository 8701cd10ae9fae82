package issue

import "sort"

// Scores holds two histograms indexed by level; each bucket is a sum of weights.
type Scores struct {
	Severity   [4]int
	Confidence [4]int
}

// Add records one issue's weights.
func (s *Scores) Add(i *Issue) {
	s.Severity[i.Severity] += i.Severity.Weight()
	s.Confidence[i.Confidence] += i.Confidence.Weight()
}

// Merge sums o into s element-wise.
func (s *Scores) Merge(o Scores) {
	for k := range s.Severity {
		s.Severity[k] += o.Severity[k]
		s.Confidence[k] += o.Confidence[k]
	}
}

// Counts converts weights back into issue counts, keyed "SEVERITY.HIGH" etc.
func (s Scores) Counts() map[string]int {
	out := make(map[string]int, 8)
	for _, l := range Ranking {
		out["SEVERITY."+l.String()] = s.Severity[l] / l.Weight()
		out["CONFIDENCE."+l.String()] = s.Confidence[l] / l.Weight()
	}
	return out
}

// Sort orders issues for reporting. Aggregation "vuln" groups by rule name;
// anything else groups by filename. The sort is stable so traversal order
// within a group is kept.
func Sort(issues []*Issue, aggregate string) {
	key := func(i *Issue) string { return i.Filename }
	if aggregate == "vuln" {
		key = func(i *Issue) string { return i.TestName }
	}
	sort.SliceStable(issues, func(a, b int) bool { return key(issues[a]) < key(issues[b]) })
}
