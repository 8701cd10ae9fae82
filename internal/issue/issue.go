// Package issue defines the finding record produced by rules, its equality
// and filtering semantics, and the per-file score histograms.
package issue

import (
	"fmt"
	"strings"
)

// CWE references a Common Weakness Enumeration entry. The zero value means unset.
type CWE struct {
	ID int
}

const cweLinkFormat = "https://cwe.mitre.org/data/definitions/%d.html"

// Link returns the MITRE reference URL, or "" when unset.
func (c CWE) Link() string {
	if c.ID == 0 {
		return ""
	}
	return fmt.Sprintf(cweLinkFormat, c.ID)
}

func (c CWE) String() string {
	if c.ID == 0 {
		return ""
	}
	return fmt.Sprintf("CWE-%d (%s)", c.ID, c.Link())
}

// AsMap returns the {id, link} record used in reports.
func (c CWE) AsMap() map[string]any {
	return map[string]any{"id": c.ID, "link": c.Link()}
}

// Issue is a single finding.
type Issue struct {
	Severity     Level
	Confidence   Level
	CWE          CWE
	TestID       string
	TestName     string
	Text         string
	Filename     string
	LineNumber   int
	LineRange    []int
	ColOffset    int
	EndColOffset int

	// code holds a snippet restored from a report; lines holds the scanned
	// source so snippets can be rendered at any width later.
	code  string
	lines []string
}

// New builds an issue with the fields a rule is expected to fill in.
func New(sev, conf Level, cwe int, text string) *Issue {
	return &Issue{Severity: sev, Confidence: conf, CWE: CWE{ID: cwe}, Text: text}
}

func (i *Issue) String() string {
	return fmt.Sprintf("Issue: '%s' from %s:%s: CWE: %s, Severity: %s Confidence: %s at %s:%d:%d",
		i.Text, i.TestID, i.TestName, i.CWE, i.Severity, i.Confidence, i.Filename, i.LineNumber, i.ColOffset)
}

// Equal compares the fields that identify a finding across runs. Line
// numbers are not compared so baselines tolerate code moving around.
func (i *Issue) Equal(o *Issue) bool {
	if i == nil || o == nil {
		return i == o
	}
	return i.Text == o.Text &&
		i.Severity == o.Severity &&
		i.Confidence == o.Confidence &&
		i.Filename == o.Filename &&
		i.TestName == o.TestName &&
		i.TestID == o.TestID
}

// SameCandidate reports whether o could be the same finding as i after a
// line shift: same rule, same file, same message.
func (i *Issue) SameCandidate(o *Issue) bool {
	return i.TestID == o.TestID && i.Filename == o.Filename && i.Text == o.Text
}

// Filter reports whether both ranks meet the thresholds.
func (i *Issue) Filter(sev, conf Level) bool {
	return i.Severity >= sev && i.Confidence >= conf
}

// SplitLines splits src into lines that keep their line endings.
func SplitLines(src []byte) []string {
	return strings.SplitAfter(string(src), "\n")
}

// SetSource attaches the scanned file contents used by Code.
func (i *Issue) SetSource(src []byte) {
	i.lines = SplitLines(src)
}

// SetLines attaches already split source lines. Issues from one file share
// the slice, so it must not be modified.
func (i *Issue) SetLines(lines []string) {
	i.lines = lines
}

// Lines returns the source lines attached to the issue, or nil.
func (i *Issue) Lines() []string {
	return i.lines
}

// Code renders up to maxLines of numbered source around the issue,
// extended by the issue's line span. Tabbed output separates the number
// with a tab instead of a space.
func (i *Issue) Code(maxLines int, tabbed bool) string {
	if i.lines == nil {
		return i.code
	}
	if maxLines < 1 {
		maxLines = 1
	}
	lmin := i.LineNumber - maxLines/2
	if lmin < 1 {
		lmin = 1
	}
	lmax := lmin + len(i.LineRange) + maxLines - 1

	format := "%d %s"
	if tabbed {
		format = "%d\t%s"
	}
	var b strings.Builder
	for n := lmin; n < lmax; n++ {
		if n-1 >= len(i.lines) || i.lines[n-1] == "" {
			break
		}
		fmt.Fprintf(&b, format, n, i.lines[n-1])
	}
	return b.String()
}

// AsMap returns the report record for the issue.
func (i *Issue) AsMap(withCode bool, maxLines int) map[string]any {
	lr := i.LineRange
	if lr == nil {
		lr = []int{}
	}
	out := map[string]any{
		"filename":         i.Filename,
		"test_name":        i.TestName,
		"test_id":          i.TestID,
		"issue_severity":   i.Severity.String(),
		"issue_cwe":        i.CWE.AsMap(),
		"issue_confidence": i.Confidence.String(),
		"issue_text":       i.Text,
		"line_number":      i.LineNumber,
		"line_range":       lr,
		"col_offset":       i.ColOffset,
		"end_col_offset":   i.EndColOffset,
	}
	if withCode {
		out["code"] = i.Code(maxLines, false)
	}
	return out
}

// FromRecord rebuilds an issue from a decoded report record.
func FromRecord(rec map[string]any) (*Issue, error) {
	i := &Issue{}
	var err error
	if i.Severity, err = ParseLevel(str(rec["issue_severity"])); err != nil {
		return nil, fmt.Errorf("issue_severity: %w", err)
	}
	if i.Confidence, err = ParseLevel(str(rec["issue_confidence"])); err != nil {
		return nil, fmt.Errorf("issue_confidence: %w", err)
	}
	i.Filename = str(rec["filename"])
	i.TestID = str(rec["test_id"])
	i.TestName = str(rec["test_name"])
	i.Text = str(rec["issue_text"])
	i.LineNumber = num(rec["line_number"])
	i.ColOffset = num(rec["col_offset"])
	i.EndColOffset = num(rec["end_col_offset"])
	i.code = str(rec["code"])
	if lr, ok := rec["line_range"].([]any); ok {
		for _, v := range lr {
			i.LineRange = append(i.LineRange, num(v))
		}
	}
	if c, ok := rec["issue_cwe"].(map[string]any); ok {
		i.CWE.ID = num(c["id"])
	}
	if i.TestID == "" || i.Filename == "" {
		return nil, fmt.Errorf("record is missing test_id or filename")
	}
	return i, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}
