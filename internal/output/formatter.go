// Package output renders scan results in the supported report formats and
// configures the process logger.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/metrics"
)

// Formatter renders a Report into a byte slice in a specific format.
// Formatters must not modify the report.
type Formatter interface {
	Format(report *Report) ([]byte, error)
}

// FormatterFunc adapts a function to the Formatter interface.
type FormatterFunc func(report *Report) ([]byte, error)

// Format calls f.
func (f FormatterFunc) Format(report *Report) ([]byte, error) { return f(report) }

// Skipped is a file that could not be scanned.
type Skipped struct {
	Filename string
	Reason   string
}

// Report is everything a formatter may render about one scan.
type Report struct {
	// Results are the filtered issues in report order. Under a baseline
	// they are the issues not present in the baseline.
	Results []*issue.Issue
	// Candidates maps each result to the baseline issues it may
	// correspond to. It is only set when Baseline is true.
	Candidates map[*issue.Issue][]*issue.Issue
	Baseline   bool

	// Metrics holds the per-file records plus the _totals bucket.
	Metrics map[string]map[string]int
	// Scores are the per-file weight sums, used by verbose text output.
	Scores   map[string]issue.Scores
	Skipped  []Skipped
	Files    []string
	Excluded []string

	ContextLines    int
	SeverityLevel   issue.Level
	ConfidenceLevel issue.Level
	MsgTemplate     string
	Verbose         bool
	Quiet           bool

	GeneratedAt time.Time
	Version     string
}

// Totals returns the _totals metrics bucket, or an empty one.
func (r *Report) Totals() map[string]int {
	if t, ok := r.Metrics[metrics.TotalsKey]; ok {
		return t
	}
	return metrics.FileMetrics{}.AsMap()
}

// CandidatesFor returns the baseline candidates recorded for i.
func (r *Report) CandidatesFor(i *issue.Issue) []*issue.Issue {
	if r.Candidates == nil {
		return nil
	}
	return r.Candidates[i]
}

// Builtins returns the formatters shipped with the tool, keyed by name.
func Builtins() map[string]Formatter {
	return map[string]Formatter{
		"csv":    &CSVFormatter{},
		"custom": &CustomFormatter{},
		"html":   &HTMLFormatter{},
		"json":   &JSONFormatter{},
		"sarif":  &SARIFFormatter{},
		"screen": &ScreenFormatter{},
		"text":   &TextFormatter{},
		"xml":    &XMLFormatter{},
		"yaml":   &YAMLFormatter{},
	}
}

// ResolveFormat determines the output format to use. If flagValue is
// non-empty it is returned directly. Otherwise "screen" is returned for TTY
// output and "text" for non-TTY (piped) output.
func ResolveFormat(flagValue string, stdoutIsTTY bool) string {
	if flagValue != "" {
		return flagValue
	}
	if stdoutIsTTY {
		return "screen"
	}
	return "text"
}

// StdoutIsTTY reports whether stdout is a terminal that accepts colour.
// NO_COLOR and TERM=dumb opt out.
func StdoutIsTTY() bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

const docsBase = "https://bandit.readthedocs.io/en/latest/"

// MoreInfo returns the documentation page of a rule. Rule-list entries
// link into the call and import list pages.
func MoreInfo(testID, testName string) string {
	id := strings.ToLower(testID)
	switch {
	case strings.HasPrefix(testID, "B3"):
		return fmt.Sprintf("%sblacklists/blacklist_calls.html#%s-%s", docsBase, id, testName)
	case strings.HasPrefix(testID, "B4"):
		return fmt.Sprintf("%sblacklists/blacklist_imports.html#%s-%s", docsBase, id, testName)
	default:
		return fmt.Sprintf("%splugins/%s_%s.html", docsBase, id, testName)
	}
}

// record returns the report record of i with its documentation link.
func record(i *issue.Issue, contextLines int) map[string]any {
	m := i.AsMap(true, contextLines)
	m["more_info"] = MoreInfo(i.TestID, i.TestName)
	return m
}

const timestampFormat = "2006-01-02T15:04:05Z"

func runTime(r *Report) time.Time {
	if r.GeneratedAt.IsZero() {
		return time.Now()
	}
	return r.GeneratedAt
}

func generatedAt(r *Report) string {
	return runTime(r).UTC().Format(timestampFormat)
}

// document builds the machine-readable report shared by json and yaml.
func document(r *Report) map[string]any {
	errs := make([]any, 0, len(r.Skipped))
	for _, s := range r.Skipped {
		errs = append(errs, map[string]any{"filename": s.Filename, "reason": s.Reason})
	}

	results := make([]any, 0, len(r.Results))
	for _, i := range r.Results {
		rec := record(i, r.ContextLines)
		if cands := r.CandidatesFor(i); r.Baseline && len(cands) > 0 {
			list := make([]any, 0, len(cands))
			for _, c := range cands {
				list = append(list, c.AsMap(true, r.ContextLines))
			}
			rec["candidates"] = list
		}
		results = append(results, rec)
	}

	m := make(map[string]any, len(r.Metrics))
	for file, rec := range r.Metrics {
		m[file] = rec
	}
	if _, ok := m[metrics.TotalsKey]; !ok {
		m[metrics.TotalsKey] = r.Totals()
	}

	return map[string]any{
		"errors":       errs,
		"generated_at": generatedAt(r),
		"metrics":      m,
		"results":      results,
	}
}
