package output

import (
	"fmt"
	"strings"

	"github.com/chris-regnier/bailiff/internal/issue"
)

// painter decorates the parts of a human-readable report.
type painter interface {
	header(s string) string
	issue(sev issue.Level, s string) string
	code(line string) string
}

type plainPainter struct{}

func (plainPainter) header(s string) string              { return s }
func (plainPainter) issue(_ issue.Level, s string) string { return s }
func (plainPainter) code(line string) string             { return line }

// TextFormatter renders the human-readable plain text report.
type TextFormatter struct{}

// Format renders the report as plain text.
func (f *TextFormatter) Format(r *Report) ([]byte, error) {
	return []byte(renderHuman(r, plainPainter{})), nil
}

const (
	runStartedFormat = "2006-01-02 15:04:05.000000"
	candidateIndent  = "          "
	separator        = "--------------------------------------------------"
)

// renderHuman builds the text and screen reports. In quiet mode a scan
// with no results prints nothing.
func renderHuman(r *Report, p painter) string {
	if r.Quiet && len(r.Results) == 0 {
		return ""
	}
	var bits []string
	add := func(format string, args ...any) { bits = append(bits, fmt.Sprintf(format, args...)) }

	bits = append(bits, p.header("Run started:"+runTime(r).UTC().Format(runStartedFormat)))
	if r.Verbose {
		bits = append(bits, verboseDetails(r, p)...)
	}

	bits = append(bits, p.header("\nTest results:"))
	bits = append(bits, results(r, p))

	totals := r.Totals()
	bits = append(bits, p.header("\nCode scanned:"))
	add("\tTotal lines of code: %d", totals["loc"])
	add("\tTotal lines skipped (#nosec): %d", totals["nosec"])
	add("\tTotal potential issues skipped due to specifically being disabled (e.g., #nosec BXXX): %d", totals["skipped_tests"])

	bits = append(bits, p.header("\nRun metrics:"))
	for _, criteria := range []string{"SEVERITY", "CONFIDENCE"} {
		add("\tTotal issues (by %s):", strings.ToLower(criteria))
		for _, l := range issue.Ranking {
			add("\t\t%s: %d", l.Title(), totals[criteria+"."+l.String()])
		}
	}

	bits = append(bits, p.header(fmt.Sprintf("Files skipped (%d):", len(r.Skipped))))
	for _, s := range r.Skipped {
		add("\t%s (%s)", s.Filename, s.Reason)
	}
	return strings.Join(bits, "\n") + "\n"
}

func verboseDetails(r *Report, p painter) []string {
	var bits []string
	bits = append(bits, p.header(fmt.Sprintf("Files in scope (%d):", len(r.Files))))
	for _, f := range r.Files {
		s := r.Scores[f]
		bits = append(bits, fmt.Sprintf("\t%s (score: {SEVERITY: %d, CONFIDENCE: %d})", f, sum(s.Severity), sum(s.Confidence)))
	}
	bits = append(bits, p.header(fmt.Sprintf("Files excluded (%d):", len(r.Excluded))))
	for _, f := range r.Excluded {
		bits = append(bits, "\t"+f)
	}
	return bits
}

func sum(v [4]int) int {
	t := 0
	for _, n := range v {
		t += n
	}
	return t
}

func results(r *Report, p painter) string {
	if len(r.Results) == 0 {
		return "\tNo issues identified."
	}
	var bits []string
	for _, i := range r.Results {
		cands := r.CandidatesFor(i)
		if !r.Baseline || len(cands) == 0 {
			bits = append(bits, issueText(i, "", r.ContextLines, true, p))
		} else {
			bits = append(bits, issueText(i, "", r.ContextLines, false, p))
			bits = append(bits, "-- Candidate Issues --")
			for _, c := range cands {
				bits = append(bits, issueText(c, candidateIndent, r.ContextLines, true, p))
				bits = append(bits, "\n")
			}
		}
		bits = append(bits, separator)
	}
	return strings.Join(bits, "\n")
}

// issueText renders one issue block. Without location details the line,
// column and code are left out since they differ between candidates.
func issueText(i *issue.Issue, indent string, lines int, withLocation bool, p painter) string {
	line, col := "", ""
	if withLocation {
		line, col = fmt.Sprint(i.LineNumber), fmt.Sprint(i.ColOffset)
	}
	head := []string{
		fmt.Sprintf("%s>> Issue: [%s:%s] %s", indent, i.TestID, i.TestName, i.Text),
		fmt.Sprintf("%s   Severity: %s   Confidence: %s", indent, i.Severity.Title(), i.Confidence.Title()),
		fmt.Sprintf("%s   CWE: %s", indent, i.CWE),
		fmt.Sprintf("%s   More Info: %s", indent, MoreInfo(i.TestID, i.TestName)),
		fmt.Sprintf("%s   Location: %s:%s:%s", indent, i.Filename, line, col),
	}
	bits := []string{p.issue(i.Severity, strings.Join(head, "\n"))}
	if withLocation {
		for _, l := range strings.Split(i.Code(lines, true), "\n") {
			bits = append(bits, indent+p.code(l))
		}
	}
	return strings.Join(bits, "\n")
}
