package manager

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/output"
)

// ReportOptions are the report-time settings. Thresholds filter results
// without touching the stored issues, so one scan can be rendered at
// several levels.
type ReportOptions struct {
	Severity     issue.Level
	Confidence   issue.Level
	ContextLines int
	MsgTemplate  string
	Verbose      bool
	Quiet        bool
	Version      string
	GeneratedAt  time.Time
}

// Results returns every issue found, in traversal order.
func (m *Manager) Results() []*issue.Issue { return m.results }

// Scores returns the per-file score histograms.
func (m *Manager) Scores() map[string]issue.Scores { return m.scores }

// GetIssueList returns the issues meeting both thresholds, sorted by the
// aggregation mode. Under a baseline only issues absent from it are
// returned.
func (m *Manager) GetIssueList(sev, conf issue.Level) []*issue.Issue {
	var out []*issue.Issue
	for _, i := range m.results {
		if i.Filter(sev, conf) {
			out = append(out, i)
		}
	}
	if m.hasBase {
		out = CompareBaseline(m.baseline, out)
	}
	issue.Sort(out, m.opts.Aggregate)
	return out
}

// ResultsCount returns the number of issues meeting both thresholds.
func (m *Manager) ResultsCount(sev, conf issue.Level) int {
	return len(m.GetIssueList(sev, conf))
}

// Report assembles everything a formatter renders.
func (m *Manager) Report(opts ReportOptions) *output.Report {
	results := m.GetIssueList(opts.Severity, opts.Confidence)
	r := &output.Report{
		Results:         results,
		Baseline:        m.hasBase,
		Metrics:         m.Metrics().AsMap(),
		Scores:          m.scores,
		Skipped:         m.skipped,
		Files:           m.files,
		Excluded:        m.excluded,
		ContextLines:    opts.ContextLines,
		SeverityLevel:   opts.Severity,
		ConfidenceLevel: opts.Confidence,
		MsgTemplate:     opts.MsgTemplate,
		Verbose:         opts.Verbose,
		Quiet:           opts.Quiet,
		GeneratedAt:     opts.GeneratedAt,
		Version:         opts.Version,
	}
	if m.hasBase {
		r.Candidates = FindCandidates(results, m.baseline)
	}
	return r
}

// OutputResults renders the report with the named formatter and writes it
// to w. An unknown name falls back to "screen" on a terminal and "text"
// otherwise.
func (m *Manager) OutputResults(ctx context.Context, w io.Writer, format string, opts ReportOptions) error {
	f, name := m.formatter(format)
	_, span := tracer.Start(ctx, "format report", trace.WithAttributes(attribute.String("bailiff.format", name)))
	defer span.End()

	data, err := f.Format(m.Report(opts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &OutputFailure{Formatter: name, Err: err}
	}
	if _, err := w.Write(data); err != nil {
		return &OutputFailure{Formatter: name, Err: err}
	}
	return nil
}

func (m *Manager) formatter(name string) (output.Formatter, string) {
	if m.opts.Formatters != nil {
		if f, ok := m.opts.Formatters.Formatter(name); ok {
			return f, name
		}
	}
	fallback := output.ResolveFormat("", output.StdoutIsTTY())
	if name != "" {
		m.log.Warn("unknown formatter, falling back", "format", name, "fallback", fallback)
	}
	if m.opts.Formatters != nil {
		if f, ok := m.opts.Formatters.Formatter(fallback); ok {
			return f, fallback
		}
	}
	f, ok := output.Builtins()[fallback]
	if !ok {
		panic(fmt.Sprintf("missing builtin formatter %q", fallback))
	}
	return f, fallback
}
