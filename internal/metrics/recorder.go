package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/chris-regnier/bailiff/internal/issue"
)

const meterName = "github.com/chris-regnier/bailiff/internal/metrics"

// Recorder mirrors scan progress to OpenTelemetry counters. With no meter
// provider installed the instruments are no-ops.
type Recorder struct {
	collector *Collector

	filesScanned metric.Int64Counter
	filesSkipped metric.Int64Counter
	issuesFound  metric.Int64Counter
	linesScanned metric.Int64Counter
	nosecLines   metric.Int64Counter
}

// NewRecorder creates a recorder feeding collector and the global meter.
func NewRecorder(collector *Collector) (*Recorder, error) {
	meter := otel.Meter(meterName)
	r := &Recorder{collector: collector}

	var err error
	if r.filesScanned, err = meter.Int64Counter("bailiff.files.scanned",
		metric.WithDescription("Files parsed and inspected")); err != nil {
		return nil, err
	}
	if r.filesSkipped, err = meter.Int64Counter("bailiff.files.skipped",
		metric.WithDescription("Files that could not be read or parsed")); err != nil {
		return nil, err
	}
	if r.issuesFound, err = meter.Int64Counter("bailiff.issues",
		metric.WithDescription("Findings reported by rules")); err != nil {
		return nil, err
	}
	if r.linesScanned, err = meter.Int64Counter("bailiff.loc",
		metric.WithDescription("Lines of code inspected"), metric.WithUnit("{line}")); err != nil {
		return nil, err
	}
	if r.nosecLines, err = meter.Int64Counter("bailiff.nosec",
		metric.WithDescription("Lines carrying a suppression marker"), metric.WithUnit("{line}")); err != nil {
		return nil, err
	}
	return r, nil
}

// NoOpRecorder returns a recorder that only feeds a fresh collector.
func NoOpRecorder() *Recorder {
	r, err := NewRecorder(NewCollector())
	if err != nil {
		return &Recorder{collector: NewCollector()}
	}
	return r
}

// Collector returns the collector the recorder feeds.
func (r *Recorder) Collector() *Collector { return r.collector }

// FileScanned records a completed file and the issues found in it.
func (r *Recorder) FileScanned(ctx context.Context, path string, m FileMetrics, issues []*issue.Issue) {
	r.collector.Record(path, m)
	if r.filesScanned == nil {
		return
	}
	r.filesScanned.Add(ctx, 1)
	r.linesScanned.Add(ctx, int64(m.LOC))
	r.nosecLines.Add(ctx, int64(m.Nosec))
	for _, is := range issues {
		r.issuesFound.Add(ctx, 1, metric.WithAttributes(
			attribute.String("test_id", is.TestID),
			attribute.String("severity", is.Severity.String()),
			attribute.String("confidence", is.Confidence.String()),
		))
	}
}

// FileSkipped records a file that produced no results.
func (r *Recorder) FileSkipped(ctx context.Context, path, reason string) {
	r.collector.Discard(path)
	if r.filesSkipped == nil {
		return
	}
	r.filesSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
