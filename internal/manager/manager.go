// Package manager drives a scan: it discovers the target files, runs the
// node visitor over each of them on a bounded worker pool, keeps the
// aggregated results, applies the baseline diff, and renders the report.
package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/chris-regnier/bailiff/internal/input"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/metrics"
	"github.com/chris-regnier/bailiff/internal/output"
	"github.com/chris-regnier/bailiff/internal/pyast"
	"github.com/chris-regnier/bailiff/internal/testset"
	"github.com/chris-regnier/bailiff/internal/visitor"
)

var tracer = otel.Tracer("github.com/chris-regnier/bailiff/internal/manager")

// DefaultNosecMarker is the comment text that suppresses a line.
const DefaultNosecMarker = "nosec"

// FormatterSource looks up report formatters by name.
type FormatterSource interface {
	Formatter(name string) (output.Formatter, bool)
}

// Options configures a Manager.
type Options struct {
	Tests      *testset.Set
	Formatters FormatterSource
	Input      input.Options
	// Aggregate is "file" or "vuln".
	Aggregate   string
	IgnoreNosec bool
	NosecMarker string
	Debug       bool
	// Workers bounds the number of files scanned at once. Zero uses
	// GOMAXPROCS.
	Workers           int
	ProgressThreshold int
	Progress          io.Writer
	Stdin             io.Reader
	Logger            *slog.Logger
	Recorder          *metrics.Recorder
}

// Manager owns the state of one scan.
type Manager struct {
	opts     Options
	handler  *input.Handler
	log      *slog.Logger
	recorder *metrics.Recorder

	files    []string
	excluded []string
	results  []*issue.Issue
	scores   map[string]issue.Scores
	skipped  []output.Skipped
	baseline []*issue.Issue
	hasBase  bool
}

// New creates a manager. Missing options get their defaults.
func New(opts Options) *Manager {
	if opts.Aggregate == "" {
		opts.Aggregate = "file"
	}
	if opts.NosecMarker == "" {
		opts.NosecMarker = DefaultNosecMarker
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.ProgressThreshold == 0 {
		opts.ProgressThreshold = DefaultProgressThreshold
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoOpRecorder()
	}

	h := input.NewHandler(opts.Input)
	if opts.Stdin != nil {
		h.WithStdin(opts.Stdin)
	}
	return &Manager{
		opts:     opts,
		handler:  h,
		log:      opts.Logger,
		recorder: opts.Recorder,
		scores:   make(map[string]issue.Scores),
	}
}

// DiscoverFiles resolves targets into the files to scan.
func (m *Manager) DiscoverFiles(targets []string) {
	d := m.handler.Discover(targets)
	m.files = d.Files
	m.excluded = d.Excluded
	m.log.Debug("discovered files", "files", len(m.files), "excluded", len(m.excluded))
}

// Files returns the files in scope, sorted.
func (m *Manager) Files() []string { return m.files }

// Excluded returns the walked files dropped by an exclude glob.
func (m *Manager) Excluded() []string { return m.excluded }

// Skipped returns the files that could not be scanned.
func (m *Manager) Skipped() []output.Skipped { return m.skipped }

// Metrics returns the per-file metrics collector.
func (m *Manager) Metrics() *metrics.Collector { return m.recorder.Collector() }

// fileResult is what one worker produces for one file.
type fileResult struct {
	path    string
	issues  []*issue.Issue
	scores  issue.Scores
	metrics metrics.FileMetrics
	skipped *output.Skipped
}

// RunTests scans every discovered file. Files are processed concurrently
// but results are kept in discovery order. A cancelled context discards
// all results and returns ErrInterrupted; in debug mode a rule failure
// aborts the scan.
func (m *Manager) RunTests(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "scan", trace.WithAttributes(
		attribute.Int("bailiff.files", len(m.files)),
		attribute.Int("bailiff.workers", m.opts.Workers),
	))
	defer span.End()

	results := make([]fileResult, len(m.files))
	prog := newProgress(m.opts.Progress, len(m.files), m.opts.ProgressThreshold)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for k, path := range m.files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r, err := m.scanFile(gctx, path)
			if err != nil {
				return err
			}
			results[k] = r
			prog.tick()
			return nil
		})
	}
	err := g.Wait()
	prog.done()

	if ctx.Err() != nil {
		span.SetStatus(codes.Error, "interrupted")
		return fmt.Errorf("%w: %v", ErrInterrupted, ctx.Err())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	for _, r := range results {
		if r.skipped != nil {
			m.skipped = append(m.skipped, *r.skipped)
			m.recorder.FileSkipped(ctx, r.path, r.skipped.Reason)
			continue
		}
		m.results = append(m.results, r.issues...)
		m.scores[r.path] = r.scores
		m.recorder.FileScanned(ctx, r.path, r.metrics, r.issues)
	}
	span.SetAttributes(
		attribute.Int("bailiff.issues", len(m.results)),
		attribute.Int("bailiff.skipped", len(m.skipped)),
	)
	return nil
}

// Scan discovers targets and runs the tests over them.
func (m *Manager) Scan(ctx context.Context, targets []string) error {
	m.DiscoverFiles(targets)
	return m.RunTests(ctx)
}

// scanFile reads, parses, and visits one file. Recoverable failures come
// back as a skipped entry; only cancellation and debug-mode rule failures
// are returned as errors.
func (m *Manager) scanFile(ctx context.Context, path string) (r fileResult, err error) {
	r.path = path
	ctx, span := tracer.Start(ctx, "scan file", trace.WithAttributes(attribute.String("bailiff.file", path)))
	defer span.End()

	skip := func(reason string) (fileResult, error) {
		m.log.Warn("skipping file", "file", path, "reason", reason)
		span.SetStatus(codes.Error, reason)
		r.skipped = &output.Skipped{Filename: path, Reason: reason}
		return r, nil
	}

	defer func() {
		if p := recover(); p != nil {
			if m.opts.Debug {
				panic(p)
			}
			m.log.Error("exception while scanning file", "file", path, "panic", p)
			r, err = skip(ReasonException)
		}
	}()

	src, err := m.handler.Read(path)
	if err != nil {
		return skip(ioReason(err))
	}

	f, err := pyast.Parse(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			return r, ctx.Err()
		}
		if errors.Is(err, pyast.ErrSyntax) {
			m.log.Debug("parse failed", "file", path, "error", err)
			return skip(ReasonSyntax)
		}
		return skip(ReasonException)
	}
	defer f.Close()

	nosec := pyast.CommentLines(f.Root(), src, m.opts.NosecMarker)
	r.metrics.LOC = metrics.CountLOC(src)
	r.metrics.Nosec = len(nosec)
	if m.opts.IgnoreNosec {
		nosec = map[int]bool{}
	}

	v := visitor.New(path, f, visitor.Options{
		Tests:  m.opts.Tests,
		Nosec:  nosec,
		Debug:  m.opts.Debug,
		Logger: m.log,
	})
	res, err := v.Walk(ctx)
	if err != nil {
		span.RecordError(err)
		if ctx.Err() != nil {
			return r, ctx.Err()
		}
		var rf *visitor.RuleFailure
		if errors.As(err, &rf) && m.opts.Debug {
			return r, err
		}
		return skip(ReasonException)
	}

	r.issues = res.Issues
	r.scores = res.Scores
	r.metrics.SkippedTests = res.SkippedTests
	r.metrics.Scores = res.Scores
	span.SetAttributes(attribute.Int("bailiff.issues", len(res.Issues)))
	return r, nil
}

// ioReason returns the bare OS error text of a read failure.
func ioReason(err error) string {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}
