package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/bailiff/internal/config"
	"github.com/chris-regnier/bailiff/internal/evaluator"
	"github.com/chris-regnier/bailiff/internal/extension"
	"github.com/chris-regnier/bailiff/internal/input"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/manager"
	"github.com/chris-regnier/bailiff/internal/metrics"
	"github.com/chris-regnier/bailiff/internal/output"
	"github.com/chris-regnier/bailiff/internal/sarif"
	"github.com/chris-regnier/bailiff/internal/telemetry"
	"github.com/chris-regnier/bailiff/internal/testset"
)

// defaultExcludeDirs are never walked into.
var defaultExcludeDirs = []string{".svn", "CVS", ".bzr", ".hg", ".git", "__pycache__", ".tox", ".eggs", "*.egg"}

// scanFlags holds the command-line options of a scan.
type scanFlags struct {
	recursive       bool
	aggregate       string
	contextLines    int
	configFile      string
	profile         string
	tests           string
	skips           string
	severityCount   int
	confidenceCount int
	severityLevel   string
	confidenceLevel string
	format          string
	msgTemplate     string
	outputFile      string
	verbose         bool
	debug           bool
	quiet           bool
	ignoreNosec     bool
	exclude         string
	baseline        string
	iniFile         string
	exitZero        bool
	gate            string
	workers         int
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	f := &scanFlags{}
	cmd := &cobra.Command{
		Use:           "bailiff [flags] targets...",
		Short:         "Find common security issues in Python code",
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, f, args, stdin, stdout, stderr)
		},
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	fl := cmd.Flags()
	fl.BoolVarP(&f.recursive, "recursive", "r", false, "find and process files in subdirectories")
	fl.StringVarP(&f.aggregate, "aggregate", "a", "file", "aggregate output by vulnerability (vuln) or by filename (file)")
	fl.IntVarP(&f.contextLines, "number", "n", 3, "maximum number of code lines to output for each issue")
	fl.StringVarP(&f.configFile, "configfile", "c", "", "optional config file to use for selecting plugins and overriding defaults")
	fl.StringVarP(&f.profile, "profile", "p", "", "profile to use (defaults to executing all tests)")
	fl.StringVarP(&f.tests, "tests", "t", "", "comma-separated list of test IDs to run")
	fl.StringVarP(&f.skips, "skip", "s", "", "comma-separated list of test IDs to skip")
	fl.CountVarP(&f.severityCount, "level", "l", "report only issues of a given severity level or higher (-l LOW, -ll MEDIUM, -lll HIGH)")
	fl.CountVarP(&f.confidenceCount, "confidence", "i", "report only issues of a given confidence level or higher (-i LOW, -ii MEDIUM, -iii HIGH)")
	fl.StringVar(&f.severityLevel, "severity-level", "all", "report only issues of a given severity level or higher (all, low, medium, high)")
	fl.StringVar(&f.confidenceLevel, "confidence-level", "all", "report only issues of a given confidence level or higher (all, low, medium, high)")
	fl.StringVarP(&f.format, "format", "f", "", "specify output format")
	fl.StringVar(&f.msgTemplate, "msg-template", "", "specify output message template (only usable with --format custom)")
	fl.StringVarP(&f.outputFile, "output", "o", "", "write report to filename")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "output extra information like excluded and included files")
	fl.BoolVarP(&f.debug, "debug", "d", false, "turn on debug mode")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "only show output in the case of an error")
	fl.BoolVar(&f.ignoreNosec, "ignore-nosec", false, "do not skip lines with # nosec comments")
	fl.StringVarP(&f.exclude, "exclude", "x", "", "comma-separated list of paths (glob patterns supported) to exclude from scan")
	fl.StringVarP(&f.baseline, "baseline", "b", "", "path of a baseline report to compare against (only JSON-formatted files are accepted)")
	fl.StringVar(&f.iniFile, "ini", "", "path to a .bailiff file that supplies command line arguments")
	fl.BoolVar(&f.exitZero, "exit-zero", false, "exit with 0, even with results found")
	fl.StringVar(&f.gate, "gate", "", "directory of Rego policies deciding the exit status")
	fl.IntVar(&f.workers, "workers", 0, "number of files scanned in parallel (default: number of CPUs)")

	cmd.SetVersionTemplate(versionTemplate())
	return cmd
}

// iniFlags maps ini keys to the flags they set.
var iniFlags = map[string]string{
	"recursive":     "recursive",
	"aggregate":     "aggregate",
	"number":        "number",
	"context-lines": "number",
	"configfile":    "configfile",
	"profile":       "profile",
	"tests":         "tests",
	"skips":         "skip",
	"skip":          "skip",
	"level":         "severity-level",
	"confidence":    "confidence-level",
	"format":        "format",
	"msg-template":  "msg-template",
	"output":        "output",
	"verbose":       "verbose",
	"debug":         "debug",
	"quiet":         "quiet",
	"ignore-nosec":  "ignore-nosec",
	"exclude":       "exclude",
	"baseline":      "baseline",
	"exit-zero":     "exit-zero",
}

// applyIni fills in flags not given on the command line from the ini
// file, and returns the targets it names.
func applyIni(cmd *cobra.Command, f *scanFlags) ([]string, error) {
	path := f.iniFile
	if path == "" {
		if _, err := os.Stat(config.DefaultIniFile); err != nil {
			return nil, nil
		}
		path = config.DefaultIniFile
	}
	values, err := config.LoadIni(path)
	if err != nil {
		return nil, err
	}

	var targets []string
	for key, value := range values {
		if key == "targets" {
			targets = splitList(value)
			continue
		}
		name, ok := iniFlags[key]
		if !ok {
			slog.Warn("unknown option in ini file", "file", path, "key", key)
			continue
		}
		if cmd.Flags().Changed(name) {
			continue
		}
		if err := cmd.Flags().Set(name, value); err != nil {
			return nil, fmt.Errorf("%w %s: %s: %v", config.ErrConfigInvalid, path, key, err)
		}
	}
	slog.Info("using ini file for options", "file", path)
	return targets, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// thresholds combines the count flags with the named level flags. A
// count wins when given.
func thresholds(f *scanFlags) (sev, conf issue.Level, err error) {
	if sev, err = issue.ParseLevel(f.severityLevel); err != nil {
		return 0, 0, fmt.Errorf("--severity-level: %w", err)
	}
	if conf, err = issue.ParseLevel(f.confidenceLevel); err != nil {
		return 0, 0, fmt.Errorf("--confidence-level: %w", err)
	}
	if f.severityCount > 0 {
		sev = issue.LevelFromCount(f.severityCount)
	}
	if f.confidenceCount > 0 {
		conf = issue.LevelFromCount(f.confidenceCount)
	}
	return sev, conf, nil
}

func fatal(err error) error { return &exitStatus{code: exitError, err: err} }

func runScan(cmd *cobra.Command, f *scanFlags, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	log := output.SetupLogger(f.quiet, f.verbose, f.debug, stderr)
	slog.SetDefault(log)

	iniTargets, err := applyIni(cmd, f)
	if err != nil {
		return fatal(err)
	}
	// The ini file may have changed the logging flags.
	log = output.SetupLogger(f.quiet, f.verbose, f.debug, stderr)
	slog.SetDefault(log)

	targets := args
	if len(targets) == 0 {
		targets = iniTargets
	}
	if len(targets) == 0 {
		return fatal(errors.New("no targets found in CLI or ini files, exiting"))
	}
	if f.aggregate != "file" && f.aggregate != "vuln" {
		return fatal(fmt.Errorf("invalid aggregate %q: must be file or vuln", f.aggregate))
	}
	sev, conf, err := thresholds(f)
	if err != nil {
		return fatal(err)
	}

	doc, err := config.LoadTiered(f.configFile)
	if err != nil {
		return fatal(err)
	}
	reg, err := extension.New(extension.Builtins(extension.DefaultUserRulesDir(), filepath.Join(".bailiff", "rules")))
	if err != nil {
		return fatal(err)
	}

	tty := f.outputFile == "" && output.StdoutIsTTY()
	format := output.ResolveFormat(f.format, tty)
	if _, ok := reg.Formatter(format); !ok {
		names := reg.FormatterNames()
		sort.Strings(names)
		return fatal(fmt.Errorf("unknown format %q (available: %s)", format, strings.Join(names, ", ")))
	}
	if f.msgTemplate != "" && format != "custom" {
		log.Warn("--msg-template is only used by the custom formatter")
	}

	res, err := config.Resolve(doc, reg, config.ResolveOptions{
		Profile: f.profile,
		Tests:   splitList(f.tests),
		Skips:   splitList(f.skips),
	})
	if err != nil {
		return fatal(err)
	}
	tests := testset.New(reg, res)
	if tests.Len() == 0 {
		log.Warn("no tests selected")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	shutdown, err := telemetry.Init(ctx, doc.Telemetry)
	if err != nil {
		log.Warn("telemetry disabled", "error", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Debug("telemetry shutdown", "error", err)
		}
	}()

	recorder, err := metrics.NewRecorder(metrics.NewCollector())
	if err != nil {
		return fatal(err)
	}

	m := manager.New(manager.Options{
		Tests:      tests,
		Formatters: reg,
		Input: input.Options{
			Recursive:   f.recursive,
			Include:     doc.IncludeGlobs,
			Exclude:     splitList(f.exclude),
			ExcludeDirs: append(append([]string(nil), defaultExcludeDirs...), doc.ExcludeDirs...),
		},
		Aggregate:   f.aggregate,
		IgnoreNosec: f.ignoreNosec,
		NosecMarker: doc.NosecMarker,
		Debug:       f.debug,
		Workers:     f.workers,
		Progress:    stderr,
		Stdin:       stdin,
		Logger:      log,
		Recorder:    recorder,
	})
	if f.baseline != "" {
		m.SetBaseline(f.baseline)
	}

	if err := m.Scan(ctx, targets); err != nil {
		return fatal(err)
	}

	w := stdout
	if f.outputFile != "" {
		file, err := os.Create(f.outputFile)
		if err != nil {
			return fatal(err)
		}
		defer file.Close()
		w = file
	}
	err = m.OutputResults(ctx, w, format, manager.ReportOptions{
		Severity:     sev,
		Confidence:   conf,
		ContextLines: f.contextLines,
		MsgTemplate:  f.msgTemplate,
		Verbose:      f.verbose,
		Quiet:        f.quiet,
		Version:      version,
		GeneratedAt:  time.Now(),
	})
	if err != nil {
		return fatal(err)
	}
	if f.outputFile != "" {
		log.Info("output written to file", "path", f.outputFile)
	}

	failed, err := decide(ctx, f, doc, m, sev, conf)
	if err != nil {
		return fatal(err)
	}
	if failed && !f.exitZero {
		return &exitStatus{code: exitFindings}
	}
	return nil
}

// decide reports whether the scan should exit with findings: any issue
// above the thresholds, or a failing gate policy when one is configured.
func decide(ctx context.Context, f *scanFlags, doc *config.Document, m *manager.Manager, sev, conf issue.Level) (bool, error) {
	dir := f.gate
	if dir == "" {
		dir = doc.Gate.PolicyDir
	}
	if dir == "" {
		return m.ResultsCount(sev, conf) > 0, nil
	}

	ev, err := evaluator.NewEvaluator(ctx, dir, doc.Gate.Query)
	if err != nil {
		return false, err
	}
	log := sarif.NewAssembler("bailiff", version).
		AddIssues(m.GetIssueList(sev, conf)).
		Build()
	v, err := ev.Evaluate(ctx, log)
	if err != nil {
		return false, err
	}
	slog.Info("gate decision", "decision", v.Decision, "reason", v.Reason, "relevant", len(v.Relevant))
	return v.Failed(), nil
}
