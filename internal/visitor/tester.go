package visitor

import (
	"fmt"
	"log/slog"

	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/testset"
)

// RuleFailure records a rule that panicked while inspecting a node.
type RuleFailure struct {
	Rule  string
	File  string
	Line  int
	Cause any
}

func (e *RuleFailure) Error() string {
	return fmt.Sprintf("error running %s on file %s at line %d: %v", e.Rule, e.File, e.Line, e.Cause)
}

// Tester runs the rules subscribed to a node kind and collects their
// findings for one file.
type Tester struct {
	tests *testset.Set
	lines []string
	nosec map[int]bool
	debug bool
	log   *slog.Logger

	results []*issue.Issue
	scores  issue.Scores
	skipped int
}

// NewTester returns a tester for a single file read as src. Findings on a
// line in nosec, or raised by a node on such a line, are discarded and
// counted as skipped. In debug mode a panicking rule aborts the file.
func NewTester(tests *testset.Set, src []byte, nosec map[int]bool, debug bool, log *slog.Logger) *Tester {
	if log == nil {
		log = slog.Default()
	}
	if nosec == nil {
		nosec = map[int]bool{}
	}
	return &Tester{tests: tests, lines: issue.SplitLines(src), nosec: nosec, debug: debug, log: log}
}

// Run applies every rule subscribed to c.Kind.
func (t *Tester) Run(c *inspect.Context) error {
	suppressed := t.nosec[c.LineNumber]
	for _, b := range t.tests.TestsForKind(c.Kind) {
		found, err := t.invoke(b, c.Copy())
		if err != nil {
			if t.debug {
				return err
			}
			t.log.Error(err.Error())
			continue
		}
		if found == nil {
			continue
		}
		if found.LineNumber == 0 {
			found.LineNumber = c.LineNumber
		}
		if suppressed || t.nosec[found.LineNumber] {
			t.log.Debug("skipped, nosec", "test", b.Rule.ID, "file", c.Filename, "line", found.LineNumber)
			t.skipped++
			continue
		}
		t.finish(found, b, c)
		t.results = append(t.results, found)
		t.scores.Add(found)
	}
	return nil
}

func (t *Tester) invoke(b testset.Bound, c *inspect.Context) (found *issue.Issue, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RuleFailure{Rule: b.Rule.Name, File: c.Filename, Line: c.LineNumber, Cause: r}
		}
	}()
	return b.Rule.Fn(c, b.Config), nil
}

// finish fills in the location and identity fields the rule left unset.
func (t *Tester) finish(found *issue.Issue, b testset.Bound, c *inspect.Context) {
	found.Filename = c.Filename
	if found.TestID == "" {
		found.TestID = b.Rule.ID
	}
	if found.TestName == "" {
		found.TestName = b.Rule.Name
	}

	lr := append([]int(nil), c.LineRange...)
	if len(lr) == 0 {
		lr = []int{found.LineNumber}
	}
	for lr[0] > found.LineNumber {
		lr = append([]int{lr[0] - 1}, lr...)
	}
	for lr[len(lr)-1] < found.LineNumber {
		lr = append(lr, lr[len(lr)-1]+1)
	}
	found.LineRange = lr
	found.ColOffset = c.ColOffset
	found.EndColOffset = c.EndColOffset
	found.SetLines(t.lines)
}

// Results returns the issues recorded so far, in traversal order.
func (t *Tester) Results() []*issue.Issue { return t.results }

// Scores returns the severity and confidence weight sums.
func (t *Tester) Scores() issue.Scores { return t.scores }

// Skipped returns how many findings were dropped by nosec comments.
func (t *Tester) Skipped() int { return t.skipped }
