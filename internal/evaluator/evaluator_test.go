package evaluator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/sarif"
)

func logWith(issues ...*issue.Issue) *sarif.Log {
	return sarif.NewAssembler("bailiff", "test").AddIssues(issues).Build()
}

func finding(id string, sev issue.Level) *issue.Issue {
	i := issue.New(sev, issue.High, 78, "finding "+id)
	i.TestID = id
	i.TestName = "rule_" + id
	i.Filename = "app.py"
	i.LineNumber = 1
	i.LineRange = []int{1}
	return i
}

func newEvaluator(t *testing.T, dir, query string) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(context.Background(), dir, query)
	if err != nil {
		t.Fatalf("NewEvaluator() returned error: %v", err)
	}
	return e
}

func evaluate(t *testing.T, e *Evaluator, log *sarif.Log) *Verdict {
	t.Helper()
	v, err := e.Evaluate(context.Background(), log)
	if err != nil {
		t.Fatalf("Evaluate() returned error: %v", err)
	}
	return v
}

func TestDefaultPolicy_Pass(t *testing.T) {
	v := evaluate(t, newEvaluator(t, "", ""), logWith())
	if v.Decision != Pass {
		t.Errorf("Decision = %q, want %q", v.Decision, Pass)
	}
	if v.Failed() {
		t.Error("expected gate to pass")
	}
	if len(v.Relevant) != 0 {
		t.Errorf("expected no relevant results, got %d", len(v.Relevant))
	}
}

func TestDefaultPolicy_Fail(t *testing.T) {
	v := evaluate(t, newEvaluator(t, "", ""), logWith(finding("B602", issue.High), finding("B101", issue.Low)))
	if !v.Failed() {
		t.Fatal("expected gate to fail")
	}
	if v.Reason != "Decision: fail based on 2 findings" {
		t.Errorf("Reason = %q", v.Reason)
	}
	if len(v.Relevant) != 1 {
		t.Fatalf("expected 1 relevant result, got %d", len(v.Relevant))
	}
	if v.Relevant[0].RuleID != "B602" {
		t.Errorf("relevant rule = %q, want B602", v.Relevant[0].RuleID)
	}
}

func TestCustomPolicy(t *testing.T) {
	policy := `package bailiff.gate

import rego.v1

default decision := "pass"

decision := "fail" if {
	some r in input.runs[0].results
	r.level == "error"
}
`
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "strict.rego"), []byte(policy), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	e := newEvaluator(t, dir, "")

	// Only error-level results fail this policy.
	if v := evaluate(t, e, logWith(finding("B101", issue.Low))); v.Decision != Pass {
		t.Errorf("low finding: Decision = %q, want %q", v.Decision, Pass)
	}
	if v := evaluate(t, e, logWith(finding("B602", issue.High))); v.Decision != Fail {
		t.Errorf("high finding: Decision = %q, want %q", v.Decision, Fail)
	}
}

func TestEmptyPolicyDirUsesDefault(t *testing.T) {
	v := evaluate(t, newEvaluator(t, t.TempDir(), ""), logWith(finding("B101", issue.Low)))
	if v.Decision != Fail {
		t.Errorf("Decision = %q, want %q", v.Decision, Fail)
	}
}

func TestUndefinedDecisionFails(t *testing.T) {
	v := evaluate(t, newEvaluator(t, "", "data.bailiff.gate.nothing"), logWith())
	if !v.Failed() {
		t.Error("expected an undefined decision to fail the gate")
	}
}

func TestNewEvaluator_Errors(t *testing.T) {
	if _, err := NewEvaluator(context.Background(), filepath.Join(t.TempDir(), "absent"), ""); err == nil {
		t.Error("expected error for missing policy directory")
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.rego"), []byte("package bailiff.gate\n\ndecision :=\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewEvaluator(context.Background(), dir, ""); err == nil {
		t.Error("expected error for invalid policy")
	}
}
