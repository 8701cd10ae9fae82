package output

import (
	"strings"
	"testing"

	"github.com/chris-regnier/bailiff/internal/issue"
)

func TestTextFormatter(t *testing.T) {
	s := mustFormat(t, &TextFormatter{}, sampleReport(t))

	if !strings.HasPrefix(s, "Run started:2024-03-01 12:30:00.000000\n") {
		t.Errorf("unexpected header:\n%s", s)
	}
	wantContains(t, s,
		"\nTest results:\n",
		">> Issue: [B303:md5] Use of insecure MD2, MD4, MD5, or SHA1 hash function.",
		"   Severity: Medium   Confidence: High",
		"   CWE: CWE-327 (https://cwe.mitre.org/data/definitions/327.html)",
		"   Location: app/crypto.py:3:4",
		"3\th = hashlib.md5(b'x')",
		"\tTotal lines of code: 3",
		"\t\tMedium: 1",
		"Files skipped (1):\n\tapp/broken.py (syntax error while parsing AST from file)",
	)
	if strings.Contains(s, "Files in scope") {
		t.Error("files in scope are only listed in verbose mode")
	}
}

func TestTextFormatter_NoIssues(t *testing.T) {
	r := sampleReport(t)
	r.Results = nil
	wantContains(t, mustFormat(t, &TextFormatter{}, r), "\tNo issues identified.")
}

func TestTextFormatter_Quiet(t *testing.T) {
	r := sampleReport(t)
	r.Quiet = true
	r.Results = nil
	if out := mustFormat(t, &TextFormatter{}, r); out != "" {
		t.Errorf("expected no output for a quiet clean run, got:\n%s", out)
	}

	r = sampleReport(t)
	r.Quiet = true
	wantContains(t, mustFormat(t, &TextFormatter{}, r), "B303")
}

func TestTextFormatter_Verbose(t *testing.T) {
	r := sampleReport(t)
	r.Verbose = true
	r.Excluded = []string{"tests/test_x.py"}
	wantContains(t, mustFormat(t, &TextFormatter{}, r),
		"Files in scope (1):\n\tapp/crypto.py (score: {SEVERITY: 5, CONFIDENCE: 10})",
		"Files excluded (1):\n\ttests/test_x.py",
	)
}

func TestTextFormatter_Candidates(t *testing.T) {
	r := sampleReport(t)
	base := r.Results[0]
	other := *base
	other.LineNumber = 4
	r.Baseline = true
	r.Candidates = map[*issue.Issue][]*issue.Issue{base: {base, &other}}

	wantContains(t, mustFormat(t, &TextFormatter{}, r),
		"   Location: app/crypto.py::\n-- Candidate Issues --",
		candidateIndent+">> Issue: [B303:md5]",
		candidateIndent+"   Location: app/crypto.py:4:4",
	)
}

func TestScreenFormatter(t *testing.T) {
	s := mustFormat(t, &ScreenFormatter{}, sampleReport(t))
	wantContains(t, s, "Test results:", "B303:md5", "hashlib")
	if !strings.Contains(s, "\x1b[") {
		t.Error("expected highlighted code snippets")
	}
}

func TestCustomFormatter(t *testing.T) {
	r := sampleReport(t)
	r.MsgTemplate = "{relpath}:{line:>4}:{col}: {test_id} {severity:<8}|{msg}"
	want := "app/crypto.py:   3:4: B303 MEDIUM  |Use of insecure MD2, MD4, MD5, or SHA1 hash function.\n"
	if got := mustFormat(t, &CustomFormatter{}, r); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCustomFormatter_DefaultTemplate(t *testing.T) {
	wantContains(t, mustFormat(t, &CustomFormatter{}, sampleReport(t)),
		"app/crypto.py:3: B303[bailiff]: MEDIUM: Use of insecure")
}

func TestCustomFormatter_UnknownTag(t *testing.T) {
	r := sampleReport(t)
	r.MsgTemplate = "{path}:{line}"
	_, err := (&CustomFormatter{}).Format(r)
	if err == nil {
		t.Fatal("expected an error for an unknown tag")
	}
	if !strings.Contains(err.Error(), `"path"`) {
		t.Errorf("error %q should name the tag", err)
	}
}

func TestPad(t *testing.T) {
	tests := []struct {
		v        any
		align, w string
		want     string
	}{
		{7, "", "3", "  7"},
		{"ab", "", "3", "ab "},
		{"ab", "^", "5", " ab  "},
		{"long", ">", "2", "long"},
	}
	for _, tc := range tests {
		if got := pad(tc.v, tc.align, tc.w); got != tc.want {
			t.Errorf("pad(%v, %q, %q) = %q, want %q", tc.v, tc.align, tc.w, got, tc.want)
		}
	}
}
