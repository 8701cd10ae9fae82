// Package evaluator decides the outcome of a scan with a Rego policy
// evaluated over the SARIF log of the reported results.
package evaluator

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/chris-regnier/bailiff/internal/sarif"
)

// DefaultQuery is the rule the policy must define.
const DefaultQuery = "data.bailiff.gate.decision"

// Decisions the default policy produces.
const (
	Pass = "pass"
	Fail = "fail"
)

//go:embed default.rego
var defaultPolicy string

// Verdict is the outcome of evaluating the gate.
type Verdict struct {
	Decision string
	Reason   string
	// Relevant are the results at warning or error level when the gate
	// fails.
	Relevant []sarif.Result
}

// Failed reports whether the scan should exit non-zero.
func (v *Verdict) Failed() bool { return v.Decision != Pass }

type Evaluator struct {
	query rego.PreparedEvalQuery
}

// NewEvaluator creates an evaluator. If policyDir is empty, or holds no
// .rego files, the embedded default policy is used. Otherwise every .rego
// file in the directory is loaded in place of the default.
func NewEvaluator(ctx context.Context, policyDir, query string) (*Evaluator, error) {
	if query == "" {
		query = DefaultQuery
	}
	modules := []func(*rego.Rego){rego.Module("default.rego", defaultPolicy)}

	if policyDir != "" {
		entries, err := os.ReadDir(policyDir)
		if err != nil {
			return nil, fmt.Errorf("reading policy dir: %w", err)
		}
		var custom []func(*rego.Rego)
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".rego") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			data, err := os.ReadFile(filepath.Join(policyDir, name))
			if err != nil {
				return nil, fmt.Errorf("reading policy %s: %w", name, err)
			}
			custom = append(custom, rego.Module(name, string(data)))
		}
		if len(custom) > 0 {
			modules = custom
		}
	}

	opts := append([]func(*rego.Rego){rego.Query(query)}, modules...)
	prepared, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing rego query: %w", err)
	}
	return &Evaluator{query: prepared}, nil
}

// Evaluate runs the policy with the log as input. A policy that yields no
// string decision fails the gate.
func (e *Evaluator) Evaluate(ctx context.Context, log *sarif.Log) (*Verdict, error) {
	data, err := json.Marshal(log)
	if err != nil {
		return nil, err
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}

	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("evaluating rego: %w", err)
	}

	decision := Fail
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		if d, ok := rs[0].Expressions[0].Value.(string); ok {
			decision = d
		}
	}

	var results []sarif.Result
	if len(log.Runs) > 0 {
		results = log.Runs[0].Results
	}
	v := &Verdict{
		Decision: decision,
		Reason:   fmt.Sprintf("Decision: %s based on %d findings", decision, len(results)),
	}
	if v.Failed() {
		for _, r := range results {
			if r.Level == "error" || r.Level == "warning" {
				v.Relevant = append(v.Relevant, r)
			}
		}
	}
	return v, nil
}
