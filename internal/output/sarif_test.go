package output

import (
	"encoding/json"
	"testing"

	"github.com/chris-regnier/bailiff/internal/sarif"
)

func TestSARIFFormatter(t *testing.T) {
	out := mustFormat(t, &SARIFFormatter{}, sampleReport(t))

	var log sarif.Log
	if err := json.Unmarshal([]byte(out), &log); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if log.Version != sarif.Version {
		t.Errorf("Version = %q, want %q", log.Version, sarif.Version)
	}
	if len(log.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(log.Runs))
	}

	run := log.Runs[0]
	if run.Tool.Driver.Name != "bailiff" || run.Tool.Driver.Version != "1.0.0" {
		t.Errorf("driver = %s %s", run.Tool.Driver.Name, run.Tool.Driver.Version)
	}
	if len(run.Tool.Driver.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(run.Tool.Driver.Rules))
	}
	rule := run.Tool.Driver.Rules[0]
	if rule.ID != "B303" || rule.HelpURI != MoreInfo("B303", "md5") {
		t.Errorf("rule = %s %s", rule.ID, rule.HelpURI)
	}

	if len(run.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(run.Results))
	}
	res := run.Results[0]
	if res.Level != "warning" {
		t.Errorf("Level = %q, want warning", res.Level)
	}
	if len(res.Locations) != 1 || res.Locations[0].PhysicalLocation.Region == nil {
		t.Fatalf("expected 1 location with a region, got %+v", res.Locations)
	}
	region := res.Locations[0].PhysicalLocation.Region
	if region.StartLine != 3 || region.StartColumn != 5 {
		t.Errorf("region starts at %d:%d, want 3:5", region.StartLine, region.StartColumn)
	}

	if len(run.Invocations) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(run.Invocations))
	}
	notes := run.Invocations[0].ToolExecutionNotifications
	if len(notes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notes))
	}
	if notes[0].Message.Text != "syntax error while parsing AST from file" {
		t.Errorf("notification = %q", notes[0].Message.Text)
	}
}
