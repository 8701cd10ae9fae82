package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_YAML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "bailiff.yaml", `
tests: [B101, exec_used]
skips: B603
exclude_dirs: [build, .venv]
nosec_marker: audited
profiles:
  web:
    include: [B201, B701]
assert_used:
  skips: ["*_test.py"]
telemetry:
  enabled: true
  protocol: http
  sample_rate: 0.5
  headers:
    x-token: abc
gate:
  policy_dir: policies
`)
	doc, err := Load(p)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if doc.Path != p {
		t.Errorf("Path = %q, want %q", doc.Path, p)
	}
	if !slices.Equal(doc.Include, []string{"B101", "exec_used"}) {
		t.Errorf("Include = %v", doc.Include)
	}
	if !slices.Equal(doc.Exclude, []string{"B603"}) {
		t.Errorf("Exclude = %v", doc.Exclude)
	}
	if !slices.Equal(doc.ExcludeDirs, []string{"build", ".venv"}) {
		t.Errorf("ExcludeDirs = %v", doc.ExcludeDirs)
	}
	if doc.NosecMarker != "audited" {
		t.Errorf("NosecMarker = %q, want audited", doc.NosecMarker)
	}
	if !slices.Equal(doc.Profiles["web"].Include, []string{"B201", "B701"}) {
		t.Errorf("web profile include = %v", doc.Profiles["web"].Include)
	}
	if got := doc.Block("assert_used")["skips"]; !reflect.DeepEqual(got, []any{"*_test.py"}) {
		t.Errorf("assert_used.skips = %v", got)
	}
	if !doc.Telemetry.Enabled {
		t.Error("expected telemetry enabled")
	}
	if doc.Telemetry.Protocol != "http" {
		t.Errorf("Protocol = %q, want http", doc.Telemetry.Protocol)
	}
	if doc.Telemetry.SampleRate != 0.5 {
		t.Errorf("SampleRate = %v, want 0.5", doc.Telemetry.SampleRate)
	}
	if !reflect.DeepEqual(doc.Telemetry.Headers, map[string]string{"x-token": "abc"}) {
		t.Errorf("Headers = %v", doc.Telemetry.Headers)
	}
	if doc.Gate.PolicyDir != "policies" {
		t.Errorf("PolicyDir = %q, want policies", doc.Gate.PolicyDir)
	}
}

func TestLoad_Pyproject(t *testing.T) {
	p := writeFile(t, t.TempDir(), "pyproject.toml", `
[project]
name = "demo"

[tool.bailiff]
exclude_dirs = ["tests"]
skips = ["B101"]

[tool.bailiff.hardcoded_tmp_directory]
tmp_dirs = ["/scratch"]
`)
	doc, err := Load(p)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if !slices.Equal(doc.ExcludeDirs, []string{"tests"}) {
		t.Errorf("ExcludeDirs = %v", doc.ExcludeDirs)
	}
	if !slices.Equal(doc.Exclude, []string{"B101"}) {
		t.Errorf("Exclude = %v", doc.Exclude)
	}
	if got := doc.Block("hardcoded_tmp_directory")["tmp_dirs"]; !reflect.DeepEqual(got, []any{"/scratch"}) {
		t.Errorf("tmp_dirs = %v", got)
	}
}

func TestLoad_PyprojectWithoutSection(t *testing.T) {
	p := writeFile(t, t.TempDir(), "pyproject.toml", "[project]\nname = \"demo\"\n")
	doc, err := Load(p)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if len(doc.Include) != 0 || len(doc.Exclude) != 0 {
		t.Errorf("expected empty include/exclude, got %v / %v", doc.Include, doc.Exclude)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, ErrConfigUnopenable) {
		t.Errorf("missing file: expected ErrConfigUnopenable, got %v", err)
	}

	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "tests: [unclosed\n"},
		{"bad shape", "tests: {a: 1}\n"},
		{"empty marker", "nosec_marker: \"  \"\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := writeFile(t, t.TempDir(), "c.yaml", tc.content)
			if _, err := Load(p); !errors.Is(err, ErrConfigInvalid) {
				t.Errorf("expected ErrConfigInvalid, got %v", err)
			}
		})
	}
}

func TestFromMap_LegacyIncludeGlobs(t *testing.T) {
	doc, err := FromMap(map[string]any{"include": []any{"*.py", "B101"}})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(doc.Include, []string{"B101"}) {
		t.Errorf("Include = %v", doc.Include)
	}
	if !slices.Equal(doc.IncludeGlobs, []string{"*.py"}) {
		t.Errorf("IncludeGlobs = %v", doc.IncludeGlobs)
	}
}

func TestMerge_HigherTierOverrides(t *testing.T) {
	project := &Document{
		Exclude:     []string{"B101"},
		ExcludeDirs: []string{"vendor"},
		NosecMarker: "audited",
		Telemetry:   TelemetryConfig{Enabled: true, Endpoint: "otel:4317"},
		Raw:         map[string]any{"assert_used": map[string]any{"skips": []any{"x"}}},
	}
	merged := Merge(SystemDefaults(), nil, project)

	if !slices.Equal(merged.IncludeGlobs, []string{"*.py", "*.pyw"}) {
		t.Errorf("IncludeGlobs = %v", merged.IncludeGlobs)
	}
	if !slices.Equal(merged.Exclude, []string{"B101"}) {
		t.Errorf("Exclude = %v", merged.Exclude)
	}
	if !slices.Equal(merged.ExcludeDirs, []string{"vendor"}) {
		t.Errorf("ExcludeDirs = %v", merged.ExcludeDirs)
	}
	if merged.NosecMarker != "audited" {
		t.Errorf("NosecMarker = %q, want audited", merged.NosecMarker)
	}
	if !merged.Telemetry.Enabled || merged.Telemetry.Endpoint != "otel:4317" {
		t.Errorf("telemetry not overridden: %+v", merged.Telemetry)
	}
	if merged.Telemetry.Protocol != "grpc" {
		t.Errorf("Protocol = %q, want default grpc", merged.Telemetry.Protocol)
	}
	if merged.Telemetry.ServiceName != "bailiff" {
		t.Errorf("ServiceName = %q, want bailiff", merged.Telemetry.ServiceName)
	}
	if merged.Block("assert_used") == nil {
		t.Error("expected assert_used block to survive the merge")
	}
	if merged.Gate.Query != "data.bailiff.gate.decision" {
		t.Errorf("Gate.Query = %q", merged.Gate.Query)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	if _, err := Discover(dir); !errors.Is(err, ErrNoConfigFile) {
		t.Errorf("expected ErrNoConfigFile, got %v", err)
	}

	want := writeFile(t, dir, ".bailiff.yml", "skips: [B101]\n")
	got, err := Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Discover() = %q, want %q", got, want)
	}
}

func TestLoadTiered_ExplicitPath(t *testing.T) {
	p := writeFile(t, t.TempDir(), "c.yaml", "skips: [B101]\n")
	doc, err := LoadTiered(p)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(doc.Exclude, []string{"B101"}) {
		t.Errorf("Exclude = %v", doc.Exclude)
	}
	if !slices.Equal(doc.IncludeGlobs, []string{"*.py", "*.pyw"}) {
		t.Errorf("IncludeGlobs = %v, want system defaults", doc.IncludeGlobs)
	}
}

func TestLoadIni(t *testing.T) {
	p := writeFile(t, t.TempDir(), ".bailiff", `
[bailiff]
targets = src,lib
recursive = true
skips = B101,B102
msg_template = {line}: {msg}
`)
	got, err := LoadIni(p)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"targets":      "src,lib",
		"recursive":    "true",
		"skips":        "B101,B102",
		"msg-template": "{line}: {msg}",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestLoadIni_Errors(t *testing.T) {
	if _, err := LoadIni(filepath.Join(t.TempDir(), "nope")); !errors.Is(err, ErrConfigUnopenable) {
		t.Errorf("expected ErrConfigUnopenable, got %v", err)
	}

	p := writeFile(t, t.TempDir(), "other.ini", "[other]\na = b\n")
	if _, err := LoadIni(p); !errors.Is(err, ErrConfigInvalid) {
		t.Errorf("expected ErrConfigInvalid, got %v", err)
	}
}
