package rules

import (
	"os"
	"path/filepath"
	"testing"
)

const overrideYAML = `calls:
  - id: "B311"
    name: "random"
    qualnames: ["random.random"]
    message: "Only random.random is flagged here."
    severity: "MEDIUM"
`

const customYAML = `calls:
  - id: "C001"
    name: "custom_call"
    qualnames: ["danger.zone"]
    message: "Custom rule triggered"
    severity: "HIGH"
`

func writeRuleFile(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", filename, err)
	}
}

func TestLoadEntries_DefaultsOnly(t *testing.T) {
	entries, err := LoadEntries("", "")
	if err != nil {
		t.Fatalf("LoadEntries() error: %v", err)
	}
	defaults, _ := DefaultEntries()
	if len(entries) != len(defaults) {
		t.Fatalf("expected %d entries, got %d", len(defaults), len(entries))
	}
}

func TestLoadEntries_ProjectOverrideAndAddition(t *testing.T) {
	projectDir := t.TempDir()
	writeRuleFile(t, projectDir, "override.yaml", overrideYAML)
	writeRuleFile(t, projectDir, "custom.yml", customYAML)
	writeRuleFile(t, projectDir, "notes.txt", "ignored")

	entries, err := LoadEntries("", projectDir)
	if err != nil {
		t.Fatalf("LoadEntries() error: %v", err)
	}

	defaults, _ := DefaultEntries()
	if len(entries) != len(defaults)+1 {
		t.Fatalf("expected %d entries, got %d", len(defaults)+1, len(entries))
	}
	if last := entries[len(entries)-1]; last.ID != "C001" {
		t.Errorf("new entries should be appended, last is %s", last.ID)
	}
	for _, e := range entries {
		if e.ID == "B311" && e.Severity != "MEDIUM" {
			t.Errorf("project override not applied: %+v", e)
		}
	}
}

func TestLoadEntries_UserThenProject(t *testing.T) {
	userDir := t.TempDir()
	projectDir := t.TempDir()
	writeRuleFile(t, userDir, "custom.yaml", customYAML)
	writeRuleFile(t, projectDir, "custom.yaml", `calls:
  - id: "C001"
    name: "custom_call"
    qualnames: ["danger.zone"]
    message: "Project wins"
    severity: "LOW"
`)

	entries, err := LoadEntries(userDir, projectDir)
	if err != nil {
		t.Fatalf("LoadEntries() error: %v", err)
	}
	for _, e := range entries {
		if e.ID == "C001" && e.Message != "Project wins" {
			t.Errorf("expected project entry to win, got %q", e.Message)
		}
	}
}

func TestLoadEntries_MissingDir(t *testing.T) {
	if _, err := LoadEntries(filepath.Join(t.TempDir(), "nope"), ""); err != nil {
		t.Fatalf("missing directory should be ignored, got %v", err)
	}
}

func TestLoadEntries_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "bad.yaml", "calls:\n  - id: X\n")
	if _, err := LoadEntries("", dir); err == nil {
		t.Fatal("expected error for invalid rule file")
	}
}
