package rules

import (
	"testing"
)

func TestDefaultEntries_LoadsEmbedded(t *testing.T) {
	entries, err := DefaultEntries()
	if err != nil {
		t.Fatalf("DefaultEntries() returned error: %v", err)
	}
	if len(entries) < 30 {
		t.Fatalf("expected at least 30 entries, got %d", len(entries))
	}
}

func TestDefaultEntries_UniqueIDs(t *testing.T) {
	entries, err := DefaultEntries()
	if err != nil {
		t.Fatalf("DefaultEntries() returned error: %v", err)
	}
	seen := map[string]bool{}
	for _, e := range entries {
		if seen[e.ID] {
			t.Errorf("duplicate id %s", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestDefaultEntries_Md5(t *testing.T) {
	entries, err := DefaultEntries()
	if err != nil {
		t.Fatalf("DefaultEntries() returned error: %v", err)
	}
	for _, e := range entries {
		if e.ID != "B303" {
			continue
		}
		if !e.MatchCall("hashlib.md5") {
			t.Error("B303 should match hashlib.md5")
		}
		return
	}
	t.Fatal("B303 not found")
}
