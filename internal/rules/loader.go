package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadEntries returns the built-in rule list merged with any rule files in
// userDir and projectDir. Later sources replace entries with the same ID;
// new IDs are appended in ID order.
func LoadEntries(userDir, projectDir string) ([]Entry, error) {
	defaults, err := DefaultEntries()
	if err != nil {
		return nil, fmt.Errorf("loading default rule list: %w", err)
	}

	merged := defaults
	for _, dir := range []string{userDir, projectDir} {
		extra, err := loadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("loading rule list from %s: %w", dir, err)
		}
		merged = Merge(merged, extra)
	}
	return merged, nil
}

// Merge overlays extra onto base by ID.
func Merge(base, extra []Entry) []Entry {
	out := append([]Entry(nil), base...)
	index := indexByID(out)
	var added []Entry
	for _, e := range extra {
		if i, ok := index[e.ID]; ok {
			out[i] = e
			continue
		}
		added = append(added, e)
	}
	sort.SliceStable(added, func(a, b int) bool { return added[a].ID < added[b].ID })
	return append(out, added...)
}

func loadDir(dir string) ([]Entry, error) {
	if dir == "" {
		return nil, nil
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var all []Entry
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(de.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, de.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", de.Name(), err)
		}

		rf, err := ParseRuleFile(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", de.Name(), err)
		}

		all = append(all, rf.Entries()...)
	}
	return all, nil
}

func indexByID(entries []Entry) map[string]int {
	m := make(map[string]int, len(entries))
	for i, e := range entries {
		m[e.ID] = i
	}
	return m
}
