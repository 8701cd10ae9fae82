package astcheck

import (
	"strings"

	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/pyast"
)

var defaultTmpDirs = []string{"/tmp", "/var/tmp", "/dev/shm"}

// HardcodedTmpDirectory flags string literals under well-known shared
// temporary directories.
func HardcodedTmpDirectory() Rule {
	return NewRule("B108", "hardcoded_tmp_directory", hardcodedTmpDirectory, kinds(pyast.KindStr),
		WithConfig("hardcoded_tmp_directory", func() Config {
			return Config{"tmp_dirs": defaultTmpDirs}
		}),
		WithHints(issue.Medium, issue.Medium, 377))
}

func hardcodedTmpDirectory(c *inspect.Context, cfg Config) *issue.Issue {
	s, ok := c.StringVal()
	if !ok {
		return nil
	}
	dirs := cfg.Strings("tmp_dirs")
	if dirs == nil {
		dirs = defaultTmpDirs
	}
	for _, dir := range dirs {
		if strings.HasPrefix(s, dir) {
			return issue.New(issue.Medium, issue.Medium, 377, "Probable insecure usage of temp file/directory.")
		}
	}
	return nil
}
