// Package input discovers the files to scan and reads their contents.
package input

import (
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// StdinName is the virtual filename of source read from standard input.
const StdinName = "<stdin>"

// Options controls discovery.
type Options struct {
	Recursive bool
	// Include globs apply to files found by walking a directory.
	Include []string
	// Exclude globs apply to every file; each is also matched as a plain
	// substring of the path.
	Exclude []string
	// ExcludeDirs are directory names or globs pruned from walks. Files
	// named explicitly inside them are excluded too.
	ExcludeDirs []string
}

// Discovery is the outcome of resolving the targets.
type Discovery struct {
	Files    []string
	Excluded []string
}

// Handler resolves targets into files and reads them.
type Handler struct {
	opts  Options
	stdin io.Reader
	log   *slog.Logger
}

// NewHandler returns a handler reading "-" from os.Stdin.
func NewHandler(opts Options) *Handler {
	return &Handler{opts: opts, stdin: os.Stdin, log: slog.Default()}
}

// WithStdin replaces the reader used for the "-" target.
func (h *Handler) WithStdin(r io.Reader) *Handler {
	h.stdin = r
	return h
}

// Discover expands targets. Directories are walked only when recursive;
// files named explicitly skip the include globs but not the excludes.
// Both lists come back sorted.
func (h *Handler) Discover(targets []string) *Discovery {
	files := make(map[string]bool)
	excluded := make(map[string]bool)

	for _, target := range targets {
		if target == "-" {
			files[StdinName] = true
			continue
		}
		info, err := os.Stat(target)
		if err == nil && info.IsDir() {
			if !h.opts.Recursive {
				h.log.Warn("Skipping directory (" + target + "), use -r flag to scan contents")
				continue
			}
			h.walk(target, files, excluded)
			continue
		}
		// Missing files are kept so the read failure is reported as skipped.
		if h.included(target, false) && !h.underPrunedDir(target) {
			files[target] = true
		} else {
			excluded[target] = true
		}
	}

	return &Discovery{Files: sorted(files), Excluded: sorted(excluded)}
}

func (h *Handler) walk(root string, files, excluded map[string]bool) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			h.log.Warn("unable to read path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && h.prunedDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if h.included(path, true) {
			files[path] = true
		} else if matchAny(path, h.opts.Include) {
			excluded[path] = true
		}
		return nil
	})
	if err != nil {
		h.log.Warn("walking directory failed", "path", root, "error", err)
	}
}

// included applies the include globs (when enforced) and the excludes.
func (h *Handler) included(path string, enforceInclude bool) bool {
	if enforceInclude && !matchAny(path, h.opts.Include) {
		return false
	}
	if matchAny(path, h.opts.Exclude) {
		return false
	}
	for _, ex := range h.opts.Exclude {
		if ex != "" && strings.Contains(path, ex) {
			return false
		}
	}
	return true
}

func (h *Handler) prunedDir(path string) bool {
	for _, d := range h.opts.ExcludeDirs {
		if d == filepath.Base(path) || match(path, d) {
			return true
		}
	}
	return false
}

// underPrunedDir reports whether any directory containing path would be
// pruned from a walk.
func (h *Handler) underPrunedDir(path string) bool {
	dir := filepath.Dir(filepath.Clean(path))
	for dir != "." && dir != string(filepath.Separator) {
		if h.prunedDir(dir) {
			return true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return false
}

// matchAny reports whether path, or its base name, matches any glob.
func matchAny(path string, globs []string) bool {
	for _, g := range globs {
		if match(path, g) {
			return true
		}
	}
	return false
}

func match(path, glob string) bool {
	if glob == "" {
		return false
	}
	slashed := strings.TrimPrefix(filepath.ToSlash(path), "/")
	candidates := []string{glob}
	if !strings.HasPrefix(glob, "**/") && !strings.HasPrefix(glob, "/") {
		candidates = append(candidates, "**/"+glob)
	}
	for _, g := range candidates {
		if ok, _ := doublestar.Match(g, slashed); ok {
			return true
		}
	}
	ok, _ := doublestar.Match(glob, filepath.Base(path))
	return ok
}

// Read returns the contents of path, or of standard input for StdinName.
func (h *Handler) Read(path string) ([]byte, error) {
	if path == StdinName {
		return io.ReadAll(h.stdin)
	}
	return os.ReadFile(path)
}

func sorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
