package visitor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chris-regnier/bailiff/internal/input"
	"github.com/chris-regnier/bailiff/internal/pyast"
)

// ErrInvalidModulePath is returned when a filename cannot name a module.
var ErrInvalidModulePath = errors.New("invalid module path")

// ModuleName derives the dotted module name of path by walking up through
// parent directories that contain an __init__.py.
func ModuleName(path string) (string, error) {
	if path == "" || path == input.StdinName {
		return "", fmt.Errorf("%w: %q", ErrInvalidModulePath, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidModulePath, err)
	}
	dir, base := filepath.Split(abs)
	if base == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidModulePath, path)
	}

	segments := []string{base}
	dir = filepath.Clean(dir)
	for {
		if _, err := os.Stat(filepath.Join(dir, "__init__.py")); err != nil {
			break
		}
		segments = append([]string{filepath.Base(dir)}, segments...)
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return pyast.ModuleQualname(segments), nil
}

// namespace is the dotted scope stack of the file being walked.
type namespace struct {
	parts []string
}

func newNamespace(module string) *namespace {
	ns := &namespace{}
	if module != "" {
		ns.parts = append(ns.parts, module)
	}
	return ns
}

func (n *namespace) push(name string) { n.parts = append(n.parts, name) }

func (n *namespace) pop() {
	if len(n.parts) > 0 {
		n.parts = n.parts[:len(n.parts)-1]
	}
}

// qualify returns name prefixed with the current scope.
func (n *namespace) qualify(name string) string {
	if len(n.parts) == 0 {
		return name
	}
	out := n.parts[0]
	for _, p := range n.parts[1:] {
		out += "." + p
	}
	return out + "." + name
}
