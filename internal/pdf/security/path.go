// Package security keeps tool calls inside the directory the server was
// started with.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that escape the configured directory.
var ErrOutsideRoot = errors.New("path is outside configured directory")

// PathValidator resolves user supplied paths against a root directory.
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at configuredDirectory. The
// directory does not have to exist yet.
func NewPathValidator(configuredDirectory string) (*PathValidator, error) {
	if configuredDirectory == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	root, err := filepath.Abs(configuredDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}
	return &PathValidator{root: filepath.Clean(root)}, nil
}

// Root returns the absolute configured directory.
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve returns the absolute form of path. Relative paths are taken
// relative to the root. Symlinks are followed on both sides before the
// containment check, so a link pointing out of the root is rejected.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	abs := filepath.Clean(path)

	// An absent root accepts everything; the tools report missing files.
	if _, err := os.Stat(v.root); os.IsNotExist(err) {
		return abs, nil
	}

	if !within(abs, v.root) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}

	realRoot := evalExisting(v.root)
	if !within(evalExisting(abs), realRoot) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return abs, nil
}

// ResolveDirectory resolves dir like Resolve, substituting the root for an
// empty string, and checks that an existing target is a directory.
func (v *PathValidator) ResolveDirectory(dir string) (string, error) {
	if dir == "" {
		return v.root, nil
	}
	abs, err := v.Resolve(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", dir)
	}
	return abs, nil
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// evalExisting follows symlinks in the longest existing prefix of path.
func evalExisting(path string) string {
	var rest []string
	for cur := path; ; {
		if real, err := filepath.EvalSymlinks(cur); err == nil {
			parts := append([]string{real}, rest...)
			return filepath.Join(parts...)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return path
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}
