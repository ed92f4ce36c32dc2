// Package pathsafety guards filesystem operations the scanner, translator,
// and tools packages perform against escaping the library roots a user has
// configured — symlink traversal, ".." segments, and absolute paths outside
// any watched root are all rejected. Grounded on the teacher's
// internal/pkg/fsutil idiom (stdlib os/path-filepath helpers, no ecosystem
// library covers path-containment checks).
package pathsafety

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var ErrOutsideRoot = errors.New("path escapes configured root")

// IsWithin reports whether child resolves (after symlink evaluation) to a
// path inside root. Both paths are cleaned and made absolute first; if
// either doesn't exist yet, EvalSymlinks falls back to the parent directory
// that does.
func IsWithin(child, root string) (bool, error) {
	resolvedRoot, err := resolveExisting(root)
	if err != nil {
		return false, err
	}
	resolvedChild, err := resolveExisting(child)
	if err != nil {
		return false, err
	}

	rel, err := filepath.Rel(resolvedRoot, resolvedChild)
	if err != nil {
		return false, nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, nil
	}
	return true, nil
}

// EnsureWithin is IsWithin plus an explicit error on violation, for call
// sites that want to abort the operation rather than branch on a bool.
func EnsureWithin(child, root string) error {
	ok, err := IsWithin(child, root)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOutsideRoot
	}
	return nil
}

// resolveExisting evaluates symlinks on the longest existing prefix of path,
// so containment checks work even for files that don't exist yet (e.g. an
// output path about to be written).
func resolveExisting(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	current := abs
	var suffix []string
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			full := resolved
			for i := len(suffix) - 1; i >= 0; i-- {
				full = filepath.Join(full, suffix[i])
			}
			return filepath.Clean(full), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return filepath.Clean(abs), nil
		}
		suffix = append(suffix, filepath.Base(current))
		current = parent
	}
}
