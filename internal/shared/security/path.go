package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape indicates the resolved path would escape the trusted root directory.
var ErrPathEscape = errors.New("path escapes base directory")

// ResolveWithin joins elems under base and guarantees the result stays
// inside base. Dot-dot elements cannot climb out and absolute elements
// are reanchored under base rather than honored verbatim. The returned
// path is absolute.
func ResolveWithin(base string, elems ...string) (string, error) {
	if base == "" {
		return "", errors.New("base directory is required")
	}

	root, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("absolutize base: %w", err)
	}

	target, err := filepath.Abs(filepath.Join(append([]string{root}, elems...)...))
	if err != nil {
		return "", fmt.Errorf("absolutize target: %w", err)
	}

	if escapesRoot(root, target) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, target)
	}
	return target, nil
}

func escapesRoot(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return true
	}
	return rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

// IsValidPath reports whether path is non-empty, free of dot-dot
// segments, and resolvable to something other than the filesystem root.
func IsValidPath(path string) bool {
	if path == "" {
		return false
	}

	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return false
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return filepath.Clean(abs) != "/"
}
