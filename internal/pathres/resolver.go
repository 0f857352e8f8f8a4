// Package pathres turns configured path fragments into absolute paths.
//
// Fragments that are already absolute pass through untouched. Everything else
// is joined onto the project root and cleaned, so "./a/../b" and "b" resolve
// to the same location.
package pathres

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InvalidRootError is returned when a root does not exist or is not a directory.
type InvalidRootError struct {
	Root string
	Err  error
}

func (e *InvalidRootError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid root %q: %v", e.Root, e.Err)
	}
	return fmt.Sprintf("invalid root %q: not a directory", e.Root)
}

func (e *InvalidRootError) Unwrap() error {
	return e.Err
}

// Resolver resolves path fragments against a root directory.
type Resolver struct {
	root string
}

// New creates a Resolver rooted at the current working directory.
func New() (*Resolver, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return &Resolver{root: filepath.Clean(wd)}, nil
}

// NewWithRoot creates a Resolver rooted at root, which must be an existing directory.
func NewWithRoot(root string) (*Resolver, error) {
	r := &Resolver{}
	if err := r.SetRoot(root); err != nil {
		return nil, err
	}
	return r, nil
}

// Root returns the directory relative fragments are resolved against.
func (r *Resolver) Root() string {
	return r.root
}

// SetRoot replaces the root. The new root is made absolute and must be an
// existing directory.
func (r *Resolver) SetRoot(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return &InvalidRootError{Root: root, Err: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return &InvalidRootError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return &InvalidRootError{Root: root}
	}

	r.root = abs
	return nil
}

// ToAbsolute resolves fragment against the resolver's root.
func (r *Resolver) ToAbsolute(fragment string) string {
	return ToAbsoluteFrom(fragment, r.root)
}

// ToAbsoluteFrom resolves fragment against an explicit root.
func ToAbsoluteFrom(fragment, root string) string {
	if filepath.IsAbs(fragment) {
		return fragment
	}
	return filepath.Join(root, fragment)
}

// Rel returns path relative to the resolver's root. It rejects paths that
// resolve outside the root.
func (r *Resolver) Rel(path string) (string, error) {
	absPath := filepath.Clean(r.ToAbsolute(path))

	relPath, err := filepath.Rel(r.root, absPath)
	if err != nil {
		return "", fmt.Errorf("failed to compute root-relative path for %q: %w", path, err)
	}

	if !Within(absPath, r.root) {
		return "", fmt.Errorf("path %q resolves to %q which is outside %s", path, absPath, r.root)
	}

	return relPath, nil
}

// Display returns path relative to the root when it lives inside it, and the
// absolute path otherwise.
func (r *Resolver) Display(path string) string {
	if rel, err := r.Rel(path); err == nil {
		return rel
	}
	return filepath.Clean(r.ToAbsolute(path))
}

// Within reports whether path equals base or lies underneath it.
// Both paths are cleaned before comparison.
func Within(path, base string) bool {
	path = filepath.Clean(path)
	base = filepath.Clean(base)
	if path == base {
		return true
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
