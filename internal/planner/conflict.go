package planner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/danieljhkim/pkglink/internal/fsops"
)

// ConflictChecker inspects link destinations before they are written.
type ConflictChecker struct {
	fs fsops.FS
}

// NewConflictChecker creates a new ConflictChecker.
func NewConflictChecker(fs fsops.FS) *ConflictChecker {
	return &ConflictChecker{fs: fs}
}

// CheckPath checks what occupies destPath before an operation of type opType
// materializes sourcePath there. Returns nil if the path is free or already
// holds exactly what the operation would create.
func (c *ConflictChecker) CheckPath(destPath, sourcePath, opType string) *Conflict {
	incoming := "symlink"
	if opType == OpCopy {
		incoming = "copy"
	}

	info, err := c.fs.Lstat(destPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &Conflict{
			Path:     destPath,
			Reason:   fmt.Sprintf("Failed to check path: %v", err),
			Existing: "unknown",
			Incoming: incoming,
		}
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := c.fs.Readlink(destPath)
		if err != nil {
			return &Conflict{
				Path:     destPath,
				Reason:   fmt.Sprintf("Failed to read symlink: %v", err),
				Existing: "symlink",
				Incoming: incoming,
			}
		}
		if opType == OpCreateSymlink && samePath(target, sourcePath, destPath) {
			return nil
		}
		return &Conflict{
			Path:     destPath,
			Reason:   fmt.Sprintf("Symlink points to %s", target),
			Existing: "symlink",
			Incoming: incoming,
		}
	}

	existing := "file"
	if info.IsDir() {
		existing = "directory"
	}

	if opType == OpCopy {
		srcInfo, err := c.fs.Stat(sourcePath)
		if err == nil && srcInfo.IsDir() == info.IsDir() {
			// Copies overwrite in place.
			return nil
		}
		return &Conflict{
			Path:     destPath,
			Reason:   fmt.Sprintf("Type mismatch: existing %s is replaced", existing),
			Existing: existing,
			Incoming: incoming,
		}
	}

	reason := "Existing file is replaced by a symlink"
	if info.IsDir() {
		reason = "Existing directory blocks the symlink"
	}
	return &Conflict{
		Path:     destPath,
		Reason:   reason,
		Existing: existing,
		Incoming: incoming,
	}
}

// samePath compares a symlink target with the expected source. Relative
// targets are resolved against the link's directory.
func samePath(target, source, linkPath string) bool {
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(linkPath), target)
	}
	return filepath.Clean(target) == filepath.Clean(source)
}
