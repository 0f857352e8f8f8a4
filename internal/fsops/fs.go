// Package fsops provides the filesystem primitives used to materialize links.
//
// Every filesystem mutation in pkglink goes through the FS interface. The
// default implementation sits on top of an afero.Fs: the OS filesystem in
// production, an in-memory filesystem in tests that don't need symlinks.
//
// Key features:
//   - Symlink-aware stat/readlink/remove
//   - Recursive copy that follows symlinks in the source
//   - Emptiness checks for orphan-directory pruning
package fsops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FS provides an abstraction for filesystem operations.
type FS interface {
	// Lstat returns file info without following symlinks.
	Lstat(path string) (os.FileInfo, error)

	// Stat returns file info, following symlinks.
	Stat(path string) (os.FileInfo, error)

	// Readlink reads the target of a symlink.
	Readlink(path string) (string, error)

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error

	// Remove removes a file, symlink or empty directory.
	Remove(path string) error

	// RemoveAll removes a path and all its contents. A symlink is removed,
	// never its target.
	RemoveAll(path string) error

	// Symlink creates newname as a symbolic link to oldname.
	Symlink(oldname, newname string) error

	// Copy copies a file or directory tree from src to dst.
	Copy(src, dst string) error

	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// Exists checks if a path exists (a dangling symlink exists).
	Exists(path string) (bool, error)

	// IsEmptyDir reports whether path is a directory with no entries.
	IsEmptyDir(path string) (bool, error)
}

// AferoFS implements FS on top of an afero.Fs.
type AferoFS struct {
	fs afero.Fs
}

// NewRealFS creates an FS backed by the operating system.
func NewRealFS() *AferoFS {
	return &AferoFS{fs: afero.NewOsFs()}
}

// New creates an FS backed by the given afero filesystem.
func New(fs afero.Fs) *AferoFS {
	return &AferoFS{fs: fs}
}

// Afero exposes the underlying afero filesystem.
func (a *AferoFS) Afero() afero.Fs {
	return a.fs
}

// Lstat returns file info without following symlinks. Backends without
// symlink support fall back to Stat.
func (a *AferoFS) Lstat(path string) (os.FileInfo, error) {
	if lstater, ok := a.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		return info, err
	}
	return a.fs.Stat(path)
}

// Stat returns file info, following symlinks.
func (a *AferoFS) Stat(path string) (os.FileInfo, error) {
	return a.fs.Stat(path)
}

// Readlink reads the target of a symlink.
func (a *AferoFS) Readlink(path string) (string, error) {
	reader, ok := a.fs.(afero.LinkReader)
	if !ok {
		return "", &os.LinkError{Op: "readlink", Old: path, New: "", Err: afero.ErrNoReadlink}
	}
	return reader.ReadlinkIfPossible(path)
}

// MkdirAll creates a directory and all parent directories.
func (a *AferoFS) MkdirAll(path string, perm os.FileMode) error {
	return a.fs.MkdirAll(path, perm)
}

// Remove removes a file, symlink or empty directory.
func (a *AferoFS) Remove(path string) error {
	return a.fs.Remove(path)
}

// RemoveAll removes a path and all its contents.
func (a *AferoFS) RemoveAll(path string) error {
	return a.fs.RemoveAll(path)
}

// Symlink creates newname as a symbolic link to oldname.
func (a *AferoFS) Symlink(oldname, newname string) error {
	linker, ok := a.fs.(afero.Linker)
	if !ok {
		return &os.LinkError{Op: "symlink", Old: oldname, New: newname, Err: afero.ErrNoSymlink}
	}
	return linker.SymlinkIfPossible(oldname, newname)
}

// Copy copies a file or directory from src to dst.
// Follows symlinks to copy the target content, not the symlink itself.
func (a *AferoFS) Copy(src, dst string) error {
	srcInfo, err := a.fs.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}

	// Replace the destination when its kind differs from the source. A
	// symlink at dst always counts as a mismatch so we never write through it.
	dstInfo, err := a.Lstat(dst)
	if err == nil {
		isLink := dstInfo.Mode()&os.ModeSymlink != 0
		if isLink || srcInfo.IsDir() != dstInfo.IsDir() {
			if err := a.fs.RemoveAll(dst); err != nil {
				return fmt.Errorf("failed to remove existing destination: %w", err)
			}
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat destination: %w", err)
	}

	if srcInfo.IsDir() {
		return a.copyDir(src, dst, srcInfo)
	}
	return a.copyFile(src, dst, srcInfo.Mode())
}

// copyFile copies a single file from src to dst.
func (a *AferoFS) copyFile(src, dst string, mode os.FileMode) error {
	srcFile, err := a.fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() {
		_ = srcFile.Close()
	}()

	if err := a.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	dstFile, err := a.fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}
	defer func() {
		_ = dstFile.Close()
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	return dstFile.Sync()
}

// copyDir recursively mirrors the directory src into dst.
func (a *AferoFS) copyDir(src, dst string, srcInfo os.FileInfo) error {
	if err := a.fs.MkdirAll(dst, srcInfo.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	entries, err := afero.ReadDir(a.fs, src)
	if err != nil {
		return fmt.Errorf("failed to read source directory: %w", err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		// Entries come back lstat'ed on the OS backend; Copy follows links.
		if err := a.Copy(srcPath, dstPath); err != nil {
			return err
		}
	}

	return nil
}

// ReadFile reads the entire contents of a file.
func (a *AferoFS) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(a.fs, path)
}

// Exists checks if a path exists.
func (a *AferoFS) Exists(path string) (bool, error) {
	_, err := a.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// IsEmptyDir reports whether path is a real directory with no entries.
// A symlink to a directory is never considered empty.
func (a *AferoFS) IsEmptyDir(path string) (bool, error) {
	info, err := a.Lstat(path)
	if err != nil {
		return false, err
	}
	if !info.IsDir() || info.Mode()&os.ModeSymlink != 0 {
		return false, nil
	}
	return afero.IsEmpty(a.fs, path)
}
