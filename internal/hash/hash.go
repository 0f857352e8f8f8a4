// Package hash provides content hashing for drift detection.
//
// pkglink compares SHA-256 hashes of copied destinations with their sources to
// tell an intact copy from one that was edited in place. The package provides
// a real implementation on top of an afero filesystem and a fake
// implementation for testing.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// Hasher provides an abstraction for content hashing operations.
type Hasher interface {
	// HashFile computes the hash of the file at the given path.
	HashFile(path string) (string, error)

	// HashTree computes a hash over every file below root, including the
	// files' relative paths. A regular file hashes like HashFile.
	HashTree(root string) (string, error)
}

// SHA256Hasher implements Hasher using SHA-256.
type SHA256Hasher struct {
	fs afero.Fs
}

// NewSHA256Hasher creates a new SHA256Hasher reading from fs.
func NewSHA256Hasher(fs afero.Fs) *SHA256Hasher {
	return &SHA256Hasher{fs: fs}
}

// HashFile computes the SHA-256 hash of the file at the given path.
func (h *SHA256Hasher) HashFile(path string) (string, error) {
	file, err := h.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashTree computes the SHA-256 hash of a directory tree. Entries are visited
// in lexical order so the result does not depend on the walk order.
func (h *SHA256Hasher) HashTree(root string) (string, error) {
	info, err := h.fs.Stat(root)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return h.HashFile(root)
	}

	var files []string
	err = afero.Walk(h.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(files)

	tree := sha256.New()
	for _, rel := range files {
		path := filepath.Join(root, rel)
		entry, err := h.fs.Stat(path)
		if err != nil {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}

		sum := "dir"
		if !entry.IsDir() {
			if sum, err = h.HashFile(path); err != nil {
				return "", err
			}
		}
		_, _ = fmt.Fprintf(tree, "%s\x00%s\n", filepath.ToSlash(rel), sum)
	}

	return hex.EncodeToString(tree.Sum(nil)), nil
}

// FakeHasher implements Hasher with deterministic hashes for testing.
type FakeHasher struct {
	hashes map[string]string
}

// NewFakeHasher creates a new FakeHasher.
func NewFakeHasher() *FakeHasher {
	return &FakeHasher{
		hashes: make(map[string]string),
	}
}

// SetHash sets the hash for a specific path (for testing).
func (h *FakeHasher) SetHash(path, hash string) {
	h.hashes[path] = hash
}

// HashFile returns the predetermined hash for the given path.
func (h *FakeHasher) HashFile(path string) (string, error) {
	if hash, ok := h.hashes[path]; ok {
		return hash, nil
	}
	// Default hash if not set
	return "fakehash", nil
}

// HashTree returns the predetermined hash for the given root.
func (h *FakeHasher) HashTree(root string) (string, error) {
	return h.HashFile(root)
}
