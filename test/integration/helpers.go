// Package integration runs whole link lifecycles against an in-memory
// filesystem: configuration parsing, the executor, the engine and the event
// bus wired together the way the CLI wires them.
package integration

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/danieljhkim/pkglink/internal/engine"
	"github.com/danieljhkim/pkglink/internal/executor"
	"github.com/danieljhkim/pkglink/internal/fsops"
	"github.com/danieljhkim/pkglink/internal/hash"
	"github.com/danieljhkim/pkglink/internal/linkconfig"
	"github.com/danieljhkim/pkglink/internal/pathres"
	"github.com/danieljhkim/pkglink/internal/repository"
)

// harness is a project whose files live in a MemMapFs. Only copy mode can
// be exercised since the in-memory filesystem has no symlinks.
type harness struct {
	root string
	afs  afero.Fs
	fs   *fsops.AferoFS
	eng  *engine.Engine
	pkgs []repository.Package
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	// The resolver validates its root on the real filesystem.
	root := t.TempDir()
	resolver, err := pathres.NewWithRoot(root)
	if err != nil {
		t.Fatalf("NewWithRoot() error = %v", err)
	}

	afs := afero.NewMemMapFs()
	fs := fsops.New(afs)
	return &harness{
		root: root,
		afs:  afs,
		fs:   fs,
		eng:  engine.New(fs, hash.NewSHA256Hasher(afs), resolver, zerolog.Nop()),
	}
}

func (h *harness) path(rel string) string {
	return filepath.Join(h.root, filepath.FromSlash(rel))
}

// install writes a package's files under vendor/<name> and registers it.
func (h *harness) install(t *testing.T, name, version string, files map[string]string) repository.Package {
	t.Helper()
	installPath := h.path("vendor/" + name)
	if err := h.afs.RemoveAll(installPath); err != nil {
		t.Fatal(err)
	}
	for rel, content := range files {
		h.write(t, "vendor/"+name+"/"+rel, content)
	}

	pkg := repository.Package{Name: name, Version: version, InstallPath: installPath}
	for i, existing := range h.pkgs {
		if existing.Name == name {
			h.pkgs[i] = pkg
			return pkg
		}
	}
	h.pkgs = append(h.pkgs, pkg)
	return pkg
}

// uninstall removes a package's files and drops it from the registry.
func (h *harness) uninstall(t *testing.T, name string) repository.Package {
	t.Helper()
	for i, pkg := range h.pkgs {
		if pkg.Name == name {
			if err := h.afs.RemoveAll(pkg.InstallPath); err != nil {
				t.Fatal(err)
			}
			h.pkgs = append(h.pkgs[:i], h.pkgs[i+1:]...)
			return pkg
		}
	}
	t.Fatalf("package %s is not installed", name)
	return repository.Package{}
}

func (h *harness) repo() *repository.Repository {
	return repository.New(h.pkgs...)
}

func (h *harness) write(t *testing.T, rel, content string) {
	t.Helper()
	path := h.path(rel)
	if err := h.afs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(h.afs, path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func (h *harness) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := afero.ReadFile(h.afs, h.path(rel))
	if err != nil {
		t.Fatalf("failed to read %s: %v", rel, err)
	}
	return string(data)
}

func (h *harness) exists(rel string) bool {
	_, err := h.afs.Stat(h.path(rel))
	return err == nil
}

// snapshot lists every file and directory outside vendor/, relative to root.
func (h *harness) snapshot(t *testing.T) []string {
	t.Helper()
	var entries []string
	err := afero.Walk(h.afs, h.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(h.root, path)
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel == "vendor" || strings.HasPrefix(rel, "vendor/") {
			return nil
		}
		if info.IsDir() {
			rel += "/"
		}
		entries = append(entries, rel)
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("walk failed: %v", err)
	}
	sort.Strings(entries)
	return entries
}

// executor parses links and builds a batch executor over the installed set.
func (h *harness) executor(t *testing.T, links map[string]any, opts executor.Options) (*executor.Executor, *linkconfig.Configuration) {
	t.Helper()
	cfg, err := linkconfig.Parse(map[string]any{"links": links})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return executor.New(cfg, h.repo(), h.eng, opts, zerolog.Nop()), cfg
}
