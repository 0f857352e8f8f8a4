// Package repository reads the host package manager's registry of installed
// packages and resolves user-supplied package names against it.
package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

// Package is an installed dependency.
type Package struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	InstallPath string `json:"install-path,omitempty" yaml:"install-path,omitempty"`
}

// Repository is an ordered, read-only set of installed packages.
type Repository struct {
	packages []Package
	index    map[string]int
}

// New creates a Repository from packages, keeping their order. Later
// duplicates of a name are ignored.
func New(packages ...Package) *Repository {
	r := &Repository{index: make(map[string]int, len(packages))}
	for _, pkg := range packages {
		if _, dup := r.index[pkg.Name]; dup {
			continue
		}
		r.index[pkg.Name] = len(r.packages)
		r.packages = append(r.packages, pkg)
	}
	return r
}

// LoadInstalled parses an installed.json registry. Both the flat array layout
// and the {"packages": [...]} layout are accepted.
//
// A package's install-path is resolved relative to the registry directory.
// Packages without one are assumed to live at <vendorDir>/<name>, except
// metapackages which have no files.
func LoadInstalled(fs afero.Fs, path, vendorDir string) (*Repository, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &RegistryError{Path: path, Err: ErrRegistryNotFound}
		}
		return nil, &RegistryError{Path: path, Err: err}
	}

	if !gjson.ValidBytes(data) {
		return nil, &RegistryError{Path: path, Err: errors.New("invalid JSON")}
	}

	doc := gjson.ParseBytes(data)
	list := doc
	if doc.IsObject() {
		list = doc.Get("packages")
	}
	if !list.IsArray() {
		return nil, &RegistryError{Path: path, Err: errors.New(`expected an array of packages or a "packages" key`)}
	}

	registryDir := filepath.Dir(path)
	var packages []Package
	var parseErr error
	list.ForEach(func(_, entry gjson.Result) bool {
		name := entry.Get("name").String()
		if name == "" {
			parseErr = fmt.Errorf("package entry without a name: %s", entry.Raw)
			return false
		}

		pkg := Package{
			Name:    name,
			Version: entry.Get("version").String(),
			Type:    entry.Get("type").String(),
		}

		switch installPath := entry.Get("install-path"); {
		case installPath.Exists() && installPath.Type != gjson.Null:
			p := filepath.FromSlash(installPath.String())
			if !filepath.IsAbs(p) {
				p = filepath.Join(registryDir, p)
			}
			pkg.InstallPath = filepath.Clean(p)
		case pkg.Type == "metapackage":
			// nothing on disk
		default:
			pkg.InstallPath = filepath.Join(vendorDir, filepath.FromSlash(name))
		}

		packages = append(packages, pkg)
		return true
	})
	if parseErr != nil {
		return nil, &RegistryError{Path: path, Err: parseErr}
	}

	return New(packages...), nil
}

// Packages returns the installed packages in registry order.
func (r *Repository) Packages() []Package {
	out := make([]Package, len(r.packages))
	copy(out, r.packages)
	return out
}

// Names returns the installed package names in registry order.
func (r *Repository) Names() []string {
	names := make([]string, len(r.packages))
	for i, pkg := range r.packages {
		names[i] = pkg.Name
	}
	return names
}

// Get returns the installed package with exactly this name.
func (r *Repository) Get(name string) (Package, bool) {
	i, ok := r.index[name]
	if !ok {
		return Package{}, false
	}
	return r.packages[i], true
}

// Len returns the number of installed packages.
func (r *Repository) Len() int {
	return len(r.packages)
}

// ResolveInstallPath returns the absolute directory a package is installed in.
// The package's own InstallPath wins; otherwise the registry entry is used.
func (r *Repository) ResolveInstallPath(pkg Package) (string, error) {
	if pkg.InstallPath != "" {
		return pkg.InstallPath, nil
	}
	if installed, ok := r.Get(pkg.Name); ok && installed.InstallPath != "" {
		return installed.InstallPath, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoInstallPath, pkg.Name)
}
