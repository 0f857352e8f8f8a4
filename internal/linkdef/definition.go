// Package linkdef builds the immutable instruction set used to link or
// unlink a single package.
package linkdef

import (
	"fmt"

	"github.com/danieljhkim/pkglink/internal/linkconfig"
	"github.com/danieljhkim/pkglink/internal/repository"
)

// InstallPathResolver locates a package on disk.
type InstallPathResolver interface {
	ResolveInstallPath(pkg repository.Package) (string, error)
}

// Definition describes how one package maps onto its destination directory.
// It is built fresh for every link or unlink call and never modified.
type Definition struct {
	pkg           repository.Package
	resolver      InstallPathResolver
	dir           string
	copyFiles     bool
	deleteOrphans bool
	mappings      []linkconfig.FileMapping
}

// New builds a Definition from a package and its configuration.
func New(pkg repository.Package, resolver InstallPathResolver, cfg *linkconfig.PackageConfig) (*Definition, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w for package %s", linkconfig.ErrConfigNotFound, pkg.Name)
	}
	if resolver == nil {
		return nil, fmt.Errorf("no install path resolver for package %s", pkg.Name)
	}

	mappings := make([]linkconfig.FileMapping, len(cfg.Files))
	for i, m := range cfg.Files {
		mappings[i] = linkconfig.FileMapping{
			Source:       m.Source,
			Destinations: append([]string(nil), m.Destinations...),
		}
	}

	return &Definition{
		pkg:           pkg,
		resolver:      resolver,
		dir:           cfg.Dir,
		copyFiles:     cfg.Options.Copy,
		deleteOrphans: cfg.Options.DeleteOrphans,
		mappings:      mappings,
	}, nil
}

// Package returns the package being linked.
func (d *Definition) Package() repository.Package {
	return d.pkg
}

// InstallPath resolves the package's install directory.
func (d *Definition) InstallPath() (string, error) {
	return d.resolver.ResolveInstallPath(d.pkg)
}

// Dir returns the destination directory, absolute or project-relative.
func (d *Definition) Dir() string {
	return d.dir
}

// CopyFiles reports whether files are copied rather than symlinked.
func (d *Definition) CopyFiles() bool {
	return d.copyFiles
}

// DeleteOrphans reports whether empty destination directories are pruned on unlink.
func (d *Definition) DeleteOrphans() bool {
	return d.deleteOrphans
}

// Mappings returns a copy of the explicit file mappings.
func (d *Definition) Mappings() []linkconfig.FileMapping {
	out := make([]linkconfig.FileMapping, len(d.mappings))
	for i, m := range d.mappings {
		out[i] = linkconfig.FileMapping{
			Source:       m.Source,
			Destinations: append([]string(nil), m.Destinations...),
		}
	}
	return out
}

// WholeDirectory reports whether the entire install directory is mapped.
func (d *Definition) WholeDirectory() bool {
	return len(d.mappings) == 0
}

// Mode returns "copy" or "symlink".
func (d *Definition) Mode() string {
	if d.copyFiles {
		return "copy"
	}
	return "symlink"
}
