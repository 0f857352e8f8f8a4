// Package config locates and loads the project manifest.
//
// The manifest is the host package manager's project file (composer.json by
// default). pkglink reads its own section from "extra.pkglink" and the
// vendor directory from "config.vendor-dir". Global link options can be
// overridden from the environment or the project's .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Default file and directory names, relative to the project root.
const (
	DefaultManifestName = "composer.json"
	DefaultVendorDir    = "vendor"
	DotEnvName          = ".env"
)

// Paths contains all the filesystem paths used by pkglink.
type Paths struct {
	// Root is the project root every relative path is resolved against
	Root string

	// Manifest is the project manifest file
	Manifest string

	// VendorDir is the directory packages are installed into
	VendorDir string

	// Registry is the installed-package registry inside the vendor directory
	Registry string

	// DotEnv is the project's .env file
	DotEnv string
}

// DefaultPaths returns the default paths for a project rooted at workingDir.
// An empty workingDir means the current directory.
func DefaultPaths(workingDir string) (*Paths, error) {
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		workingDir = wd
	}

	root, err := filepath.Abs(workingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	p := &Paths{
		Root:     root,
		Manifest: filepath.Join(root, DefaultManifestName),
		DotEnv:   filepath.Join(root, DotEnvName),
	}
	p.SetVendorDir(DefaultVendorDir)
	return p, nil
}

// SetVendorDir points the vendor directory and the registry at dir, which
// may be absolute or relative to the project root.
func (p *Paths) SetVendorDir(dir string) {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(p.Root, dir)
	}
	p.VendorDir = filepath.Clean(dir)
	p.Registry = filepath.Join(p.VendorDir, "composer", "installed.json")
}
