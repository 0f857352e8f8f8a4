// Package linkconfig parses the link section of a project manifest.
//
// The section maps package names to a destination directory, either as a plain
// string or as a mapping with explicit files and options:
//
//	{
//	  "links": {
//	    "vendor/simple": "public/simple",
//	    "vendor/detailed": {
//	      "dir": "public/detailed",
//	      "files": {"src/x.php": ["out/x.php", "branch/x.php"]},
//	      "options": {"copy": true}
//	    }
//	  },
//	  "options": {"copy": false, "deleteOrphans": true}
//	}
//
// Both shapes are normalized once, at parse time, into a PackageConfig.
package linkconfig

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/danieljhkim/pkglink/internal/pathres"
)

// Option keys recognized in the "options" mappings.
const (
	OptionCopy          = "copy"
	OptionDeleteOrphans = "deleteOrphans"
)

// Options controls how a package is materialized.
type Options struct {
	// Copy copies files instead of symlinking them
	Copy bool `json:"copy" yaml:"copy"`

	// DeleteOrphans prunes destination directories left empty by unlink
	DeleteOrphans bool `json:"deleteOrphans" yaml:"deleteOrphans"`
}

// FileMapping maps one source path, relative to the install path, onto one
// or more destination paths relative to the destination directory.
type FileMapping struct {
	Source       string   `json:"source" yaml:"source"`
	Destinations []string `json:"destinations" yaml:"destinations"`
}

// PackageConfig is the normalized configuration of a single package.
type PackageConfig struct {
	// Name is the package name the configuration is keyed by
	Name string `json:"name" yaml:"name"`

	// Dir is the destination directory, absolute or project-relative
	Dir string `json:"dir" yaml:"dir"`

	// Files lists explicit mappings; empty means the whole directory is mapped
	Files []FileMapping `json:"files,omitempty" yaml:"files,omitempty"`

	// Options are the effective options after merging over the global ones
	Options Options `json:"options" yaml:"options"`
}

// WholeDirectory reports whether the package maps its entire install directory.
func (p *PackageConfig) WholeDirectory() bool {
	return len(p.Files) == 0
}

// Configuration is the parsed link section. It is immutable after Parse.
type Configuration struct {
	packages map[string]*PackageConfig
	invalid  map[string]*InvalidConfigError
	options  Options
}

// Parse builds a Configuration from the raw plugin section of a manifest.
//
// A missing or malformed "links" key, or malformed global options, fail the
// whole parse with a *ConfigLoadError. A malformed package entry only marks
// that package invalid; Get reports it as an *InvalidConfigError.
func Parse(raw map[string]any) (*Configuration, error) {
	linksRaw, ok := raw["links"]
	if !ok {
		return nil, &ConfigLoadError{Reason: `missing "links" key`}
	}
	links, ok := asMap(linksRaw)
	if !ok {
		return nil, &ConfigLoadError{Reason: fmt.Sprintf(`"links" must be a mapping, got %s`, describe(linksRaw))}
	}

	global := Options{}
	if optsRaw, ok := raw["options"]; ok && optsRaw != nil {
		optsMap, ok := asMap(optsRaw)
		if !ok {
			return nil, &ConfigLoadError{Reason: fmt.Sprintf(`"options" must be a mapping, got %s`, describe(optsRaw))}
		}
		merged, err := mergeOptions(global, optsMap)
		if err != nil {
			return nil, &ConfigLoadError{Reason: err.Error()}
		}
		global = merged
	}

	cfg := &Configuration{
		packages: make(map[string]*PackageConfig, len(links)),
		invalid:  make(map[string]*InvalidConfigError),
		options:  global,
	}

	for name, value := range links {
		if name == "" {
			return nil, &ConfigLoadError{Reason: "package names must not be empty"}
		}

		m, err := classify(value)
		if err != nil {
			cfg.invalid[name] = &InvalidConfigError{Package: name, Reason: err.Error()}
			continue
		}

		pkg, err := m.normalize(name, global)
		if err != nil {
			cfg.invalid[name] = &InvalidConfigError{Package: name, Reason: err.Error()}
			continue
		}
		cfg.packages[name] = pkg
	}

	return cfg, nil
}

// Options returns the global options.
func (c *Configuration) Options() Options {
	return c.options
}

// Lookup returns the configuration of a package and whether a valid one exists.
func (c *Configuration) Lookup(name string) (*PackageConfig, bool) {
	pkg, ok := c.packages[name]
	return pkg, ok
}

// Get returns the configuration of a package, or ErrConfigNotFound, or the
// *InvalidConfigError recorded for it at parse time.
func (c *Configuration) Get(name string) (*PackageConfig, error) {
	if pkg, ok := c.packages[name]; ok {
		return pkg, nil
	}
	if invalid, ok := c.invalid[name]; ok {
		return nil, invalid
	}
	return nil, fmt.Errorf("%w for package %s", ErrConfigNotFound, name)
}

// Has reports whether the package has an entry, valid or not.
func (c *Configuration) Has(name string) bool {
	_, valid := c.packages[name]
	_, invalid := c.invalid[name]
	return valid || invalid
}

// Packages returns the names of all validly configured packages, sorted.
func (c *Configuration) Packages() []string {
	names := make([]string, 0, len(c.packages))
	for name := range c.packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate reports every invalid package entry and every pair of packages
// whose destination directories are identical or nested.
func (c *Configuration) Validate() []error {
	var errs []error

	invalidNames := make([]string, 0, len(c.invalid))
	for name := range c.invalid {
		invalidNames = append(invalidNames, name)
	}
	sort.Strings(invalidNames)
	for _, name := range invalidNames {
		errs = append(errs, c.invalid[name])
	}

	for _, err := range c.Overlaps() {
		errs = append(errs, err)
	}
	return errs
}

// Overlaps reports every pair of packages whose destinations collide.
func (c *Configuration) Overlaps() []*OverlapError {
	names := c.Packages()
	var overlaps []*OverlapError
	for i, a := range names {
		dirA := filepath.Clean(c.packages[a].Dir)
		for _, b := range names[i+1:] {
			dirB := filepath.Clean(c.packages[b].Dir)
			if pathres.Within(dirA, dirB) || pathres.Within(dirB, dirA) {
				overlaps = append(overlaps, &OverlapError{
					Package:  a,
					Dir:      dirA,
					Other:    b,
					OtherDir: dirB,
				})
			}
		}
	}
	return overlaps
}
