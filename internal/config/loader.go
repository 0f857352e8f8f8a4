package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Manifest keys read by pkglink.
const (
	SectionKey   = "extra.pkglink"
	VendorDirKey = "config.vendor-dir"
)

// Environment variables that override the global link options.
const (
	CopyEnv          = "PKGLINK_COPY"
	DeleteOrphansEnv = "PKGLINK_DELETE_ORPHANS"
)

var optionEnv = map[string]string{
	CopyEnv:          "copy",
	DeleteOrphansEnv: "deleteOrphans",
}

// Manifest is the loaded project manifest.
type Manifest struct {
	// Location is where the manifest was found
	Location LocationResult

	// Section is the raw pkglink section, nil when absent
	Section map[string]any

	// Overrides lists the global options set from the environment or .env
	Overrides map[string]bool
}

// LoadManifest locates and loads the manifest for paths, applying the vendor
// directory it declares to paths.
//
// Layers, lowest to highest priority:
// 1. Built-in defaults
// 2. The manifest file (JSON/JSONC, YAML or TOML, by extension)
// 3. Option overrides from the project .env file
// 4. Option overrides from the process environment
func LoadManifest(paths *Paths, explicitPath string) (*Manifest, error) {
	loc, err := LocateManifest(explicitPath, paths.Root)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		VendorDirKey: DefaultVendorDir,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	parser, err := parserFor(loc.Path)
	if err != nil {
		return nil, &ManifestError{Path: loc.Path, Err: err}
	}
	if err := k.Load(file.Provider(loc.Path), parser); err != nil {
		return nil, &ManifestError{Path: loc.Path, Err: err}
	}

	overrides, err := optionOverrides(paths.DotEnv)
	if err != nil {
		return nil, &ManifestError{Path: loc.Path, Err: err}
	}
	if len(overrides) > 0 {
		flat := make(map[string]interface{}, len(overrides))
		for key, value := range overrides {
			flat[SectionKey+".options."+key] = value
		}
		if err := k.Load(confmap.Provider(flat, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to apply option overrides: %w", err)
		}
	}

	paths.Manifest = loc.Path
	if vendorDir := strings.TrimSpace(k.String(VendorDirKey)); vendorDir != "" {
		paths.SetVendorDir(vendorDir)
	}

	m := &Manifest{Location: loc, Overrides: overrides}

	// Walk the raw tree rather than the flattened key index so package
	// names containing dots stay intact.
	var node interface{} = k.Raw()
	for _, part := range strings.Split(SectionKey, ".") {
		parent, ok := node.(map[string]interface{})
		if !ok {
			node = nil
			break
		}
		node = parent[part]
	}
	if node != nil {
		section, ok := node.(map[string]interface{})
		if !ok {
			return nil, &ManifestError{Path: loc.Path, Err: fmt.Errorf("%q must be a mapping", SectionKey)}
		}
		m.Section = section
	}
	return m, nil
}

// parserFor picks a koanf parser from the manifest's extension.
func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc", "":
		return JSONCParser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", filepath.Ext(path))
	}
}

// optionOverrides reads option overrides from dotEnvPath and the process
// environment. The environment wins over the file.
func optionOverrides(dotEnvPath string) (map[string]bool, error) {
	values := make(map[string]string)

	fileVars, err := godotenv.Read(dotEnvPath)
	switch {
	case err == nil:
		for name := range optionEnv {
			if v, ok := fileVars[name]; ok {
				values[name] = v
			}
		}
	case errors.Is(err, os.ErrNotExist):
		// no .env file
	default:
		return nil, fmt.Errorf("failed to read %s: %w", dotEnvPath, err)
	}

	for name := range optionEnv {
		if v, ok := os.LookupEnv(name); ok {
			values[name] = v
		}
	}

	overrides := make(map[string]bool, len(values))
	for name, raw := range values {
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%s must be a boolean, got %q", name, raw)
		}
		overrides[optionEnv[name]] = b
	}
	return overrides, nil
}
