package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ManifestEnv names the environment variable that overrides the manifest location.
const ManifestEnv = "PKGLINK_MANIFEST"

// ManifestSource identifies where the manifest was discovered.
type ManifestSource string

const (
	ManifestSourceExplicit ManifestSource = "explicit"
	ManifestSourceEnv      ManifestSource = "env"
	ManifestSourceRoot     ManifestSource = "root"
)

// LocationResult describes the discovered manifest.
type LocationResult struct {
	Path   string
	Source ManifestSource
}

// LocateManifest discovers the manifest following the precedence rules:
// explicit path → PKGLINK_MANIFEST → <root>/composer.json.
// Relative paths are resolved against root.
func LocateManifest(explicitPath, root string) (LocationResult, error) {
	if path := strings.TrimSpace(explicitPath); path != "" {
		abs := absFrom(path, root)
		if exists(abs) {
			return LocationResult{Path: abs, Source: ManifestSourceExplicit}, nil
		}
		return LocationResult{}, fmt.Errorf("%w: %s", ErrManifestNotFound, abs)
	}

	if path, ok := os.LookupEnv(ManifestEnv); ok && strings.TrimSpace(path) != "" {
		abs := absFrom(strings.TrimSpace(path), root)
		if exists(abs) {
			return LocationResult{Path: abs, Source: ManifestSourceEnv}, nil
		}
		return LocationResult{}, fmt.Errorf("%w: %s", ErrManifestNotFound, abs)
	}

	path := filepath.Join(root, DefaultManifestName)
	if exists(path) {
		return LocationResult{Path: path, Source: ManifestSourceRoot}, nil
	}
	return LocationResult{}, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
}

func absFrom(path, root string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

func exists(path string) bool {
	stat, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !stat.IsDir()
}
