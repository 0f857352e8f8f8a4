package linkconfig

import (
	"errors"
	"fmt"
)

// ErrConfigNotFound is returned when no link configuration exists for a package.
var ErrConfigNotFound = errors.New("no link configuration found")

// ConfigLoadError reports a manifest-level structural problem. It is fatal:
// no configuration can be built from the section.
type ConfigLoadError struct {
	Reason string
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("failed to load link configuration: %s", e.Reason)
}

// InvalidConfigError reports a package whose configuration is structurally
// invalid. Only that package is affected.
type InvalidConfigError struct {
	Package string
	Reason  string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid link configuration for package %s: %s", e.Package, e.Reason)
}

// OverlapError reports two packages whose destination directories are
// identical or nested inside one another.
type OverlapError struct {
	Package  string
	Dir      string
	Other    string
	OtherDir string
}

func (e *OverlapError) Error() string {
	if e.Dir == e.OtherDir {
		return fmt.Sprintf("packages %s and %s share the destination directory %s", e.Package, e.Other, e.Dir)
	}
	return fmt.Sprintf("destination %s of package %s overlaps destination %s of package %s", e.Dir, e.Package, e.OtherDir, e.Other)
}
