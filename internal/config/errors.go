package config

import (
	"errors"
	"fmt"
)

// ErrManifestNotFound is returned when no manifest file can be located.
var ErrManifestNotFound = errors.New("manifest not found")

// ManifestError reports a manifest that could not be read or parsed.
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("failed to load manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}
