package repository

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoInstallPath is returned when a package has no location on disk,
	// such as a metapackage.
	ErrNoInstallPath = errors.New("package has no install path")

	// ErrRegistryNotFound is returned when the installed-package registry does not exist.
	ErrRegistryNotFound = errors.New("installed package registry not found")
)

// NotFoundError is returned when a package name matches nothing installed.
type NotFoundError struct {
	Name       string
	Suggestion string
}

func (e *NotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("failed to find package %s, did you mean %s?", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("failed to find package %s", e.Name)
}

// AmbiguousNameError is returned when a package name matches several installed packages.
type AmbiguousNameError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguousNameError) Error() string {
	return fmt.Sprintf("package name %s is ambiguous, it matches: %s", e.Name, strings.Join(e.Candidates, ", "))
}

// RegistryError reports an unreadable or malformed registry file.
type RegistryError struct {
	Path string
	Err  error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("failed to load installed packages from %s: %v", e.Path, e.Err)
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}
