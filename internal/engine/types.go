package engine

import (
	"github.com/danieljhkim/pkglink/internal/fsops"
	"github.com/danieljhkim/pkglink/internal/planner"
)

// Options controls how a plan is executed.
type Options struct {
	// SkipErrors records filesystem failures and continues instead of
	// returning the first one
	SkipErrors bool

	// DryRun builds the plan without touching the filesystem
	DryRun bool
}

// DefaultOptions returns the options used for batch runs.
func DefaultOptions() Options {
	return Options{SkipErrors: true}
}

// Result represents the outcome of a link or unlink.
type Result struct {
	// Package is the name of the package
	Package string

	// Plan is the generated plan
	Plan *planner.Plan

	// Applied is the list of operations that were executed (empty if DryRun)
	Applied []planner.Operation

	// Failed lists the filesystem failures recorded with SkipErrors
	Failed []*fsops.Error

	// DryRun indicates whether this was a dry run
	DryRun bool
}

// Entry states reported by Status.
const (
	StateLinked        = "linked"
	StateCopied        = "copied"
	StateModified      = "modified"
	StateMissing       = "missing"
	StateForeign       = "foreign"
	StateSourceMissing = "source-missing"
)

// EntryStatus describes one destination of a package.
type EntryStatus struct {
	Package string `json:"package" yaml:"package"`
	Source  string `json:"source" yaml:"source"`
	Dest    string `json:"dest" yaml:"dest"`
	Mode    string `json:"mode" yaml:"mode"`
	State   string `json:"state" yaml:"state"`
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
}
