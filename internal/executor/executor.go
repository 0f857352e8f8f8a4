// Package executor applies link and unlink across one or many packages.
//
// Each package is processed to completion before the next one starts, and a
// failure in one package never stops the others. Results and failures are
// reported in input order.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/pkglink/internal/engine"
	"github.com/danieljhkim/pkglink/internal/fsops"
	"github.com/danieljhkim/pkglink/internal/linkconfig"
	"github.com/danieljhkim/pkglink/internal/linkdef"
	"github.com/danieljhkim/pkglink/internal/repository"
)

// Operation is the action applied to a package.
type Operation string

const (
	OpLink   Operation = "link"
	OpUnlink Operation = "unlink"
)

// Materializer links and unlinks single packages.
type Materializer interface {
	Link(ctx context.Context, def *linkdef.Definition, opts engine.Options) (*engine.Result, error)
	Unlink(ctx context.Context, def *linkdef.Definition, opts engine.Options) (*engine.Result, error)
}

// Options controls a batch run.
type Options struct {
	// Strict aborts a package on its first filesystem error instead of
	// recording it and continuing
	Strict bool

	// DryRun plans every package without touching the filesystem
	DryRun bool
}

// PackageResult is the outcome for one package.
type PackageResult struct {
	Package   repository.Package
	Operation Operation

	// Unlink is the result of clearing the destination; set for both operations
	Unlink *engine.Result

	// Link is the result of materializing the package; nil for unlink
	Link *engine.Result
}

// Failed returns the filesystem failures that were recorded and skipped.
func (r *PackageResult) Failed() []*fsops.Error {
	var failed []*fsops.Error
	if r.Unlink != nil {
		failed = append(failed, r.Unlink.Failed...)
	}
	if r.Link != nil {
		failed = append(failed, r.Link.Failed...)
	}
	return failed
}

// BatchResult is the outcome of a batch, in input order.
type BatchResult struct {
	// Results holds every package that was processed successfully
	Results []*PackageResult

	// Unconfigured lists packages skipped because they have no configuration
	Unconfigured []string
}

// Executor runs link and unlink for packages found in a Configuration.
type Executor struct {
	config   *linkconfig.Configuration
	resolver linkdef.InstallPathResolver
	engine   Materializer
	opts     Options
	logger   zerolog.Logger
}

// New creates a new Executor with the given dependencies.
func New(
	config *linkconfig.Configuration,
	resolver linkdef.InstallPathResolver,
	eng Materializer,
	opts Options,
	logger zerolog.Logger,
) *Executor {
	return &Executor{
		config:   config,
		resolver: resolver,
		engine:   eng,
		opts:     opts,
		logger:   logger,
	}
}

func (x *Executor) engineOptions() engine.Options {
	return engine.Options{
		SkipErrors: !x.opts.Strict,
		DryRun:     x.opts.DryRun,
	}
}

// ExecutePackage links or unlinks a single package.
//
// Link always clears the destination through Unlink first, so linking an
// already linked package ends in the same state. A package without
// configuration fails with an error wrapping linkconfig.ErrConfigNotFound.
// Every failure is returned as a *PackageError.
func (x *Executor) ExecutePackage(ctx context.Context, op Operation, pkg repository.Package) (*PackageResult, error) {
	wrap := func(err error) error {
		return &PackageError{Package: pkg.Name, Operation: op, Err: err}
	}

	cfg, err := x.config.Get(pkg.Name)
	if err != nil {
		return nil, wrap(err)
	}

	def, err := linkdef.New(pkg, x.resolver, cfg)
	if err != nil {
		return nil, wrap(err)
	}

	result := &PackageResult{Package: pkg, Operation: op}
	opts := x.engineOptions()

	switch op {
	case OpLink:
		if result.Unlink, err = x.engine.Unlink(ctx, def, opts); err != nil {
			return nil, wrap(fmt.Errorf("failed to clear destination: %w", err))
		}
		if result.Link, err = x.engine.Link(ctx, def, opts); err != nil {
			return nil, wrap(err)
		}
	case OpUnlink:
		if result.Unlink, err = x.engine.Unlink(ctx, def, opts); err != nil {
			return nil, wrap(err)
		}
	default:
		return nil, wrap(fmt.Errorf("unknown operation %q", op))
	}

	for _, failed := range result.Failed() {
		x.logger.Warn().Str("package", pkg.Name).Err(failed).Msg("Skipped filesystem error")
	}
	return result, nil
}

// ExecuteNamed processes explicitly requested packages. A package without
// configuration is a failure.
func (x *Executor) ExecuteNamed(ctx context.Context, op Operation, pkgs []repository.Package) (*BatchResult, error) {
	return x.executeBatch(ctx, op, pkgs, false)
}

// ExecuteAll processes an entire dependency set. Packages without
// configuration are skipped.
func (x *Executor) ExecuteAll(ctx context.Context, op Operation, pkgs []repository.Package) (*BatchResult, error) {
	return x.executeBatch(ctx, op, pkgs, true)
}

func (x *Executor) executeBatch(ctx context.Context, op Operation, pkgs []repository.Package, skipUnconfigured bool) (*BatchResult, error) {
	x.warnOverlaps(pkgs)

	batch := &BatchResult{}
	var failures []*PackageError

	for _, pkg := range pkgs {
		result, err := x.ExecutePackage(ctx, op, pkg)
		if err == nil {
			batch.Results = append(batch.Results, result)
			continue
		}

		if skipUnconfigured && errors.Is(err, linkconfig.ErrConfigNotFound) {
			x.logger.Debug().Str("package", pkg.Name).Msg("No link configuration, skipping")
			batch.Unconfigured = append(batch.Unconfigured, pkg.Name)
			continue
		}

		var pkgErr *PackageError
		if !errors.As(err, &pkgErr) {
			pkgErr = &PackageError{Package: pkg.Name, Operation: op, Err: err}
		}
		x.logger.Error().Err(pkgErr.Err).Str("package", pkg.Name).Str("op", string(op)).Msg("Package failed")
		failures = append(failures, pkgErr)
	}

	if len(failures) > 0 {
		return batch, &BatchError{Errors: failures}
	}
	return batch, nil
}

// warnOverlaps logs destination collisions that involve packages in the batch.
func (x *Executor) warnOverlaps(pkgs []repository.Package) {
	inBatch := make(map[string]bool, len(pkgs))
	for _, pkg := range pkgs {
		inBatch[pkg.Name] = true
	}
	for _, overlap := range x.config.Overlaps() {
		if inBatch[overlap.Package] || inBatch[overlap.Other] {
			x.logger.Warn().Msg(overlap.Error())
		}
	}
}
