package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/pkglink/internal/linkdef"
	"github.com/danieljhkim/pkglink/internal/planner"
)

// Link materializes a package's mapping.
//
// Algorithm:
// 1. Resolve the install path and the absolute destination directory
// 2. Build the link plan (skipping mappings whose source is missing)
// 3. Report what the plan replaces
// 4. Execute the plan (if not DryRun)
func (e *Engine) Link(ctx context.Context, def *linkdef.Definition, opts Options) (*Result, error) {
	pkg := def.Package().Name

	installPath, err := def.InstallPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve install path: %w", err)
	}
	destDir := filepath.Clean(e.resolver.ToAbsolute(def.Dir()))
	if err := e.checkDestination(destDir, installPath); err != nil {
		return nil, err
	}

	plan, err := planner.BuildLinkPlan(def, installPath, destDir, e.fs)
	if err != nil {
		return nil, fmt.Errorf("failed to build link plan: %w", err)
	}
	if err := checkPlan(plan, destDir); err != nil {
		return nil, err
	}

	for _, skip := range plan.Skipped {
		e.logger.Debug().Str("package", pkg).Str("source", skip.SourcePath).Str("reason", skip.Reason).Msg("Skipping mapping")
	}
	for _, c := range plan.Conflicts {
		e.logger.Warn().Str("package", pkg).Str("path", c.Path).Str("existing", c.Existing).Msg(c.Reason)
	}

	result := &Result{
		Package: pkg,
		Plan:    plan,
		Applied: []planner.Operation{},
		DryRun:  opts.DryRun,
	}
	if opts.DryRun {
		return result, nil
	}

	e.logger.Info().
		Str("package", pkg).
		Str("mode", def.Mode()).
		Str("dest", destDir).
		Int("operations", len(plan.Operations)).
		Msg("Linking package")

	return result, e.executePlan(plan, opts, result)
}

// Unlink removes a package's mapping.
//
// Nothing is tracked between runs: the destinations are re-derived from the
// definition. Orphan pruning only removes directories that are verifiably
// empty, so anything the package did not create survives.
func (e *Engine) Unlink(ctx context.Context, def *linkdef.Definition, opts Options) (*Result, error) {
	pkg := def.Package().Name
	destDir := filepath.Clean(e.resolver.ToAbsolute(def.Dir()))

	// The install path is not required to unlink; it is only checked when known.
	installPath, _ := def.InstallPath()
	if err := e.checkDestination(destDir, installPath); err != nil {
		return nil, err
	}

	plan := planner.BuildUnlinkPlan(def, destDir)
	if err := checkPlan(plan, destDir); err != nil {
		return nil, err
	}

	result := &Result{
		Package: pkg,
		Plan:    plan,
		Applied: []planner.Operation{},
		DryRun:  opts.DryRun,
	}
	if opts.DryRun {
		return result, nil
	}

	e.logger.Info().
		Str("package", pkg).
		Str("dest", destDir).
		Int("operations", len(plan.Operations)).
		Msg("Unlinking package")

	return result, e.executePlan(plan, opts, result)
}
