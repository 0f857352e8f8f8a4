// Package engine provides the link and unlink logic of pkglink.
//
// The engine package sits between the batch executor and the filesystem. For
// a single link definition it resolves paths, asks the planner for an
// ordered list of operations and executes them, either aborting on the first
// filesystem failure or recording it and carrying on.
//
// Key components:
//   - Engine: executes link/unlink plans for one package
//   - Link/Unlink: whole-directory and file-mapping materialization
//   - Prune: orphan directory cleanup bounded by the destination directory
//   - Status: compares destinations with what a link would produce
package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/pkglink/internal/fsops"
	"github.com/danieljhkim/pkglink/internal/hash"
	"github.com/danieljhkim/pkglink/internal/pathres"
	"github.com/danieljhkim/pkglink/internal/planner"
)

// Engine materializes link definitions on the filesystem.
type Engine struct {
	fs        fsops.FS
	hasher    hash.Hasher
	resolver  *pathres.Resolver
	logger    zerolog.Logger
	protected []string
}

// New creates a new Engine with the given dependencies.
func New(fs fsops.FS, hasher hash.Hasher, resolver *pathres.Resolver, logger zerolog.Logger) *Engine {
	return &Engine{
		fs:       fs,
		hasher:   hasher,
		resolver: resolver,
		logger:   logger,
	}
}

// Protect registers directories no destination may equal or contain, such as
// the vendor directory. The project root is always protected.
func (e *Engine) Protect(paths ...string) {
	for _, p := range paths {
		e.protected = append(e.protected, filepath.Clean(p))
	}
}

// checkDestination rejects a destination directory whose removal would take
// out the project root, a protected directory or the package's install path.
// installPath may be empty when it is unknown.
func (e *Engine) checkDestination(destDir, installPath string) error {
	if pathres.Within(e.resolver.Root(), destDir) {
		return fmt.Errorf("%w: %s contains the project root", ErrUnsafeDestination, destDir)
	}
	for _, p := range e.protected {
		if pathres.Within(p, destDir) {
			return fmt.Errorf("%w: %s contains %s", ErrUnsafeDestination, destDir, p)
		}
	}
	if installPath != "" && (pathres.Within(installPath, destDir) || pathres.Within(destDir, installPath)) {
		return fmt.Errorf("%w: %s overlaps the install path %s", ErrUnsafeDestination, destDir, installPath)
	}
	return nil
}

// checkPlan rejects operations that would touch anything outside destDir.
func checkPlan(plan *planner.Plan, destDir string) error {
	for _, op := range plan.Operations {
		if !pathres.Within(op.DestPath, destDir) {
			return fmt.Errorf("%w: %s is outside %s", ErrUnsafeDestination, op.DestPath, destDir)
		}
	}
	return nil
}

// executePlan runs every operation of plan in order.
//
// A failure becomes an *fsops.Error and is logged. With SkipErrors it is
// recorded in the result and execution continues; otherwise it is returned
// at once and the remaining operations are not attempted.
func (e *Engine) executePlan(plan *planner.Plan, opts Options, result *Result) error {
	for _, op := range plan.Operations {
		if err := e.executeOperation(op); err != nil {
			fsErr := &fsops.Error{Op: op.Type, Path: op.DestPath, Err: err}
			e.logger.Error().
				Err(err).
				Str("package", plan.Package).
				Str("op", op.Type).
				Str("path", op.DestPath).
				Msg("Filesystem operation failed")

			if !opts.SkipErrors {
				return fsErr
			}
			result.Failed = append(result.Failed, fsErr)
			continue
		}

		e.logger.Debug().
			Str("package", plan.Package).
			Str("op", op.Type).
			Str("path", op.DestPath).
			Msg("Executed operation")
		result.Applied = append(result.Applied, op)
	}
	return nil
}

// executeOperation executes a single operation.
func (e *Engine) executeOperation(op planner.Operation) error {
	switch op.Type {
	case planner.OpRemove:
		return e.executeRemove(op)
	case planner.OpCreateSymlink:
		return e.executeCreateSymlink(op)
	case planner.OpCopy:
		return e.executeCopy(op)
	case planner.OpPrune:
		return e.executePrune(op)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOperation, op.Type)
	}
}

// executeRemove removes a path if present. Symlinks are removed, never their targets.
func (e *Engine) executeRemove(op planner.Operation) error {
	exists, err := e.fs.Exists(op.DestPath)
	if err != nil {
		return fmt.Errorf("failed to check if path exists: %w", err)
	}
	if !exists {
		return nil
	}
	if err := e.fs.RemoveAll(op.DestPath); err != nil {
		return fmt.Errorf("failed to remove path: %w", err)
	}

	return nil
}

// executeCreateSymlink creates a symlink, replacing an existing symlink or file.
func (e *Engine) executeCreateSymlink(op planner.Operation) error {
	parentDir := filepath.Dir(op.DestPath)
	if err := e.fs.MkdirAll(parentDir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	info, err := e.fs.Lstat(op.DestPath)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink == 0 && info.IsDir():
		return ErrDestinationIsDirectory
	case err == nil:
		if err := e.fs.Remove(op.DestPath); err != nil {
			return fmt.Errorf("failed to replace existing entry: %w", err)
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to stat destination: %w", err)
	}

	if err := e.fs.Symlink(op.SourcePath, op.DestPath); err != nil {
		return fmt.Errorf("failed to create symlink: %w", err)
	}

	return nil
}

// executeCopy copies a file or directory, overwriting the destination.
func (e *Engine) executeCopy(op planner.Operation) error {
	if err := e.fs.Copy(op.SourcePath, op.DestPath); err != nil {
		return fmt.Errorf("failed to copy: %w", err)
	}

	return nil
}
