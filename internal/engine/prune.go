package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/danieljhkim/pkglink/internal/pathres"
	"github.com/danieljhkim/pkglink/internal/planner"
)

// executePrune removes empty directories from op.DestPath upwards.
//
// Each ancestor is removed only if it is a real directory with no entries.
// The walk stops at the first ancestor that is not empty and never goes above
// op.StopAt, which is itself removed when empty. Ancestors that no longer
// exist are passed over.
func (e *Engine) executePrune(op planner.Operation) error {
	stop := filepath.Clean(op.StopAt)
	dir := filepath.Clean(op.DestPath)

	for pathres.Within(dir, stop) {
		info, err := e.fs.Lstat(dir)
		switch {
		case os.IsNotExist(err):
			// already gone, keep climbing
		case err != nil:
			return fmt.Errorf("failed to stat %s: %w", dir, err)
		case info.Mode()&os.ModeSymlink != 0 || !info.IsDir():
			return nil
		default:
			empty, err := e.fs.IsEmptyDir(dir)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", dir, err)
			}
			if !empty {
				return nil
			}
			if err := e.fs.Remove(dir); err != nil {
				return fmt.Errorf("failed to remove empty directory %s: %w", dir, err)
			}
			e.logger.Debug().Str("path", dir).Msg("Removed orphan directory")
		}

		if dir == stop {
			return nil
		}
		dir = filepath.Dir(dir)
	}

	return nil
}
