package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/danieljhkim/pkglink/internal/linkdef"
)

// Status reports the state of every destination of a package without
// changing anything.
func (e *Engine) Status(def *linkdef.Definition) ([]EntryStatus, error) {
	installPath, err := def.InstallPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve install path: %w", err)
	}
	destDir := e.resolver.ToAbsolute(def.Dir())

	if def.WholeDirectory() {
		return []EntryStatus{e.entryStatus(def, installPath, destDir)}, nil
	}

	var entries []EntryStatus
	for _, mapping := range def.Mappings() {
		source := filepath.Join(installPath, filepath.FromSlash(mapping.Source))
		for _, dest := range mapping.Destinations {
			entries = append(entries, e.entryStatus(def, source, filepath.Join(destDir, filepath.FromSlash(dest))))
		}
	}
	return entries, nil
}

func (e *Engine) entryStatus(def *linkdef.Definition, source, dest string) EntryStatus {
	entry := EntryStatus{
		Package: def.Package().Name,
		Source:  source,
		Dest:    dest,
		Mode:    def.Mode(),
	}

	srcInfo, err := e.fs.Stat(source)
	if err != nil {
		entry.State = StateSourceMissing
		return entry
	}

	info, err := e.fs.Lstat(dest)
	if err != nil {
		entry.State = StateMissing
		if !os.IsNotExist(err) {
			entry.Detail = err.Error()
		}
		return entry
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := e.fs.Readlink(dest)
		switch {
		case err != nil:
			entry.State = StateForeign
			entry.Detail = err.Error()
		case !def.CopyFiles() && filepath.Clean(target) == filepath.Clean(source):
			entry.State = StateLinked
		default:
			entry.State = StateForeign
			entry.Detail = "symlink to " + target
		}
		return entry
	}

	if !def.CopyFiles() {
		entry.State = StateForeign
		entry.Detail = "expected a symlink"
		return entry
	}
	if info.IsDir() != srcInfo.IsDir() {
		entry.State = StateForeign
		entry.Detail = "type differs from source"
		return entry
	}

	srcSum, err := e.hasher.HashTree(source)
	if err != nil {
		entry.State = StateForeign
		entry.Detail = err.Error()
		return entry
	}
	destSum, err := e.hasher.HashTree(dest)
	if err != nil {
		entry.State = StateForeign
		entry.Detail = err.Error()
		return entry
	}

	entry.State = StateCopied
	if srcSum != destSum {
		entry.State = StateModified
	}
	return entry
}
