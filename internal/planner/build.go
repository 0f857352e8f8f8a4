package planner

import (
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/pkglink/internal/fsops"
	"github.com/danieljhkim/pkglink/internal/linkdef"
)

// BuildLinkPlan generates a deterministic plan to link a package.
//
// installPath and destDir must be absolute. In whole-directory mode the plan
// holds a single operation mapping installPath onto destDir. In file-mapping
// mode every (source, destination) pair gets its own operation, in mapping
// order; mappings whose source does not exist are skipped.
func BuildLinkPlan(def *linkdef.Definition, installPath, destDir string, fs fsops.FS) (*Plan, error) {
	plan := NewPlan(def.Package().Name)
	checker := NewConflictChecker(fs)

	opType := OpCreateSymlink
	if def.CopyFiles() {
		opType = OpCopy
	}

	add := func(src, dst, rel string) {
		if conflict := checker.CheckPath(dst, src, opType); conflict != nil {
			plan.AddConflict(*conflict)
		}
		plan.AddOperation(Operation{
			Type:       opType,
			SourcePath: src,
			DestPath:   dst,
			RelPath:    rel,
		})
	}

	if def.WholeDirectory() {
		add(installPath, destDir, ".")
		return plan, nil
	}

	for _, mapping := range def.Mappings() {
		sourcePath := filepath.Join(installPath, filepath.FromSlash(mapping.Source))

		sourceExists, err := fs.Exists(sourcePath)
		if err != nil {
			return nil, fmt.Errorf("failed to check source path %s: %w", sourcePath, err)
		}
		if !sourceExists {
			plan.AddSkip(sourcePath, "source does not exist")
			continue
		}

		for _, dest := range mapping.Destinations {
			rel := filepath.FromSlash(dest)
			add(sourcePath, filepath.Join(destDir, rel), rel)
		}
	}

	return plan, nil
}

// BuildUnlinkPlan generates a deterministic plan to unlink a package.
//
// Whole-directory mode removes destDir. File-mapping mode removes every
// destination, then, when orphans are deleted, adds one prune per destination
// bounded by destDir.
func BuildUnlinkPlan(def *linkdef.Definition, destDir string) *Plan {
	plan := NewPlan(def.Package().Name)

	if def.WholeDirectory() {
		plan.AddOperation(Operation{
			Type:     OpRemove,
			DestPath: destDir,
			RelPath:  ".",
		})
		return plan
	}

	var removed []Operation
	for _, mapping := range def.Mappings() {
		for _, dest := range mapping.Destinations {
			rel := filepath.FromSlash(dest)
			op := Operation{
				Type:     OpRemove,
				DestPath: filepath.Join(destDir, rel),
				RelPath:  rel,
			}
			plan.AddOperation(op)
			removed = append(removed, op)
		}
	}

	if !def.DeleteOrphans() {
		return plan
	}

	for _, op := range removed {
		plan.AddOperation(Operation{
			Type:     OpPrune,
			DestPath: filepath.Dir(op.DestPath),
			RelPath:  filepath.Dir(op.RelPath),
			StopAt:   destDir,
		})
	}

	return plan
}
