package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/pkglink/internal/engine"
	"github.com/danieljhkim/pkglink/internal/executor"
	"github.com/danieljhkim/pkglink/internal/planner"
	"github.com/danieljhkim/pkglink/internal/repository"
)

// batchFlags are shared by link and unlink.
type batchFlags struct {
	strict bool
	dryRun bool
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Stop a package at its first filesystem error")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show what would be done without touching the filesystem")
}

func newLinkCmd(a *app) *cobra.Command {
	flags := &batchFlags{}
	cmd := &cobra.Command{
		Use:   "link [package...]",
		Short: "Link configured files of installed packages",
		Long: `Link the configured files of installed packages into the project.

Without arguments every installed package that has a mapping is linked.
Arguments may be exact package names, globs ("acme/*") or unique
case-insensitive names; a named package without a mapping is an error.
Existing links are cleared first, so linking twice is harmless.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd.Context(), executor.OpLink, args, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func newUnlinkCmd(a *app) *cobra.Command {
	flags := &batchFlags{}
	cmd := &cobra.Command{
		Use:   "unlink [package...]",
		Short: "Remove the files linked for packages",
		Long: `Remove the links and copies created for packages.

Without arguments every configured package is unlinked, including packages
that are no longer installed. Arguments are resolved like for link.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd.Context(), executor.OpUnlink, args, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

// runBatch links or unlinks the packages selected by names.
func (a *app) runBatch(ctx context.Context, op executor.Operation, names []string, flags *batchFlags) error {
	env, err := loadEnvironment(&a.opts)
	if err != nil {
		return a.fail(err)
	}

	candidates := env.repo
	if op == executor.OpUnlink {
		candidates = env.unlinkCandidates()
	}

	x := env.executor(executor.Options{Strict: flags.strict, DryRun: flags.dryRun})

	var batch *executor.BatchResult
	if len(names) == 0 {
		batch, err = x.ExecuteAll(ctx, op, candidates.Packages())
	} else {
		pkgs, resolveErr := repository.ResolveNames(candidates, names)
		if resolveErr != nil {
			return a.fail(resolveErr)
		}
		batch, err = x.ExecuteNamed(ctx, op, pkgs)
	}

	a.reportBatch(op, batch)

	var batchErr *executor.BatchError
	switch {
	case errors.As(err, &batchErr):
		for _, pkgErr := range batchErr.Errors {
			a.printer.Error(pkgErr)
		}
	case err != nil:
		a.printer.Error(err)
	}

	a.printer.Summary(err != nil)
	if err != nil {
		return errReported
	}
	return nil
}

// fail prints err and the failure summary.
func (a *app) fail(err error) error {
	a.printer.Error(err)
	a.printer.Summary(true)
	return errReported
}

func (a *app) reportBatch(op executor.Operation, batch *executor.BatchResult) {
	if batch == nil {
		return
	}
	if len(batch.Results) == 0 {
		a.printer.EmptyState(fmt.Sprintf("Nothing to %s", op))
		return
	}

	for _, result := range batch.Results {
		res := engineResult(op, result)

		if res.DryRun {
			a.printer.Info(fmt.Sprintf("Would %s %s:", op, result.Package.Name))
			var ops []planner.Operation
			if op == executor.OpLink {
				ops = append(ops, result.Unlink.Plan.Operations...)
			}
			ops = append(ops, res.Plan.Operations...)
			a.printer.List(describeOperations(ops), 1)
			continue
		}

		verb := "Linked"
		if op == executor.OpUnlink {
			verb = "Unlinked"
		}
		a.printer.Success(fmt.Sprintf("%s %s (%s)", verb, result.Package.Name,
			countNoun(len(res.Applied), "operation", "operations")))
		for _, skipped := range res.Plan.Skipped {
			a.printer.EmptyState(fmt.Sprintf("skipped %s: %s", skipped.SourcePath, skipped.Reason))
		}
		for _, failed := range result.Failed() {
			a.printer.Warning(failed.Error())
		}
	}
}

// describeOperations renders plan operations the way dry runs show them.
func describeOperations(ops []planner.Operation) []string {
	lines := make([]string, 0, len(ops))
	for _, op := range ops {
		switch op.Type {
		case planner.OpCreateSymlink:
			lines = append(lines, fmt.Sprintf("symlink: %s -> %s", op.DestPath, op.SourcePath))
		case planner.OpCopy:
			lines = append(lines, fmt.Sprintf("copy: %s -> %s", op.SourcePath, op.DestPath))
		case planner.OpRemove:
			lines = append(lines, fmt.Sprintf("remove: %s", op.DestPath))
		case planner.OpPrune:
			lines = append(lines, fmt.Sprintf("prune: %s (up to %s)", op.DestPath, op.StopAt))
		default:
			lines = append(lines, fmt.Sprintf("%s: %s", op.Type, op.DestPath))
		}
	}
	return lines
}

// engineResult is the engine outcome shown for op.
func engineResult(op executor.Operation, result *executor.PackageResult) *engine.Result {
	if op == executor.OpUnlink {
		return result.Unlink
	}
	return result.Link
}
