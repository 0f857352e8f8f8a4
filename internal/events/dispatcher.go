package events

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/pkglink/internal/executor"
	"github.com/danieljhkim/pkglink/internal/repository"
)

// Configured reports whether a package has link configuration.
type Configured interface {
	Has(name string) bool
}

// PackageExecutor applies an operation to a single package.
type PackageExecutor interface {
	ExecutePackage(ctx context.Context, op executor.Operation, pkg repository.Package) (*executor.PackageResult, error)
}

// Dispatcher turns lifecycle events into link and unlink runs.
type Dispatcher struct {
	config Configured
	exec   PackageExecutor
	logger zerolog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(config Configured, exec PackageExecutor, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{config: config, exec: exec, logger: logger}
}

// OperationFor maps a lifecycle operation to the executor operation:
// install and update link, uninstall unlinks.
func OperationFor(op Operation) (executor.Operation, error) {
	switch op {
	case OpInstall, OpUpdate:
		return executor.OpLink, nil
	case OpUninstall:
		return executor.OpUnlink, nil
	default:
		return "", fmt.Errorf("unknown lifecycle operation %q", op)
	}
}

// Handle applies ev. Packages without configuration are ignored.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) error {
	if !d.config.Has(ev.Package.Name) {
		d.logger.Debug().Str("package", ev.Package.Name).Msg("No link configuration, ignoring event")
		return nil
	}

	op, err := OperationFor(ev.Operation)
	if err != nil {
		return err
	}

	result, err := d.exec.ExecutePackage(ctx, op, ev.Package)
	if err != nil {
		return err
	}

	d.logger.Info().
		Str("package", ev.Package.Name).
		Str("operation", string(ev.Operation)).
		Int("skipped_errors", len(result.Failed())).
		Msg("Event applied")
	return nil
}
