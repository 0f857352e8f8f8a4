package executor

import (
	"fmt"
	"strings"
)

// PackageError wraps any failure that happened while processing one package.
type PackageError struct {
	Package   string
	Operation Operation
	Err       error
}

func (e *PackageError) Error() string {
	return fmt.Sprintf("failed to %s package %s: %v", e.Operation, e.Package, e.Err)
}

func (e *PackageError) Unwrap() error {
	return e.Err
}

// BatchError collects the per-package failures of a batch, in input order.
type BatchError struct {
	Errors []*PackageError
}

func (e *BatchError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d packages failed: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes every package failure to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}
