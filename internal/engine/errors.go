package engine

import "errors"

var (
	// ErrDestinationIsDirectory indicates a real directory occupies a symlink destination.
	ErrDestinationIsDirectory = errors.New("destination exists and is a directory")

	// ErrUnsafeDestination indicates a destination that would cover the project
	// root, a protected directory or the package's own install path.
	ErrUnsafeDestination = errors.New("unsafe destination")

	// ErrUnknownOperation indicates a plan holds an operation the engine cannot execute.
	ErrUnknownOperation = errors.New("unknown operation type")
)
