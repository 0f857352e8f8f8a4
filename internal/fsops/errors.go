package fsops

import "fmt"

// Error describes a failed filesystem operation on a destination path.
type Error struct {
	// Op is the operation that failed (create_symlink, copy, remove, prune)
	Op string

	// Path is the path the operation was acting on
	Path string

	// Err is the underlying error
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
