// Package planner handles the planning phase of link operations.
//
// The planner turns a link definition into a deterministic, ordered list of
// filesystem operations without touching the filesystem beyond reads. The
// engine executes the plan; a dry run just reports it.
//
// Key responsibilities:
//   - Generate link plans (whole-directory or per-file symlink/copy)
//   - Generate unlink plans (removals followed by orphan pruning)
//   - Skip mappings whose source does not exist
//   - Report what already occupies a destination before it is replaced
package planner
