package planner

// Plan represents the operations needed to link or unlink one package.
type Plan struct {
	// Package is the name of the package the plan was built for
	Package string

	// Operations is the ordered list of operations to execute
	Operations []Operation

	// Skipped lists mappings that produced no operation
	Skipped []Skip

	// Conflicts lists destinations already occupied by something the plan replaces
	Conflicts []Conflict
}

// Operation represents a single filesystem operation to execute.
type Operation struct {
	// Type is the operation type: "create_symlink", "copy", "remove", "prune"
	Type string `json:"type" yaml:"type"`

	// SourcePath is the absolute path inside the install directory (link only)
	SourcePath string `json:"source,omitempty" yaml:"source,omitempty"`

	// DestPath is the absolute destination path
	DestPath string `json:"dest" yaml:"dest"`

	// RelPath is DestPath relative to the destination directory
	RelPath string `json:"rel" yaml:"rel"`

	// StopAt bounds a prune: ancestors above it are never touched
	StopAt string `json:"stopAt,omitempty" yaml:"stopAt,omitempty"`
}

// Skip records a mapping that was left out of a plan.
type Skip struct {
	SourcePath string `json:"source" yaml:"source"`
	Reason     string `json:"reason" yaml:"reason"`
}

// Conflict describes an existing destination entry that the plan replaces.
type Conflict struct {
	// Path is the destination path where the conflict was detected
	Path string `json:"path" yaml:"path"`

	// Reason is a human-readable explanation of the conflict
	Reason string `json:"reason" yaml:"reason"`

	// Existing describes what currently exists at the path
	Existing string `json:"existing" yaml:"existing"`

	// Incoming describes what the plan wants to create
	Incoming string `json:"incoming" yaml:"incoming"`
}

// Operation type constants
const (
	OpCreateSymlink = "create_symlink"
	OpCopy          = "copy"
	OpRemove        = "remove"
	OpPrune         = "prune"
)

// NewPlan creates a new empty Plan.
func NewPlan(pkg string) *Plan {
	return &Plan{
		Package:    pkg,
		Operations: []Operation{},
		Skipped:    []Skip{},
		Conflicts:  []Conflict{},
	}
}

// HasConflicts returns true if the plan has any conflicts.
func (p *Plan) HasConflicts() bool {
	return len(p.Conflicts) > 0
}

// AddOperation adds an operation to the plan.
func (p *Plan) AddOperation(op Operation) {
	p.Operations = append(p.Operations, op)
}

// AddSkip records a skipped mapping.
func (p *Plan) AddSkip(source, reason string) {
	p.Skipped = append(p.Skipped, Skip{SourcePath: source, Reason: reason})
}

// AddConflict adds a conflict to the plan.
func (p *Plan) AddConflict(conflict Conflict) {
	p.Conflicts = append(p.Conflicts, conflict)
}
