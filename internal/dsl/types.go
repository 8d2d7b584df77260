// Package dsl holds the authored (pre-compilation) form of a workflow: the
// types a YAML document decodes into, and the placeholder-resolution rule
// shared by every node that reads "${name}" out of its parameters.
package dsl

// NodeType discriminates the tagged variant a Node carries.
type NodeType string

const (
	NodeStart     NodeType = "Start"
	NodeEnd       NodeType = "End"
	NodeFunction  NodeType = "Function"
	NodeAssign    NodeType = "Assign"
	NodeIf        NodeType = "If"
	NodeParallel  NodeType = "Parallel"
	NodeIteration NodeType = "Iteration"
	NodeLoop      NodeType = "Loop"

	// NodeFork and NodeJoin exist solely as compiler (Pass A) output; an
	// authored document never declares one directly.
	NodeFork NodeType = "Fork"
	NodeJoin NodeType = "Join"
)

// Assignment is one {key, value} pair inside an Assign node's assignments
// list.
type Assignment struct {
	Key   string      `yaml:"key"`
	Value interface{} `yaml:"value"`
}

// IfBranchDef is one of an If node's own declared branch conditions,
// referenced by an edge's branch_index.
type IfBranchDef struct {
	Condition string `yaml:"condition"`
}

// Node is one vertex of an authored workflow. Only the fields relevant to
// its Type are populated; see spec.md §3.
type Node struct {
	ID   string
	Type NodeType

	// End
	OutputVar string

	// Function
	FuncName string
	Params   map[string]interface{}
	Output   string

	// Assign
	Assignments []Assignment
	Expression  string
	Value       interface{}

	// If
	IfBranches []IfBranchDef

	// Parallel — each inner slice is one branch's ordered node list.
	ParallelBranches [][]Node

	// Iteration
	CollectionVar string
	ItemVar       string

	// Loop
	Condition string

	// Fork (compiler-synthesized)
	BranchStartIDs []string
	JoinID         string

	// Join (compiler-synthesized)
	ExpectCount int
}

// Edge connects two nodes by ID, optionally guarded by a condition or
// branch classification.
type Edge struct {
	Source      string `yaml:"source"`
	Target      string `yaml:"target"`
	Condition   string `yaml:"condition,omitempty"`
	BranchType  string `yaml:"branch_type,omitempty"`
	BranchIndex *int   `yaml:"branch_index,omitempty"`
}

// Workflow is the authored form: identity, initial variables, and the node/
// edge lists the compiler consumes.
type Workflow struct {
	ID        string                 `yaml:"id"`
	Name      string                 `yaml:"name"`
	Variables map[string]interface{} `yaml:"variables"`
	Nodes     []Node                 `yaml:"nodes"`
	Edges     []Edge                 `yaml:"edges"`
}
