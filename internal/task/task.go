// Package task defines the unit of scheduling: a token naming an instance,
// a position in its blueprint, and the flow it belongs to (spec.md §3).
package task

// Task (a "token") is a live unit of execution: the instance it belongs to,
// which blueprint to run it against, its own token identity, the flow it
// was born into (shared by fork siblings), and the node index to execute
// next. A worker consumes a Task exactly once and may emit zero or more
// follow-up Tasks.
type Task struct {
	InstanceID string `json:"instance_id"`
	WorkflowID string `json:"workflow_id"`
	TokenID    string `json:"token_id"`
	FlowID     string `json:"flow_id"`
	NodeIndex  int    `json:"node_index"`
}
