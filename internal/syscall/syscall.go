// Package syscall implements the buffered request object handed to every
// node execution, through which a node asks the scheduler to jump, fork,
// wait, or terminate. Requests are buffered during the call and drained by
// the engine once the node returns (spec.md §4.4).
package syscall

// Request is one buffered follow-up request recorded during a node's
// execution.
type Request struct {
	// Kind is "jump", "fork", "wait", or "terminate".
	Kind string
	// Target is the node index for a jump request.
	Target int
	// Targets holds the node indices for a fork request.
	Targets []int
}

const (
	KindJump      = "jump"
	KindFork      = "fork"
	KindWait      = "wait"
	KindTerminate = "terminate"
)

// Syscall buffers the requests one node execution issues. It is not safe
// for concurrent use — a single token execution owns one Syscall at a time.
type Syscall struct {
	requests []Request
}

// New returns an empty Syscall ready for one node execution.
func New() *Syscall {
	return &Syscall{}
}

// Jump requests a follow-up task at targetIndex, inheriting the current
// instance, token, and flow IDs.
func (s *Syscall) Jump(targetIndex int) {
	s.requests = append(s.requests, Request{Kind: KindJump, Target: targetIndex})
}

// Fork requests one follow-up task per target, each with a fresh token ID
// but the same flow ID and instance.
func (s *Syscall) Fork(targets []int) {
	s.requests = append(s.requests, Request{Kind: KindFork, Targets: targets})
}

// Wait records that this token's execution ends here with no follow-up —
// some other sibling token arriving at the same Join will proceed instead.
func (s *Syscall) Wait() {
	s.requests = append(s.requests, Request{Kind: KindWait})
}

// Terminate records that this token's execution has reached a terminal
// point (an End node) with no follow-up task.
func (s *Syscall) Terminate() {
	s.requests = append(s.requests, Request{Kind: KindTerminate})
}

// Requests returns every request buffered during the call, in issue order.
func (s *Syscall) Requests() []Request {
	return s.requests
}

// Discard returns a fresh Syscall whose buffered requests are never read by
// anyone — used by the Fused node to run a sub-operation's Execute without
// letting it request its own jump between chain members (spec.md §4.2's
// "no syscall between them").
func Discard() *Syscall {
	return New()
}
