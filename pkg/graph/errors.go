package graph

import "fmt"

// The graph's error kinds are all non-retryable configuration defects: the
// caller must fix the graph or the environment and re-invoke. None is
// transient and none is swallowed internally.

// CycleError reports a directed cycle in the call graph. Publicly built
// arenas are acyclic by construction; this surfaces for graphs assembled
// from recursive import sources.
type CycleError struct {
	At NodeID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("call graph contains a directed cycle at node %d", e.At)
}

// UnknownCallableError reports a Call against an operation name the active
// registry cannot resolve. Raised at construction time, not evaluation time.
type UnknownCallableError struct {
	Name string
}

func (e *UnknownCallableError) Error() string {
	return fmt.Sprintf("unknown operation '%s'", e.Name)
}

// InvalidNodeError reports an argument handle that does not address a node
// in this graph's arena.
type InvalidNodeError struct {
	ID NodeID
}

func (e *InvalidNodeError) Error() string {
	return fmt.Sprintf("node handle %d does not exist in this graph", e.ID)
}

// SlotNotFoundError reports a Bind path that does not lead to an open slot.
type SlotNotFoundError struct {
	Path string
}

func (e *SlotNotFoundError) Error() string {
	return fmt.Sprintf("no open slot at path '%s'", e.Path)
}

// UnboundSlotError reports evaluation reaching a parameter that is neither
// bound in the graph nor present in the environment.
type UnboundSlotError struct {
	Name string
	Path string
}

func (e *UnboundSlotError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parameter '%s' is not bound", e.Name)
	}
	return fmt.Sprintf("parameter '%s' at %s is not bound", e.Name, e.Path)
}

// EvalError wraps a failure raised by an operation during evaluation,
// carrying the failing node and its path from the evaluation root for
// diagnosability.
type EvalError struct {
	Op   string
	Node NodeID
	Path string
	Err  error
}

func (e *EvalError) Error() string {
	at := e.Path
	if at == "" {
		at = "<root>"
	}
	return fmt.Sprintf("evaluating '%s' at %s (node %d): %v", e.Op, at, e.Node, e.Err)
}

// Unwrap returns the underlying operation failure.
func (e *EvalError) Unwrap() error {
	return e.Err
}
