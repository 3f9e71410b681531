package interp

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinels for errors.Is. Only ErrResourceExceeded is recoverable; the
// other two mean a tree or the interpreter itself is broken.
var (
	ErrResourceExceeded = errors.New("resource exceeded")
	ErrStructural       = errors.New("structural inconsistency")
	ErrArgumentIndex    = errors.New("argument index out of range")
)

// Limit names the budget that ran out.
type Limit string

const (
	LimitNodes     Limit = "nodes"
	LimitTime      Limit = "time"
	LimitDepth     Limit = "depth"
	LimitCancelled Limit = "cancelled"
)

// ResourceError reports an exhausted evaluation budget.
type ResourceError struct {
	Limit         Limit
	MaxNodes      int64
	MaxTime       time.Duration
	MaxDepth      int
	NodesExecuted int64
	Elapsed       time.Duration
	Cause         error // set for LimitCancelled
}

func (e *ResourceError) Error() string {
	switch e.Limit {
	case LimitNodes:
		return fmt.Sprintf("resource exceeded: node budget %d reached", e.MaxNodes)
	case LimitTime:
		return fmt.Sprintf("resource exceeded: time budget %s reached after %d nodes (elapsed %s)",
			e.MaxTime, e.NodesExecuted, e.Elapsed)
	case LimitDepth:
		return fmt.Sprintf("resource exceeded: call depth %d reached", e.MaxDepth)
	case LimitCancelled:
		return fmt.Sprintf("resource exceeded: evaluation cancelled after %d nodes: %v", e.NodesExecuted, e.Cause)
	default:
		return "resource exceeded"
	}
}

func (e *ResourceError) Is(target error) bool { return target == ErrResourceExceeded }

func (e *ResourceError) Unwrap() error { return e.Cause }

// StackEntry is one entry of the explicit call stack.
type StackEntry struct {
	Tree int
	Node int
}

// StructuralError reports a broken invariant: a malformed tree, a call
// stack that did not unwind in order, or an invoker with nowhere to go.
type StructuralError struct {
	Reason     string
	Individual string
	Tree       int
	Node       int
	Stack      []StackEntry
	Snapshot   string // prefix rendering of the offending tree, if known
}

func (e *StructuralError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "structural inconsistency: %s (tree %d, node %d)", e.Reason, e.Tree, e.Node)
	if e.Individual != "" {
		fmt.Fprintf(&b, " in individual %s", e.Individual)
	}
	if len(e.Stack) > 0 {
		b.WriteString("\n  call stack:")
		for i := len(e.Stack) - 1; i >= 0; i-- {
			fmt.Fprintf(&b, "\n    tree %d node %d", e.Stack[i].Tree, e.Stack[i].Node)
		}
	}
	if e.Snapshot != "" {
		fmt.Fprintf(&b, "\n  tree: %s", e.Snapshot)
	}
	return b.String()
}

func (e *StructuralError) Is(target error) bool { return target == ErrStructural }

// ArgumentError reports a request for an argument the primitive or the
// current binding frame does not have.
type ArgumentError struct {
	Primitive string
	Index     int
	Arity     int
	Tree      int
	Node      int
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument index out of range: %s requested argument %d of %d (tree %d, node %d)",
		e.Primitive, e.Index, e.Arity, e.Tree, e.Node)
}

func (e *ArgumentError) Is(target error) bool { return target == ErrArgumentIndex }

// IsFatal reports whether err must abort the run rather than be turned
// into a fitness decision.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrResourceExceeded)
}

func newStructural(tree, node int, format string, a ...interface{}) *StructuralError {
	return &StructuralError{
		Reason: fmt.Sprintf(format, a...),
		Tree:   tree,
		Node:   node,
	}
}
