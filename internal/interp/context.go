package interp

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

// DefaultMaxDepth is the call depth used when Limits.MaxDepth is zero. It
// keeps recursion between ADFs well inside the goroutine stack.
const DefaultMaxDepth = 10000

// Limits bounds one evaluation. Zero MaxNodes or MaxTime means unlimited.
// The call depth is always bounded: zero MaxDepth means DefaultMaxDepth.
type Limits struct {
	MaxNodes int64
	MaxTime  time.Duration
	MaxDepth int // call stack entries, including nodes of invoked trees
}

func (l Limits) withDefaults() Limits {
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	return l
}

// RandomSource abstracts the source of randomness.
type RandomSource interface {
	Intn(n int) int
	Float64() float64
}

// NewRand returns a seeded math/rand source.
func NewRand(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

// Stats describes the last evaluation run by a Context.
type Stats struct {
	NodesExecuted int64
	Elapsed       time.Duration
	MaxDepth      int
	Invocations   int64
}

// Context drives the evaluation of one Individual. It owns the call stack,
// the counters, the variable table and the ADF binding frames, so it must
// not be shared between goroutines; create one per worker and reuse it.
type Context struct {
	ind   *Individual
	root  int
	stack []StackEntry

	frames []frame
	active int // frame Argument nodes resolve against, -1 outside any invocation

	limits      Limits
	nodes       int64
	start       time.Time
	elapsed     time.Duration
	deepest     int
	invocations int64

	rng  RandomSource
	vars map[string]Value
	now  func() time.Time

	// Context for cancellation, checked at node boundaries
	Context context.Context
	done    <-chan struct{}

	logger   *slog.Logger
	validate bool
}

// NewContext creates a Context with the given budget. A nil rng is replaced
// by a source seeded with 1.
func NewContext(limits Limits, rng RandomSource) *Context {
	if rng == nil {
		rng = NewRand(1)
	}
	return &Context{
		stack:  make([]StackEntry, 0, 64),
		frames: make([]frame, 0, 8),
		active: -1,
		limits: limits.withDefaults(),
		rng:    rng,
		vars:   make(map[string]Value),
		now:    time.Now,
	}
}

// SetContext sets the context for cancellation. A cancelled context fails
// the evaluation with a ResourceError at the next node boundary.
func (c *Context) SetContext(ctx context.Context) {
	c.Context = ctx
	c.done = nil
	if ctx != nil {
		c.done = ctx.Done()
	}
}

// SetClock replaces time.Now for the time budget.
func (c *Context) SetClock(now func() time.Time) { c.now = now }

// SetLogger enables debug logging at evaluation boundaries.
func (c *Context) SetLogger(l *slog.Logger) { c.logger = l }

// SetValidate makes Run check the size invariant of every tree before
// evaluating. Off by default: trees from well-behaved operators are trusted.
func (c *Context) SetValidate(on bool) { c.validate = on }

func (c *Context) SetLimits(l Limits) { c.limits = l.withDefaults() }
func (c *Context) Limits() Limits     { return c.limits }

func (c *Context) SetRand(rng RandomSource) { c.rng = rng }
func (c *Context) Rand() RandomSource       { return c.rng }

// SetVar binds an external variable. Callers refresh the table before each Run.
func (c *Context) SetVar(name string, v Value) { c.vars[name] = v }

// SetVars replaces the whole variable table.
func (c *Context) SetVars(vars map[string]Value) {
	for k := range c.vars {
		delete(c.vars, k)
	}
	for k, v := range vars {
		c.vars[k] = v
	}
}

func (c *Context) Var(name string) (Value, bool) {
	v, ok := c.vars[name]
	return v, ok
}

func (c *Context) Individual() *Individual { return c.ind }

// Stack returns a copy of the call stack, outermost entry first.
func (c *Context) Stack() []StackEntry {
	out := make([]StackEntry, len(c.stack))
	copy(out, c.stack)
	return out
}

// Depth returns the current call stack depth.
func (c *Context) Depth() int { return len(c.stack) }

// Current returns the node being executed.
func (c *Context) Current() StackEntry {
	if len(c.stack) == 0 {
		return StackEntry{Tree: c.root, Node: -1}
	}
	return c.stack[len(c.stack)-1]
}

func (c *Context) Stats() Stats {
	return Stats{
		NodesExecuted: c.nodes,
		Elapsed:       c.elapsed,
		MaxDepth:      c.deepest,
		Invocations:   c.invocations,
	}
}

// Reset clears the counters, the call stack and the binding frames. Run
// calls it; it is exported for callers that pool contexts.
func (c *Context) Reset() {
	c.ind = nil
	c.root = 0
	c.stack = c.stack[:0]
	c.frames = c.frames[:0]
	c.active = -1
	c.nodes = 0
	c.elapsed = 0
	c.deepest = 0
	c.invocations = 0
}

// Run evaluates tree root of ind and returns its value. The error is a
// *ResourceError when a budget ran out; any other error is fatal.
func (c *Context) Run(ind *Individual, root int) (Value, error) {
	c.Reset()
	if ind == nil {
		return NilVal(), &StructuralError{Reason: "no individual to evaluate", Tree: root}
	}
	c.ind = ind
	c.root = root
	if root < 0 || root >= len(ind.Trees) {
		return NilVal(), &StructuralError{
			Reason:     "no such tree to evaluate",
			Individual: ind.ID,
			Tree:       root,
		}
	}
	if c.validate {
		if err := ind.Validate(); err != nil {
			return NilVal(), err
		}
	}
	c.start = c.now()

	val, err := c.eval(root, 0)

	c.elapsed = c.now().Sub(c.start)
	if err == nil && (len(c.stack) != 0 || len(c.frames) != 0) {
		err = c.structural(root, 0, "evaluation finished with %d stack entries and %d frames left",
			len(c.stack), len(c.frames))
	}
	if c.logger != nil {
		c.logger.Debug("evaluation finished",
			slog.String("individual", ind.ID),
			slog.Int("tree", root),
			slog.Int64("nodes", c.nodes),
			slog.Duration("elapsed", c.elapsed),
			slog.Int("max-depth", c.deepest),
			slog.Any("error", err))
	}
	if err != nil {
		return NilVal(), err
	}
	return val, nil
}

// Arg evaluates the n-th child of the node currently executing.
func (c *Context) Arg(n int) (Value, error) {
	cur := c.Current()
	if cur.Node < 0 {
		return NilVal(), c.structural(cur.Tree, 0, "argument %d requested outside any node", n)
	}
	t := &c.ind.Trees[cur.Tree]
	prim := t.Nodes[cur.Node].Prim
	if n < 0 || n >= prim.Arity() {
		return NilVal(), &ArgumentError{
			Primitive: prim.Name(),
			Index:     n,
			Arity:     prim.Arity(),
			Tree:      cur.Tree,
			Node:      cur.Node,
		}
	}
	return c.eval(cur.Tree, t.Child(cur.Node, n))
}

// eval visits one node: enter, push, execute, pop.
func (c *Context) eval(tree, node int) (Value, error) {
	if err := c.enter(); err != nil {
		return NilVal(), err
	}

	c.stack = append(c.stack, StackEntry{Tree: tree, Node: node})
	if len(c.stack) > c.deepest {
		c.deepest = len(c.stack)
	}

	val, err := c.ind.Trees[tree].Nodes[node].Prim.Execute(c)

	top := len(c.stack) - 1
	if top < 0 || c.stack[top].Tree != tree || c.stack[top].Node != node {
		return NilVal(), c.structural(tree, node, "call stack unwound out of order")
	}
	c.stack = c.stack[:top]
	return val, err
}

// enter charges one node against the budget.
func (c *Context) enter() error {
	if c.limits.MaxNodes > 0 && c.nodes >= c.limits.MaxNodes {
		return c.exceeded(LimitNodes, nil)
	}
	c.nodes++
	if c.limits.MaxTime > 0 {
		c.elapsed = c.now().Sub(c.start)
		if c.elapsed > c.limits.MaxTime {
			return c.exceeded(LimitTime, nil)
		}
	}
	if len(c.stack) >= c.limits.MaxDepth {
		return c.exceeded(LimitDepth, nil)
	}
	if c.done != nil {
		select {
		case <-c.done:
			return c.exceeded(LimitCancelled, c.Context.Err())
		default:
		}
	}
	return nil
}

func (c *Context) exceeded(limit Limit, cause error) *ResourceError {
	if c.limits.MaxTime == 0 {
		c.elapsed = c.now().Sub(c.start)
	}
	if c.logger != nil {
		c.logger.Debug("evaluation budget exhausted",
			slog.String("limit", string(limit)),
			slog.Int64("nodes", c.nodes),
			slog.Int("depth", len(c.stack)))
	}
	return &ResourceError{
		Limit:         limit,
		MaxNodes:      c.limits.MaxNodes,
		MaxTime:       c.limits.MaxTime,
		MaxDepth:      c.limits.MaxDepth,
		NodesExecuted: c.nodes,
		Elapsed:       c.elapsed,
		Cause:         cause,
	}
}

// structural builds a StructuralError carrying the current diagnostics.
func (c *Context) structural(tree, node int, format string, a ...interface{}) *StructuralError {
	err := newStructural(tree, node, format, a...)
	err.Stack = c.Stack()
	if c.ind != nil {
		err.Individual = c.ind.ID
		if tree >= 0 && tree < len(c.ind.Trees) {
			t := &c.ind.Trees[tree]
			if t.Validate() == nil {
				err.Snapshot = t.String()
			} else {
				err.Snapshot = t.Flat()
			}
		}
	}
	return err
}
