package interp

import (
	"fmt"
	"strings"
)

// ArgPolicy decides when the children of an invoker are evaluated.
type ArgPolicy int

const (
	// PreCompute evaluates every argument, in order, before the target runs.
	PreCompute ArgPolicy = iota
	// Caching evaluates an argument on its first reference and reuses it.
	Caching
	// JustInTime re-evaluates an argument on every reference.
	JustInTime
)

func (p ArgPolicy) String() string {
	switch p {
	case PreCompute:
		return "precompute"
	case Caching:
		return "caching"
	case JustInTime:
		return "jit"
	default:
		return fmt.Sprintf("ArgPolicy(%d)", int(p))
	}
}

// ParsePolicy accepts the names produced by ArgPolicy.String plus a few
// spellings used in configuration files.
func ParsePolicy(s string) (ArgPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "precompute", "pre-compute", "eager":
		return PreCompute, nil
	case "caching", "cache", "lazy":
		return Caching, nil
	case "jit", "just-in-time", "justintime":
		return JustInTime, nil
	default:
		return 0, fmt.Errorf("unknown argument policy %q", s)
	}
}

// frame is the binding frame of one invocation. Frames live in the Context;
// Argument primitives only hold a position.
type frame struct {
	caller    StackEntry // the invoking node, whose children are the arguments
	target    int
	policy    ArgPolicy
	arity     int
	parent    int // frame active at the call site, -1 if none
	values    []Value
	evaluated []bool
}

// pushFrame appends a frame, reusing the storage of earlier invocations.
func (c *Context) pushFrame(caller StackEntry, target int, policy ArgPolicy, arity int) int {
	idx := len(c.frames)
	if idx < cap(c.frames) {
		c.frames = c.frames[:idx+1]
	} else {
		c.frames = append(c.frames, frame{})
	}
	f := &c.frames[idx]
	f.caller = caller
	f.target = target
	f.policy = policy
	f.arity = arity
	f.parent = c.active
	if cap(f.values) < arity {
		f.values = make([]Value, arity)
		f.evaluated = make([]bool, arity)
	} else {
		f.values = f.values[:arity]
		f.evaluated = f.evaluated[:arity]
		for i := range f.evaluated {
			f.values[i] = NilVal()
			f.evaluated[i] = false
		}
	}
	return idx
}

func (c *Context) popFrame(idx int) error {
	if len(c.frames)-1 != idx {
		f := c.frames[idx]
		return c.structural(f.caller.Tree, f.caller.Node,
			"binding frame %d popped while %d frames are live", idx, len(c.frames))
	}
	c.frames = c.frames[:idx]
	return nil
}

// frameArg evaluates argument k of frame idx in the scope of the caller:
// Argument nodes inside the expression see the caller's own frame.
func (c *Context) frameArg(idx, k int) (Value, error) {
	f := c.frames[idx]
	t := &c.ind.Trees[f.caller.Tree]
	child := t.Child(f.caller.Node, k)

	saved := c.active
	c.active = f.parent
	val, err := c.eval(f.caller.Tree, child)
	c.active = saved
	return val, err
}

// CandidateGenerator lists the trees an invoker of the given arity may call
// from tree caller.
type CandidateGenerator interface {
	Candidates(ind *Individual, caller, arity int) []int
}

// CandidateFunc adapts a function to CandidateGenerator.
type CandidateFunc func(ind *Individual, caller, arity int) []int

func (f CandidateFunc) Candidates(ind *Individual, caller, arity int) []int {
	return f(ind, caller, arity)
}

// RecursionPolicy restricts which trees may be invoked from a given tree.
type RecursionPolicy int

const (
	// RecurseForward allows calls only to trees after the caller, which rules
	// out recursion entirely.
	RecurseForward RecursionPolicy = iota
	// RecurseNoSelf allows any tree except the caller. Mutual recursion is
	// possible and bounded only by the evaluation budget.
	RecurseNoSelf
	// RecurseAny allows every tree, including the caller.
	RecurseAny
)

func (r RecursionPolicy) String() string {
	switch r {
	case RecurseForward:
		return "forward"
	case RecurseNoSelf:
		return "no-self"
	case RecurseAny:
		return "any"
	default:
		return fmt.Sprintf("RecursionPolicy(%d)", int(r))
	}
}

func ParseRecursion(s string) (RecursionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "":
		return RecurseForward, nil
	case "no-self", "noself":
		return RecurseNoSelf, nil
	case "any", "unrestricted":
		return RecurseAny, nil
	default:
		return 0, fmt.Errorf("unknown recursion policy %q", s)
	}
}

// ArityCandidates offers every tree whose parameter count matches the
// invoker's arity and which the recursion policy allows.
type ArityCandidates struct {
	Recursion RecursionPolicy
}

func (a ArityCandidates) Candidates(ind *Individual, caller, arity int) []int {
	var out []int
	for i := range ind.Trees {
		if ind.Trees[i].Params != arity {
			continue
		}
		switch a.Recursion {
		case RecurseForward:
			if i <= caller {
				continue
			}
		case RecurseNoSelf:
			if i == caller {
				continue
			}
		}
		out = append(out, i)
	}
	return out
}

// Invoker transfers execution into another tree of the same Individual,
// exposing its own children to the Argument nodes of that tree.
type Invoker struct {
	PrimName string
	N        int
	// Target is the tree called when Generator is nil.
	Target int
	// Generator, when set, makes the invoker pick its target per call.
	Generator CandidateGenerator
	Policy    ArgPolicy
}

// NewInvoker returns an invoker committed to a fixed target tree.
func NewInvoker(name string, arity, target int, policy ArgPolicy) *Invoker {
	return &Invoker{PrimName: name, N: arity, Target: target, Policy: policy}
}

// NewDynamicInvoker returns an invoker that draws its target from gen on
// every call.
func NewDynamicInvoker(name string, arity int, gen CandidateGenerator, policy ArgPolicy) *Invoker {
	return &Invoker{PrimName: name, N: arity, Generator: gen, Policy: policy}
}

func (inv *Invoker) Name() string        { return inv.PrimName }
func (inv *Invoker) Arity() int          { return inv.N }
func (inv *Invoker) ReturnType() TypeTag { return TypeAny }

func (inv *Invoker) ArgTypes() []TypeTag {
	types := make([]TypeTag, inv.N)
	for i := range types {
		types[i] = TypeAny
	}
	return types
}

// Commit resolves a dynamic invoker once, for tree caller of ind, and
// returns a fixed invoker. Tree-building operators use it to pick a
// construction-time target from the legal candidates.
func (inv *Invoker) Commit(ind *Individual, caller int, rng RandomSource) (*Invoker, error) {
	if inv.Generator == nil {
		return inv, nil
	}
	cands := inv.Generator.Candidates(ind, caller, inv.N)
	if len(cands) == 0 {
		return nil, &StructuralError{
			Reason:     fmt.Sprintf("invoker %s has no legal target of arity %d", inv.PrimName, inv.N),
			Individual: ind.ID,
			Tree:       caller,
		}
	}
	return NewInvoker(inv.PrimName, inv.N, cands[rng.Intn(len(cands))], inv.Policy), nil
}

func (inv *Invoker) resolve(c *Context, caller StackEntry) (int, error) {
	target := inv.Target
	if inv.Generator != nil {
		cands := inv.Generator.Candidates(c.ind, caller.Tree, inv.N)
		if len(cands) == 0 {
			return 0, c.structural(caller.Tree, caller.Node,
				"invoker %s has no legal target of arity %d", inv.PrimName, inv.N)
		}
		target = cands[c.rng.Intn(len(cands))]
	}
	// candidates are checked like fixed targets
	if target < 0 || target >= len(c.ind.Trees) {
		return 0, c.structural(caller.Tree, caller.Node,
			"invoker %s targets missing tree %d", inv.PrimName, target)
	}
	if p := c.ind.Trees[target].Params; p != inv.N {
		return 0, c.structural(caller.Tree, caller.Node,
			"invoker %s passes %d arguments to tree %d which takes %d", inv.PrimName, inv.N, target, p)
	}
	return target, nil
}

func (inv *Invoker) Execute(c *Context) (Value, error) {
	caller := c.Current()
	target, err := inv.resolve(c, caller)
	if err != nil {
		return NilVal(), err
	}

	var pre []Value
	if inv.Policy == PreCompute && inv.N > 0 {
		pre = make([]Value, inv.N)
		for k := 0; k < inv.N; k++ {
			if pre[k], err = c.Arg(k); err != nil {
				return NilVal(), err
			}
		}
	}

	idx := c.pushFrame(caller, target, inv.Policy, inv.N)
	if pre != nil {
		f := &c.frames[idx]
		copy(f.values, pre)
		for k := range f.evaluated {
			f.evaluated[k] = true
		}
	}
	c.invocations++

	saved := c.active
	c.active = idx
	val, err := c.eval(target, 0)
	c.active = saved

	if perr := c.popFrame(idx); perr != nil {
		return NilVal(), perr
	}
	return val, err
}

// Argument returns the k-th argument of the innermost invocation.
type Argument struct {
	Index int
	Label string // defaults to "argK"
}

func NewArgument(k int) *Argument { return &Argument{Index: k} }

func (a *Argument) Name() string {
	if a.Label != "" {
		return a.Label
	}
	return fmt.Sprintf("arg%d", a.Index)
}

func (a *Argument) Arity() int          { return 0 }
func (a *Argument) ReturnType() TypeTag { return TypeAny }
func (a *Argument) ArgTypes() []TypeTag { return nil }

func (a *Argument) Execute(c *Context) (Value, error) {
	cur := c.Current()
	if c.active < 0 {
		return NilVal(), c.structural(cur.Tree, cur.Node,
			"%s evaluated outside any invocation", a.Name())
	}
	idx := c.active
	f := &c.frames[idx]
	if a.Index < 0 || a.Index >= f.arity {
		return NilVal(), &ArgumentError{
			Primitive: a.Name(),
			Index:     a.Index,
			Arity:     f.arity,
			Tree:      cur.Tree,
			Node:      cur.Node,
		}
	}

	switch f.policy {
	case PreCompute:
		return f.values[a.Index], nil
	case Caching:
		if f.evaluated[a.Index] {
			return f.values[a.Index], nil
		}
		val, err := c.frameArg(idx, a.Index)
		if err != nil {
			return NilVal(), err
		}
		// frameArg may have grown c.frames; index again
		c.frames[idx].values[a.Index] = val
		c.frames[idx].evaluated[a.Index] = true
		return val, nil
	default:
		return c.frameArg(idx, a.Index)
	}
}
