package primitives

import (
	"strconv"
	"sync/atomic"

	"github.com/funvibe/treegp/internal/interp"
)

// NewConst returns a terminal for a fixed value.
func NewConst(v interp.Value) *interp.Const {
	return &interp.Const{Val: v}
}

// NewVar returns a terminal reading an externally bound variable.
func NewVar(name string, t interp.TypeTag) *interp.Var {
	return &interp.Var{VarName: name, Type: t}
}

// NewERC draws an ephemeral random constant in [lo, hi). The value is fixed
// when the node is created and never changes afterwards.
func NewERC(rng interp.RandomSource, lo, hi float64) *interp.Const {
	v := lo + rng.Float64()*(hi-lo)
	return &interp.Const{Val: interp.FloatVal(v), Label: strconv.FormatFloat(v, 'g', 6, 64)}
}

// Rand draws a fresh float in [0, 1) from the evaluation's random source on
// every execution.
func Rand() *interp.Builtin {
	return &interp.Builtin{
		PrimName: RandName,
		N:        0,
		Returns:  interp.TypeFloat,
		Fn: func(c *interp.Context) (interp.Value, error) {
			return interp.FloatVal(c.Rand().Float64()), nil
		},
	}
}

// Counter is a terminal with an external side effect: each execution
// increments a counter owned by the caller and returns the new count. The
// counter stands in for any world state a program can act on; it belongs to
// the caller, not to the interpreter.
func Counter(name string, n *atomic.Int64) *interp.Builtin {
	return &interp.Builtin{
		PrimName: name,
		N:        0,
		Returns:  interp.TypeInt,
		Fn: func(c *interp.Context) (interp.Value, error) {
			return interp.IntVal(n.Add(1)), nil
		},
	}
}

// ParseConst turns a literal into a constant terminal: integers, floats,
// true and false. ok is false for anything else.
func ParseConst(lit string) (*interp.Const, bool) {
	switch lit {
	case "true":
		return NewConst(interp.BoolVal(true)), true
	case "false":
		return NewConst(interp.BoolVal(false)), true
	}
	if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return NewConst(interp.IntVal(i)), true
	}
	if f, err := strconv.ParseFloat(lit, 64); err == nil {
		return &interp.Const{Val: interp.FloatVal(f), Label: lit}, true
	}
	return nil, false
}
