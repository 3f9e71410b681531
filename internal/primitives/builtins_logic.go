package primitives

import (
	"github.com/funvibe/treegp/internal/interp"
)

func compare(name string, cmp func(a, b interp.Value) bool) *interp.Builtin {
	return &interp.Builtin{
		PrimName: name,
		N:        2,
		Returns:  interp.TypeBool,
		Params:   number2,
		Fn: func(c *interp.Context) (interp.Value, error) {
			a, err := c.Arg(0)
			if err != nil {
				return interp.NilVal(), err
			}
			b, err := c.Arg(1)
			if err != nil {
				return interp.NilVal(), err
			}
			return interp.BoolVal(cmp(a, b)), nil
		},
	}
}

func Lt() *interp.Builtin {
	return compare(LtName, func(a, b interp.Value) bool {
		if a.IsInt() && b.IsInt() {
			return a.AsInt() < b.AsInt()
		}
		return a.AsFloat() < b.AsFloat()
	})
}

func Gt() *interp.Builtin {
	return compare(GtName, func(a, b interp.Value) bool {
		if a.IsInt() && b.IsInt() {
			return a.AsInt() > b.AsInt()
		}
		return a.AsFloat() > b.AsFloat()
	})
}

func Eq() *interp.Builtin {
	b := compare(EqName, interp.Value.Equals)
	b.Params = []interp.TypeTag{interp.TypeAny, interp.TypeAny}
	return b
}

var bool2 = []interp.TypeTag{interp.TypeBool, interp.TypeBool}

// And evaluates its second argument only when the first is truthy.
func And() *interp.Builtin {
	return &interp.Builtin{
		PrimName: AndName,
		N:        2,
		Returns:  interp.TypeBool,
		Params:   bool2,
		Fn: func(c *interp.Context) (interp.Value, error) {
			a, err := c.Arg(0)
			if err != nil || !a.Truthy() {
				return interp.BoolVal(false), err
			}
			b, err := c.Arg(1)
			if err != nil {
				return interp.NilVal(), err
			}
			return interp.BoolVal(b.Truthy()), nil
		},
	}
}

// Or evaluates its second argument only when the first is falsy.
func Or() *interp.Builtin {
	return &interp.Builtin{
		PrimName: OrName,
		N:        2,
		Returns:  interp.TypeBool,
		Params:   bool2,
		Fn: func(c *interp.Context) (interp.Value, error) {
			a, err := c.Arg(0)
			if err != nil {
				return interp.NilVal(), err
			}
			if a.Truthy() {
				return interp.BoolVal(true), nil
			}
			b, err := c.Arg(1)
			if err != nil {
				return interp.NilVal(), err
			}
			return interp.BoolVal(b.Truthy()), nil
		},
	}
}

func Not() *interp.Builtin {
	return &interp.Builtin{
		PrimName: NotName,
		N:        1,
		Returns:  interp.TypeBool,
		Params:   []interp.TypeTag{interp.TypeBool},
		Fn: func(c *interp.Context) (interp.Value, error) {
			a, err := c.Arg(0)
			if err != nil {
				return interp.NilVal(), err
			}
			return interp.BoolVal(!a.Truthy()), nil
		},
	}
}

// If evaluates the condition and then exactly one branch.
func If() *interp.Builtin {
	return &interp.Builtin{
		PrimName: IfName,
		N:        3,
		Returns:  interp.TypeAny,
		Params:   []interp.TypeTag{interp.TypeBool, interp.TypeAny, interp.TypeAny},
		Fn: func(c *interp.Context) (interp.Value, error) {
			cond, err := c.Arg(0)
			if err != nil {
				return interp.NilVal(), err
			}
			if cond.Truthy() {
				return c.Arg(1)
			}
			return c.Arg(2)
		},
	}
}
