package primitives

import (
	"math"

	"github.com/funvibe/treegp/internal/interp"
)

// Arithmetic primitives keep integers exact while both operands are Int and
// fall back to Float otherwise. Division and logarithm are protected so
// that every tree evaluates to a number.

var number2 = []interp.TypeTag{interp.TypeNumber, interp.TypeNumber}

func binaryNumeric(name string, ints func(a, b int64) int64, floats func(a, b float64) float64) *interp.Builtin {
	return &interp.Builtin{
		PrimName: name,
		N:        2,
		Returns:  interp.TypeNumber,
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
			if a.IsInt() && b.IsInt() {
				return interp.IntVal(ints(a.AsInt(), b.AsInt())), nil
			}
			return interp.FloatVal(floats(a.AsFloat(), b.AsFloat())), nil
		},
	}
}

func unaryFloat(name string, fn func(x float64) float64) *interp.Builtin {
	return &interp.Builtin{
		PrimName: name,
		N:        1,
		Returns:  interp.TypeFloat,
		Params:   []interp.TypeTag{interp.TypeNumber},
		Fn: func(c *interp.Context) (interp.Value, error) {
			x, err := c.Arg(0)
			if err != nil {
				return interp.NilVal(), err
			}
			return interp.FloatVal(fn(x.AsFloat())), nil
		},
	}
}

func Add() *interp.Builtin {
	return binaryNumeric(AddName,
		func(a, b int64) int64 { return a + b },
		func(a, b float64) float64 { return a + b })
}

func Sub() *interp.Builtin {
	return binaryNumeric(SubName,
		func(a, b int64) int64 { return a - b },
		func(a, b float64) float64 { return a - b })
}

func Mul() *interp.Builtin {
	return binaryNumeric(MulName,
		func(a, b int64) int64 { return a * b },
		func(a, b float64) float64 { return a * b })
}

func Min() *interp.Builtin {
	return binaryNumeric(MinName,
		func(a, b int64) int64 {
			if a < b {
				return a
			}
			return b
		},
		math.Min)
}

func Max() *interp.Builtin {
	return binaryNumeric(MaxName,
		func(a, b int64) int64 {
			if a > b {
				return a
			}
			return b
		},
		math.Max)
}

// Div is protected division: a zero divisor yields 1.
func Div() *interp.Builtin {
	return &interp.Builtin{
		PrimName: DivName,
		N:        2,
		Returns:  interp.TypeFloat,
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
			d := b.AsFloat()
			if d == 0 {
				return interp.FloatVal(1), nil
			}
			return interp.FloatVal(a.AsFloat() / d), nil
		},
	}
}

func Neg() *interp.Builtin {
	return &interp.Builtin{
		PrimName: NegName,
		N:        1,
		Returns:  interp.TypeNumber,
		Params:   []interp.TypeTag{interp.TypeNumber},
		Fn: func(c *interp.Context) (interp.Value, error) {
			x, err := c.Arg(0)
			if err != nil {
				return interp.NilVal(), err
			}
			if x.IsInt() {
				return interp.IntVal(-x.AsInt()), nil
			}
			return interp.FloatVal(-x.AsFloat()), nil
		},
	}
}

func Sin() *interp.Builtin { return unaryFloat(SinName, math.Sin) }
func Cos() *interp.Builtin { return unaryFloat(CosName, math.Cos) }
func Exp() *interp.Builtin { return unaryFloat(ExpName, math.Exp) }

// Log is the protected logarithm: log|x|, and 0 for x == 0.
func Log() *interp.Builtin {
	return unaryFloat(LogName, func(x float64) float64 {
		if x == 0 {
			return 0
		}
		return math.Log(math.Abs(x))
	})
}
