package interp

import "testing"

func num(n int64) *Const { return &Const{Val: IntVal(n)} }

func binop(name string, fn func(a, b int64) int64) *Builtin {
	return &Builtin{
		PrimName: name,
		N:        2,
		Returns:  TypeInt,
		Params:   []TypeTag{TypeNumber, TypeNumber},
		Fn: func(c *Context) (Value, error) {
			a, err := c.Arg(0)
			if err != nil {
				return NilVal(), err
			}
			b, err := c.Arg(1)
			if err != nil {
				return NilVal(), err
			}
			return IntVal(fn(a.AsInt(), b.AsInt())), nil
		},
	}
}

var (
	addPrim = binop("add", func(a, b int64) int64 { return a + b })
	mulPrim = binop("mul", func(a, b int64) int64 { return a * b })
)

// counting returns a terminal that counts its executions in *n.
func counting(n *int) *Builtin {
	return &Builtin{
		PrimName: "tick",
		Returns:  TypeInt,
		Fn: func(c *Context) (Value, error) {
			*n++
			return IntVal(int64(*n)), nil
		},
	}
}

func run(t *testing.T, ind *Individual, limits Limits) (Value, *Context, error) {
	t.Helper()
	c := NewContext(limits, NewRand(1))
	val, err := c.Run(ind, 0)
	return val, c, err
}

func mustRun(t *testing.T, ind *Individual) Value {
	t.Helper()
	val, _, err := run(t, ind, Limits{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return val
}
