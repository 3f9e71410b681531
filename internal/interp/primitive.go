package interp

// Arity sentinels. They are only meaningful while a tree is being built by
// an external operator; every node of an executable tree has a concrete arity.
const (
	AnyArity    = -1
	BranchArity = -2
)

// TypeTag is a declared argument or return type. Tags are a construction-time
// contract between primitives; the interpreter never checks them.
type TypeTag string

const (
	TypeAny    TypeTag = "any"
	TypeNumber TypeTag = "number"
	TypeInt    TypeTag = "int"
	TypeFloat  TypeTag = "float"
	TypeBool   TypeTag = "bool"
	TypeNil    TypeTag = "nil"
)

// Accepts reports whether a slot declared as t can hold a value declared as other.
func (t TypeTag) Accepts(other TypeTag) bool {
	if t == TypeAny || other == TypeAny || t == other {
		return true
	}
	if t == TypeNumber {
		return other == TypeInt || other == TypeFloat
	}
	if t == TypeFloat {
		return other == TypeInt || other == TypeNumber
	}
	return false
}

// Primitive is the unit of behavior at a tree node. Implementations are shared
// read-only between trees and between concurrent evaluations, so Execute must
// keep every piece of per-call state in the Context.
type Primitive interface {
	Name() string
	Arity() int
	Execute(c *Context) (Value, error)
}

// Typed is implemented by primitives that declare types for the
// construction-time checker.
type Typed interface {
	ReturnType() TypeTag
	ArgTypes() []TypeTag
}

// BuiltinFunction computes a node's value. Arguments are fetched on demand
// with c.Arg, which lets conditionals skip branches.
type BuiltinFunction func(c *Context) (Value, error)

// Builtin is a Primitive backed by a Go function.
type Builtin struct {
	Fn       BuiltinFunction
	PrimName string
	N        int       // arity
	Returns  TypeTag   // declared return type, TypeAny if empty
	Params   []TypeTag // declared argument types, TypeAny for missing entries
}

func (b *Builtin) Name() string                      { return b.PrimName }
func (b *Builtin) Arity() int                        { return b.N }
func (b *Builtin) Execute(c *Context) (Value, error) { return b.Fn(c) }

func (b *Builtin) ReturnType() TypeTag {
	if b.Returns == "" {
		return TypeAny
	}
	return b.Returns
}

func (b *Builtin) ArgTypes() []TypeTag {
	types := make([]TypeTag, b.N)
	for i := range types {
		types[i] = TypeAny
		if i < len(b.Params) && b.Params[i] != "" {
			types[i] = b.Params[i]
		}
	}
	return types
}

// Const is a terminal returning a fixed value.
type Const struct {
	Val   Value
	Label string // name used in registries and renderings; defaults to the value
}

func (k *Const) Name() string {
	if k.Label != "" {
		return k.Label
	}
	return k.Val.Inspect()
}

func (k *Const) Arity() int                        { return 0 }
func (k *Const) Execute(c *Context) (Value, error) { return k.Val, nil }
func (k *Const) ReturnType() TypeTag               { return k.Val.TypeTag() }
func (k *Const) ArgTypes() []TypeTag               { return nil }

// Var is a terminal returning the current value of an externally bound variable.
// Unbound variables evaluate to Nil.
type Var struct {
	VarName string
	Type    TypeTag
}

func (v *Var) Name() string { return v.VarName }
func (v *Var) Arity() int   { return 0 }

func (v *Var) Execute(c *Context) (Value, error) {
	val, _ := c.Var(v.VarName)
	return val, nil
}

func (v *Var) ReturnType() TypeTag {
	if v.Type == "" {
		return TypeAny
	}
	return v.Type
}

func (v *Var) ArgTypes() []TypeTag { return nil }
