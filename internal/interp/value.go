package interp

import (
	"fmt"
	"math"
)

// ValueType identifies the type of value stored in the Value struct
type ValueType uint8

const (
	ValNil ValueType = iota
	ValInt
	ValFloat
	ValBool
)

// Value is a stack-allocated tagged union.
// Evaluating a node never allocates for its result.
type Value struct {
	Type ValueType
	Data uint64 // Stores int64 bits, float64 bits, or bool (0/1)
}

// Constructors

func NilVal() Value {
	return Value{Type: ValNil}
}

func IntVal(v int64) Value {
	return Value{Type: ValInt, Data: uint64(v)}
}

func FloatVal(v float64) Value {
	return Value{Type: ValFloat, Data: math.Float64bits(v)}
}

func BoolVal(v bool) Value {
	var data uint64
	if v {
		data = 1
	}
	return Value{Type: ValBool, Data: data}
}

// Accessors

func (v Value) AsInt() int64 {
	switch v.Type {
	case ValFloat:
		return int64(math.Float64frombits(v.Data))
	default:
		return int64(v.Data)
	}
}

func (v Value) AsFloat() float64 {
	switch v.Type {
	case ValInt:
		return float64(int64(v.Data))
	case ValBool:
		return float64(v.Data)
	case ValNil:
		return 0
	default:
		return math.Float64frombits(v.Data)
	}
}

func (v Value) AsBool() bool {
	return v.Truthy()
}

// Truthy reports whether v selects the "then" branch of a conditional.
// Numbers are truthy when non-zero, Nil is never truthy.
func (v Value) Truthy() bool {
	switch v.Type {
	case ValBool, ValInt:
		return v.Data != 0
	case ValFloat:
		return math.Float64frombits(v.Data) != 0
	default:
		return false
	}
}

// Type checking helpers

func (v Value) IsInt() bool    { return v.Type == ValInt }
func (v Value) IsFloat() bool  { return v.Type == ValFloat }
func (v Value) IsBool() bool   { return v.Type == ValBool }
func (v Value) IsNil() bool    { return v.Type == ValNil }
func (v Value) IsNumber() bool { return v.Type == ValInt || v.Type == ValFloat }

// Equals compares two values, converting Int to Float when the types differ.
func (v Value) Equals(other Value) bool {
	if v.Type != other.Type {
		if v.IsNumber() && other.IsNumber() {
			return v.AsFloat() == other.AsFloat()
		}
		return false
	}
	switch v.Type {
	case ValInt, ValBool:
		return v.Data == other.Data
	case ValFloat:
		return math.Float64frombits(v.Data) == math.Float64frombits(other.Data)
	case ValNil:
		return true
	default:
		return false
	}
}

// Inspect returns string representation
func (v Value) Inspect() string {
	switch v.Type {
	case ValInt:
		return fmt.Sprintf("%d", int64(v.Data))
	case ValFloat:
		return fmt.Sprintf("%g", math.Float64frombits(v.Data))
	case ValBool:
		return fmt.Sprintf("%t", v.Data == 1)
	default:
		return "Nil"
	}
}

func (v Value) String() string { return v.Inspect() }

// TypeTag returns the declared-type tag matching the runtime representation.
func (v Value) TypeTag() TypeTag {
	switch v.Type {
	case ValInt:
		return TypeInt
	case ValFloat:
		return TypeFloat
	case ValBool:
		return TypeBool
	default:
		return TypeNil
	}
}

// Interface converts v to the closest Go value.
func (v Value) Interface() interface{} {
	switch v.Type {
	case ValInt:
		return int64(v.Data)
	case ValFloat:
		return math.Float64frombits(v.Data)
	case ValBool:
		return v.Data == 1
	default:
		return nil
	}
}
