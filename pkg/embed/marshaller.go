package treegp

import (
	"fmt"
	"reflect"

	"github.com/funvibe/treegp/internal/interp"
)

// Marshaller handles conversion between Go and interpreter values.
type Marshaller struct{}

func NewMarshaller() *Marshaller {
	return &Marshaller{}
}

// ToValue converts a Go value to an interpreter Value.
func (m *Marshaller) ToValue(val interface{}) (interp.Value, error) {
	if val == nil {
		return interp.NilVal(), nil
	}
	if v, ok := val.(interp.Value); ok {
		return v, nil
	}

	v := reflect.ValueOf(val)
	if v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return interp.NilVal(), nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return interp.IntVal(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return interp.IntVal(int64(v.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return interp.FloatVal(v.Float()), nil
	case reflect.Bool:
		return interp.BoolVal(v.Bool()), nil
	default:
		return interp.NilVal(), fmt.Errorf("cannot convert %T to a tree value", val)
	}
}

// FromValue converts a Value to Go. With a nil targetType the natural Go
// type is used (int64, float64, bool or nil).
func (m *Marshaller) FromValue(val interp.Value, targetType reflect.Type) (interface{}, error) {
	if targetType == nil {
		return val.Interface(), nil
	}
	switch targetType.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.ValueOf(val.AsInt()).Convert(targetType).Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := val.AsInt()
		if n < 0 {
			return nil, fmt.Errorf("cannot convert %s to %s", val.Inspect(), targetType)
		}
		return reflect.ValueOf(uint64(n)).Convert(targetType).Interface(), nil
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(val.AsFloat()).Convert(targetType).Interface(), nil
	case reflect.Bool:
		return val.Truthy(), nil
	case reflect.Interface:
		return val.Interface(), nil
	default:
		return nil, fmt.Errorf("cannot convert %s to %s", val.Inspect(), targetType)
	}
}

// typeTagOf maps a Go type to the declared type tag of a bound function.
func typeTagOf(t reflect.Type) interp.TypeTag {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return interp.TypeInt
	case reflect.Float32, reflect.Float64:
		return interp.TypeFloat
	case reflect.Bool:
		return interp.TypeBool
	default:
		return interp.TypeAny
	}
}
