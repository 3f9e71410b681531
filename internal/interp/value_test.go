package interp

import "testing"

func TestValueConversions(t *testing.T) {
	tests := []struct {
		name    string
		v       Value
		asFloat float64
		truthy  bool
		inspect string
		tag     TypeTag
	}{
		{"int", IntVal(-3), -3, true, "-3", TypeInt},
		{"zero int", IntVal(0), 0, false, "0", TypeInt},
		{"float", FloatVal(2.5), 2.5, true, "2.5", TypeFloat},
		{"true", BoolVal(true), 1, true, "true", TypeBool},
		{"false", BoolVal(false), 0, false, "false", TypeBool},
		{"nil", NilVal(), 0, false, "Nil", TypeNil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.AsFloat(); got != tt.asFloat {
				t.Errorf("AsFloat: want %g, got %g", tt.asFloat, got)
			}
			if got := tt.v.Truthy(); got != tt.truthy {
				t.Errorf("Truthy: want %t, got %t", tt.truthy, got)
			}
			if got := tt.v.Inspect(); got != tt.inspect {
				t.Errorf("Inspect: want %q, got %q", tt.inspect, got)
			}
			if got := tt.v.TypeTag(); got != tt.tag {
				t.Errorf("TypeTag: want %s, got %s", tt.tag, got)
			}
		})
	}
}

func TestValueEquals(t *testing.T) {
	if !IntVal(2).Equals(FloatVal(2)) {
		t.Errorf("2 and 2.0 should be equal")
	}
	if IntVal(1).Equals(BoolVal(true)) {
		t.Errorf("numbers and bools never compare equal")
	}
	if !NilVal().Equals(Value{}) {
		t.Errorf("the zero Value is Nil")
	}
	if FloatVal(0.5).AsInt() != 0 || IntVal(7).AsInt() != 7 {
		t.Errorf("AsInt truncates floats and keeps ints")
	}
}
