package interp

import (
	"errors"
	"testing"
)

func TestCheckTypes(t *testing.T) {
	not := &Builtin{PrimName: "not", N: 1, Returns: TypeBool, Params: []TypeTag{TypeBool}}

	good := MustBuild("good", 0, not, not, &Const{Val: BoolVal(true)})
	if err := CheckTypes(&good); err != nil {
		t.Errorf("well-typed tree rejected: %v", err)
	}

	// untyped children are accepted anywhere
	loose := MustBuild("loose", 0, not, &Var{VarName: "x"})
	if err := CheckTypes(&loose); err != nil {
		t.Errorf("untyped variable rejected: %v", err)
	}

	bad := MustBuild("bad", 0, addPrim, num(1), not, num(2))
	err := CheckTypes(&bad)
	var terr *TypeError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TypeError, got %v", err)
	}
	if terr.Node != 0 || terr.Arg != 1 || terr.Want != TypeNumber || terr.Got != TypeBool {
		t.Errorf("unexpected detail: %+v", terr)
	}

	ind := NewIndividual("typed", good, bad)
	if err := ind.CheckTypes(); !errors.As(err, &terr) {
		t.Errorf("individual check: expected TypeError, got %v", err)
	}
}

func TestTypeTagAccepts(t *testing.T) {
	tests := []struct {
		slot, value TypeTag
		want        bool
	}{
		{TypeNumber, TypeInt, true},
		{TypeNumber, TypeFloat, true},
		{TypeFloat, TypeInt, true},
		{TypeInt, TypeFloat, false},
		{TypeBool, TypeNumber, false},
		{TypeAny, TypeNil, true},
		{TypeBool, TypeAny, true},
	}
	for _, tt := range tests {
		if got := tt.slot.Accepts(tt.value); got != tt.want {
			t.Errorf("%s accepts %s: want %t, got %t", tt.slot, tt.value, tt.want, got)
		}
	}
}
