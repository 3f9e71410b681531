package interp

import "testing"

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(addPrim, mulPrim)

	if err := r.Register(binop("add", nil)); err == nil {
		t.Errorf("duplicate name accepted")
	}
	if err := r.RegisterAs("", addPrim); err == nil {
		t.Errorf("empty name accepted")
	}
	if err := r.RegisterAs("+", addPrim); err != nil {
		t.Fatalf("alias rejected: %v", err)
	}

	p, ok := r.Lookup("+")
	if !ok || p != Primitive(addPrim) {
		t.Errorf("alias does not resolve to the shared instance")
	}
	names := r.Names()
	want := []string{"+", "add", "mul"}
	if len(names) != len(want) {
		t.Fatalf("Names: want %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Names: want %v, got %v", want, names)
		}
	}

	clone := r.Clone()
	clone.MustRegister(num(1))
	if r.Len() != 3 || clone.Len() != 4 {
		t.Errorf("clone is not independent: %d and %d entries", r.Len(), clone.Len())
	}
}
