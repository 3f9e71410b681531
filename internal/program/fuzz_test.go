package program

import (
	"errors"
	"testing"

	"github.com/funvibe/treegp/internal/config"
	"github.com/funvibe/treegp/internal/interp"
)

// FuzzParseBody checks that any text either fails to parse or yields a tree
// that builds, validates and renders back to an equivalent body.
func FuzzParseBody(f *testing.F) {
	f.Add("(+ 1 (* 2 3))")
	f.Add("(if (< x 0) (neg x) x)")
	f.Add("add 1")
	f.Add("((()))")
	f.Add("(max -1 2.5e3 7)")

	l, err := NewLoader(config.Default())
	if err != nil {
		f.Fatal(err)
	}
	reg := l.Base.Clone()
	reg.MustRegister(&interp.Var{VarName: "x"})

	f.Fuzz(func(t *testing.T, body string) {
		prims, err := ParseBody(reg, body)
		if err != nil {
			return
		}
		tree, err := interp.Build("fuzz", 0, prims)
		if err != nil {
			t.Fatalf("parsed body %q failed to build: %v", body, err)
		}
		if err := tree.Validate(); err != nil {
			t.Fatalf("parsed body %q is invalid: %v", body, err)
		}

		again, err := ParseBody(reg, tree.String())
		if err != nil {
			t.Fatalf("rendering %q does not parse: %v", tree.String(), err)
		}
		if len(again) != len(prims) {
			t.Fatalf("round trip changed %q into %q", body, tree.String())
		}

		c := interp.NewContext(interp.Limits{MaxNodes: 10000}, nil)
		if _, err := c.Run(interp.NewIndividual("fuzz", tree), 0); err != nil && !errors.Is(err, interp.ErrResourceExceeded) {
			t.Fatalf("evaluating %q: %v", body, err)
		}
	})
}
