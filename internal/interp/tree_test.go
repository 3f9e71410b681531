package interp

import (
	"errors"
	"math/rand"
	"testing"
)

func TestBuildSizes(t *testing.T) {
	tree := MustBuild("main", 0, addPrim, num(1), mulPrim, num(2), num(3))

	want := []int{5, 1, 3, 1, 1}
	for i, n := range tree.Nodes {
		if n.Size != want[i] {
			t.Errorf("node %d: size mismatch: want %d, got %d", i, want[i], n.Size)
		}
	}
	if got := tree.Child(0, 1); got != 2 {
		t.Errorf("Child(0, 1): want 2, got %d", got)
	}
	if got := tree.Child(2, 1); got != 4 {
		t.Errorf("Child(2, 1): want 4, got %d", got)
	}
	if got := tree.String(); got != "(add 1 (mul 2 3))" {
		t.Errorf("String mismatch: got %q", got)
	}
	if got := tree.Depth(); got != 3 {
		t.Errorf("Depth: want 3, got %d", got)
	}
}

func TestBuildRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		prims []Primitive
	}{
		{"empty", nil},
		{"missing child", []Primitive{addPrim, num(1)}},
		{"dangling subtree", []Primitive{num(1), num(2)}},
		{"nil primitive", []Primitive{addPrim, nil, num(1)}},
		{"variadic arity", []Primitive{&Builtin{PrimName: "any", N: AnyArity}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build("bad", 0, tt.prims)
			if !errors.Is(err, ErrStructural) {
				t.Fatalf("expected structural error, got %v", err)
			}
		})
	}
}

// randomTree builds a random preorder sequence and records, by plain
// recursion, where every node's children start.
func randomTree(rng *rand.Rand, depth int, out *[]Primitive, kids map[int][]int) int {
	idx := len(*out)
	arity := 0
	if depth > 0 {
		arity = rng.Intn(4)
	}
	var p Primitive
	switch arity {
	case 0:
		p = num(int64(rng.Intn(10)))
	case 1:
		p = &Builtin{PrimName: "neg", N: 1}
	case 2:
		p = addPrim
	default:
		p = &Builtin{PrimName: "if", N: 3}
	}
	*out = append(*out, p)
	for k := 0; k < arity; k++ {
		kids[idx] = append(kids[idx], randomTree(rng, depth-1, out, kids))
	}
	return idx
}

func TestChildAddressingMatchesRecursion(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		var prims []Primitive
		kids := make(map[int][]int)
		randomTree(rng, 1+rng.Intn(6), &prims, kids)

		tree, err := Build("random", 0, prims)
		if err != nil {
			t.Fatalf("iteration %d: Build failed: %v", iter, err)
		}
		if err := tree.Validate(); err != nil {
			t.Fatalf("iteration %d: Validate failed: %v", iter, err)
		}
		if tree.Nodes[0].Size != len(prims) {
			t.Fatalf("iteration %d: root size %d, want %d", iter, tree.Nodes[0].Size, len(prims))
		}
		for i := range tree.Nodes {
			want := kids[i]
			got := tree.Children(i)
			if len(got) != len(want) {
				t.Fatalf("iteration %d node %d: %d children, want %d", iter, i, len(got), len(want))
			}
			for k := range want {
				if got[k] != want[k] || tree.Child(i, k) != want[k] {
					t.Fatalf("iteration %d node %d child %d: got %d, want %d", iter, i, k, got[k], want[k])
				}
			}
		}

		// recomputing from scratch must give the same sizes
		sizes := make([]int, len(tree.Nodes))
		for i, n := range tree.Nodes {
			sizes[i] = n.Size
			tree.Nodes[i].Size = 0
		}
		if err := tree.RecomputeSizes(); err != nil {
			t.Fatalf("iteration %d: RecomputeSizes failed: %v", iter, err)
		}
		for i, n := range tree.Nodes {
			if n.Size != sizes[i] {
				t.Fatalf("iteration %d node %d: recomputed size %d, want %d", iter, i, n.Size, sizes[i])
			}
		}
	}
}

func TestValidateDetectsCorruption(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *Tree)
	}{
		{"root size", func(t *Tree) { t.Nodes[0].Size = 4 }},
		{"inner size", func(t *Tree) { t.Nodes[2].Size = 2 }},
		{"leaf size", func(t *Tree) { t.Nodes[4].Size = 0 }},
		{"nil primitive", func(t *Tree) { t.Nodes[1].Prim = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := MustBuild("main", 0, addPrim, num(1), mulPrim, num(2), num(3))
			tt.mutate(&tree)
			err := tree.Validate()
			if !errors.Is(err, ErrStructural) {
				t.Fatalf("expected structural error, got %v", err)
			}
			var serr *StructuralError
			if !errors.As(err, &serr) || serr.Snapshot == "" {
				t.Errorf("expected a snapshot of the tree, got %+v", serr)
			}
		})
	}
}

func TestReplaceSubtree(t *testing.T) {
	tree := MustBuild("main", 0, addPrim, num(1), mulPrim, num(2), num(3))

	sub, err := tree.Subtree(2)
	if err != nil {
		t.Fatalf("Subtree failed: %v", err)
	}
	if len(sub) != 3 {
		t.Fatalf("Subtree(2): want 3 nodes, got %d", len(sub))
	}

	out, err := tree.ReplaceSubtree(2, []Node{{Prim: num(9), Size: 1}})
	if err != nil {
		t.Fatalf("ReplaceSubtree failed: %v", err)
	}
	if got := out.String(); got != "(add 1 9)" {
		t.Errorf("replaced tree: got %q", got)
	}
	if out.Nodes[0].Size != 3 {
		t.Errorf("replaced root size: want 3, got %d", out.Nodes[0].Size)
	}
	if got := tree.String(); got != "(add 1 (mul 2 3))" {
		t.Errorf("original changed: got %q", got)
	}

	// grafting the removed subtree back yields the original
	back, err := out.ReplaceSubtree(2, sub)
	if err != nil {
		t.Fatalf("ReplaceSubtree failed: %v", err)
	}
	if got := back.String(); got != tree.String() {
		t.Errorf("round trip: want %q, got %q", tree.String(), got)
	}
}

func TestIndividualValidate(t *testing.T) {
	good := MustBuild("main", 0, num(1))
	bad := MustBuild("adf1", 0, addPrim, num(1), num(2))
	bad.Nodes[0].Size = 7

	err := NewIndividual("ind", good, bad).Validate()
	var serr *StructuralError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StructuralError, got %v", err)
	}
	if serr.Tree != 1 || serr.Individual != "ind" {
		t.Errorf("error location: want tree 1 of ind, got tree %d of %q", serr.Tree, serr.Individual)
	}

	if err := NewIndividual("empty").Validate(); !errors.Is(err, ErrStructural) {
		t.Errorf("empty individual: expected structural error, got %v", err)
	}
}

func TestSubtreeIndexChecks(t *testing.T) {
	tree := MustBuild("main", 0, addPrim, num(1), num(2))
	corrupt := MustBuild("main", 0, addPrim, num(1), num(2))
	corrupt.Nodes[1].Size = 5

	tests := []struct {
		name string
		tree *Tree
		i    int
	}{
		{"negative", &tree, -1},
		{"past the end", &tree, 3},
		{"size past the end", &corrupt, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.tree.Subtree(tt.i); !errors.Is(err, ErrStructural) {
				t.Errorf("Subtree(%d): expected structural error, got %v", tt.i, err)
			}
			if _, err := tt.tree.ReplaceSubtree(tt.i, []Node{{Prim: num(9), Size: 1}}); !errors.Is(err, ErrStructural) {
				t.Errorf("ReplaceSubtree(%d): expected structural error, got %v", tt.i, err)
			}
		})
	}
}
