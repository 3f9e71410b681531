package interp

import (
	"errors"
	"fmt"
	"strings"
)

// Node is one entry of a tree's preorder sequence.
type Node struct {
	Prim Primitive
	Size int // nodes in this subtree, including this one
}

// Tree is a program stored as a flat preorder sequence. A node's children
// follow it directly; the k-th child is found by skipping the sizes of the
// k-1 siblings before it.
type Tree struct {
	Name   string
	Params int // number of Argument slots when the tree is invoked as an ADF
	Nodes  []Node
}

// Build lays out prims (in preorder) as a tree, deriving every subtree size
// from the declared arities.
func Build(name string, params int, prims []Primitive) (Tree, error) {
	t := Tree{Name: name, Params: params, Nodes: make([]Node, len(prims))}
	for i, p := range prims {
		t.Nodes[i].Prim = p
	}
	if err := t.RecomputeSizes(); err != nil {
		return Tree{}, err
	}
	return t, nil
}

// MustBuild is Build for trees known to be well formed, such as test fixtures.
func MustBuild(name string, params int, prims ...Primitive) Tree {
	t, err := Build(name, params, prims)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Tree) Len() int { return len(t.Nodes) }

// Child returns the index of the n-th child of the node at i. It does not
// check n against the node's arity; the Context does that.
func (t *Tree) Child(i, n int) int {
	c := i + 1
	for k := 0; k < n; k++ {
		c += t.Nodes[c].Size
	}
	return c
}

// Children returns the start index of every direct child of the node at i.
func (t *Tree) Children(i int) []int {
	arity := t.Nodes[i].Prim.Arity()
	out := make([]int, 0, arity)
	c := i + 1
	for k := 0; k < arity; k++ {
		out = append(out, c)
		c += t.Nodes[c].Size
	}
	return out
}

// RecomputeSizes rebuilds every Size field bottom-up from the arities.
func (t *Tree) RecomputeSizes() error {
	if len(t.Nodes) == 0 {
		return newStructural(0, 0, "tree %q is empty", t.Name)
	}
	// sizes of the pending subtrees, the next sibling on top
	stack := make([]int, 0, 16)
	for i := len(t.Nodes) - 1; i >= 0; i-- {
		p := t.Nodes[i].Prim
		if p == nil {
			return newStructural(0, i, "tree %q: node has no primitive", t.Name)
		}
		arity := p.Arity()
		if arity < 0 {
			return newStructural(0, i, "tree %q: primitive %s has no concrete arity", t.Name, p.Name())
		}
		if arity > len(stack) {
			return newStructural(0, i, "tree %q: primitive %s needs %d children, %d available",
				t.Name, p.Name(), arity, len(stack))
		}
		size := 1
		for k := 0; k < arity; k++ {
			size += stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		}
		t.Nodes[i].Size = size
		stack = append(stack, size)
	}
	if len(stack) != 1 {
		return newStructural(0, 0, "tree %q: %d dangling subtrees after the root", t.Name, len(stack)-1)
	}
	return nil
}

// Validate checks the size invariant without changing the tree.
func (t *Tree) Validate() error {
	if len(t.Nodes) == 0 {
		return newStructural(0, 0, "tree %q is empty", t.Name)
	}
	if t.Nodes[0].Size != len(t.Nodes) {
		return t.structural(0, "root size %d does not match length %d", t.Nodes[0].Size, len(t.Nodes))
	}
	for i, n := range t.Nodes {
		if n.Prim == nil {
			return t.structural(i, "node has no primitive")
		}
		arity := n.Prim.Arity()
		if arity < 0 {
			return t.structural(i, "primitive %s has no concrete arity", n.Prim.Name())
		}
		end := i + n.Size
		if n.Size < 1 || end > len(t.Nodes) {
			return t.structural(i, "size %d runs past the end of the tree", n.Size)
		}
		sum := 1
		c := i + 1
		for k := 0; k < arity; k++ {
			if c >= end {
				return t.structural(i, "child %d of %s starts outside its parent", k, n.Prim.Name())
			}
			sum += t.Nodes[c].Size
			c += t.Nodes[c].Size
		}
		if sum != n.Size {
			return t.structural(i, "size %d of %s does not match its children (%d)", n.Size, n.Prim.Name(), sum)
		}
	}
	return nil
}

func (t *Tree) structural(node int, format string, a ...interface{}) *StructuralError {
	err := newStructural(0, node, "tree %q: "+format, append([]interface{}{t.Name}, a...)...)
	err.Snapshot = t.Flat()
	return err
}

// Flat renders the raw node sequence as name/size pairs. Unlike String it
// does not rely on the sizes being consistent.
func (t *Tree) Flat() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, n := range t.Nodes {
		if i > 0 {
			b.WriteByte(' ')
		}
		name := "<nil>"
		if n.Prim != nil {
			name = n.Prim.Name()
		}
		fmt.Fprintf(&b, "%s/%d", name, n.Size)
	}
	b.WriteByte(']')
	return b.String()
}

// Subtree returns a copy of the subtree rooted at i.
func (t *Tree) Subtree(i int) ([]Node, error) {
	if err := t.checkIndex(i); err != nil {
		return nil, err
	}
	out := make([]Node, t.Nodes[i].Size)
	copy(out, t.Nodes[i:i+t.Nodes[i].Size])
	return out, nil
}

// ReplaceSubtree returns a new tree in which the subtree at i is replaced by
// sub. The receiver is left untouched.
func (t *Tree) ReplaceSubtree(i int, sub []Node) (Tree, error) {
	if err := t.checkIndex(i); err != nil {
		return Tree{}, err
	}
	end := i + t.Nodes[i].Size
	nodes := make([]Node, 0, len(t.Nodes)-t.Nodes[i].Size+len(sub))
	nodes = append(nodes, t.Nodes[:i]...)
	nodes = append(nodes, sub...)
	nodes = append(nodes, t.Nodes[end:]...)
	out := Tree{Name: t.Name, Params: t.Params, Nodes: nodes}
	if err := out.RecomputeSizes(); err != nil {
		return Tree{}, err
	}
	return out, nil
}

// checkIndex reports whether i starts a subtree that fits inside t.
func (t *Tree) checkIndex(i int) error {
	if i < 0 || i >= len(t.Nodes) {
		return t.structural(i, "node index %d out of range [0, %d)", i, len(t.Nodes))
	}
	if size := t.Nodes[i].Size; size < 1 || i+size > len(t.Nodes) {
		return t.structural(i, "size %d runs past the end of the tree", size)
	}
	return nil
}

// Depth returns the number of nodes on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	return t.depthAt(0)
}

func (t *Tree) depthAt(i int) int {
	deepest := 0
	for _, c := range t.Children(i) {
		if d := t.depthAt(c); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// String renders the tree in prefix form, e.g. (add x (mul 2 3)).
func (t *Tree) String() string {
	if len(t.Nodes) == 0 {
		return "()"
	}
	var b strings.Builder
	t.render(&b, 0)
	return b.String()
}

func (t *Tree) render(b *strings.Builder, i int) {
	n := t.Nodes[i]
	if n.Prim.Arity() == 0 {
		b.WriteString(n.Prim.Name())
		return
	}
	b.WriteByte('(')
	b.WriteString(n.Prim.Name())
	for _, c := range t.Children(i) {
		b.WriteByte(' ')
		t.render(b, c)
	}
	b.WriteByte(')')
}

// Individual is the bag of trees one evaluation runs against. Tree 0 is the
// main program; the others are ADFs reachable through invokers.
type Individual struct {
	ID    string
	Trees []Tree
}

func NewIndividual(id string, trees ...Tree) *Individual {
	return &Individual{ID: id, Trees: trees}
}

// Validate checks every tree's size invariant.
func (ind *Individual) Validate() error {
	if len(ind.Trees) == 0 {
		return &StructuralError{Reason: "individual has no trees", Individual: ind.ID}
	}
	for i := range ind.Trees {
		if err := ind.Trees[i].Validate(); err != nil {
			var serr *StructuralError
			if errors.As(err, &serr) {
				serr.Tree = i
				serr.Individual = ind.ID
			}
			return err
		}
	}
	return nil
}

func (ind *Individual) String() string {
	var b strings.Builder
	for i := range ind.Trees {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", ind.Trees[i].Name, ind.Trees[i].String())
	}
	return b.String()
}
