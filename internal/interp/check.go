package interp

import "fmt"

// TypeError reports a child whose declared return type does not fit the
// slot its parent declares.
type TypeError struct {
	Tree  string
	Node  int
	Arg   int
	Want  TypeTag
	Got   TypeTag
	Child string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("tree %q node %d: argument %d wants %s, %s returns %s",
		e.Tree, e.Node, e.Arg, e.Want, e.Child, e.Got)
}

// CheckTypes verifies the declared types of t. This is the construction-time
// half of the type contract; evaluation never looks at type tags. Primitives
// that do not implement Typed accept and return anything.
func CheckTypes(t *Tree) error {
	if err := t.Validate(); err != nil {
		return err
	}
	for i, n := range t.Nodes {
		typed, ok := n.Prim.(Typed)
		if !ok {
			continue
		}
		params := typed.ArgTypes()
		for k, c := range t.Children(i) {
			if k >= len(params) {
				break
			}
			got := returnType(t.Nodes[c].Prim)
			if !params[k].Accepts(got) {
				return &TypeError{
					Tree:  t.Name,
					Node:  i,
					Arg:   k,
					Want:  params[k],
					Got:   got,
					Child: t.Nodes[c].Prim.Name(),
				}
			}
		}
	}
	return nil
}

// CheckTypes runs CheckTypes over every tree of ind.
func (ind *Individual) CheckTypes() error {
	for i := range ind.Trees {
		if err := CheckTypes(&ind.Trees[i]); err != nil {
			return fmt.Errorf("individual %s: %w", ind.ID, err)
		}
	}
	return nil
}

func returnType(p Primitive) TypeTag {
	if typed, ok := p.(Typed); ok {
		return typed.ReturnType()
	}
	return TypeAny
}
