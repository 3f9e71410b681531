// Package program builds Individuals from YAML program descriptions.
//
// A description lists the trees of one individual. Tree 0 is the main
// program; every further tree is an ADF reachable through the invoker adfI
// (I being its index) and reads its arguments through arg0, arg1, ...
//
//	id: example
//	trees:
//	  - name: main
//	    body: (add x (adf1 3 4))
//	  - name: adf1
//	    params: 2
//	    policy: jit
//	    body: (mul arg0 arg1)
//
// A tree's policy sets how adfI passes its arguments, and an invoker's
// policy does the same for that dynamic invoker. Both default to the
// Loader's Policy.
//
// Bodies are prefix expressions. Parentheses are optional; when present,
// their child count is checked against the primitive's arity.
package program

import (
	"fmt"
	"os"
	"strings"

	"github.com/funvibe/treegp/internal/config"
	"github.com/funvibe/treegp/internal/interp"
	"github.com/funvibe/treegp/internal/primitives"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Program is the on-disk description of one individual.
type Program struct {
	// ID names the individual. A random UUID is used when empty.
	ID string `yaml:"id,omitempty"`

	// Variables declares the variable terminals the bodies may use, on top of
	// the ones the Loader already knows.
	Variables []string `yaml:"variables,omitempty"`

	// Invokers declares dynamic invokers, which pick a legal target tree on
	// every call.
	Invokers []InvokerSpec `yaml:"invokers,omitempty"`

	Trees []TreeSpec `yaml:"trees"`
}

// TreeSpec describes one tree.
type TreeSpec struct {
	Name   string `yaml:"name"`
	Params int    `yaml:"params,omitempty"`
	// Policy is the argument policy of the invoker calling this tree.
	Policy string `yaml:"policy,omitempty"`
	Body   string `yaml:"body"`
}

// InvokerSpec describes a dynamic invoker.
type InvokerSpec struct {
	Name   string `yaml:"name"`
	Arity  int    `yaml:"arity"`
	Policy string `yaml:"policy,omitempty"`
}

// Loader turns Programs into Individuals.
type Loader struct {
	// Base holds the shared primitives, typically the standard set.
	Base *interp.Registry
	// Variables are registered as variable terminals for every program.
	Variables []string
	Policy    interp.ArgPolicy
	Recursion interp.RecursionPolicy
	// Typed runs the construction-time type checker on every loaded tree.
	Typed bool
}

// NewLoader returns a loader over the standard primitive set, configured
// from cfg.
func NewLoader(cfg *config.Config) (*Loader, error) {
	base := interp.NewRegistry()
	if err := primitives.RegisterStandard(base); err != nil {
		return nil, err
	}
	policy, err := cfg.ArgPolicy()
	if err != nil {
		return nil, err
	}
	recursion, err := cfg.RecursionPolicy()
	if err != nil {
		return nil, err
	}
	l := &Loader{Base: base, Policy: policy, Recursion: recursion, Typed: cfg.Typed}
	for name := range cfg.Variables {
		l.Variables = append(l.Variables, name)
	}
	return l, nil
}

// Load reads and builds a program file.
func (l *Loader) Load(path string) (*interp.Individual, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading program %s: %w", path, err)
	}
	return l.Parse(data, path)
}

// Parse builds a program from YAML bytes.
// The path argument is used only for error messages.
func (l *Loader) Parse(data []byte, path string) (*interp.Individual, error) {
	var prog Program
	if err := yaml.Unmarshal(data, &prog); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	ind, err := l.Build(&prog)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ind, nil
}

// Build turns a Program into an Individual.
func (l *Loader) Build(prog *Program) (*interp.Individual, error) {
	if len(prog.Trees) == 0 {
		return nil, fmt.Errorf("no trees defined")
	}
	reg, err := l.registryFor(prog)
	if err != nil {
		return nil, err
	}

	id := prog.ID
	if id == "" {
		id = uuid.NewString()
	}
	ind := &interp.Individual{ID: id, Trees: make([]interp.Tree, 0, len(prog.Trees))}
	for i, spec := range prog.Trees {
		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("tree%d", i)
		}
		prims, err := ParseBody(reg, spec.Body)
		if err != nil {
			return nil, fmt.Errorf("trees[%d] (%s): %w", i, name, err)
		}
		t, err := interp.Build(name, spec.Params, prims)
		if err != nil {
			return nil, fmt.Errorf("trees[%d] (%s): %w", i, name, err)
		}
		ind.Trees = append(ind.Trees, t)
	}
	if l.Typed {
		if err := ind.CheckTypes(); err != nil {
			return nil, err
		}
	}
	return ind, nil
}

// registryFor extends the base registry with the program's invokers,
// argument placeholders and variables.
func (l *Loader) registryFor(prog *Program) (*interp.Registry, error) {
	var reg *interp.Registry
	if l.Base != nil {
		reg = l.Base.Clone()
	} else {
		reg = interp.NewRegistry()
	}

	params := make([]int, len(prog.Trees))
	policies := make([]interp.ArgPolicy, len(prog.Trees))
	for i, spec := range prog.Trees {
		if spec.Params < 0 {
			return nil, fmt.Errorf("trees[%d]: params must not be negative", i)
		}
		if i == 0 && spec.Params != 0 {
			return nil, fmt.Errorf("trees[0]: the main tree takes no params")
		}
		params[i] = spec.Params
		p, err := l.policyFor(spec.Policy)
		if err != nil {
			return nil, fmt.Errorf("trees[%d]: %w", i, err)
		}
		policies[i] = p
	}
	if err := primitives.RegisterADFs(reg, params, policies); err != nil {
		return nil, err
	}

	gen := interp.ArityCandidates{Recursion: l.Recursion}
	for i, spec := range prog.Invokers {
		if spec.Name == "" || spec.Arity < 0 {
			return nil, fmt.Errorf("invokers[%d]: name and a non-negative arity are required", i)
		}
		p, err := l.policyFor(spec.Policy)
		if err != nil {
			return nil, fmt.Errorf("invokers[%d]: %w", i, err)
		}
		if err := reg.Register(interp.NewDynamicInvoker(spec.Name, spec.Arity, gen, p)); err != nil {
			return nil, fmt.Errorf("invokers[%d]: %w", i, err)
		}
	}

	for _, name := range append(append([]string(nil), l.Variables...), prog.Variables...) {
		if _, ok := reg.Lookup(name); ok {
			continue
		}
		if err := reg.Register(primitives.NewVar(name, interp.TypeFloat)); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (l *Loader) policyFor(name string) (interp.ArgPolicy, error) {
	if name == "" {
		return l.Policy, nil
	}
	return interp.ParsePolicy(name)
}

// ParseBody reads a prefix expression into a preorder primitive list.
// Tokens are looked up in reg; unknown tokens that parse as literals become
// constants.
func ParseBody(reg *interp.Registry, body string) ([]interp.Primitive, error) {
	p := &bodyParser{reg: reg, toks: tokenize(body)}
	if len(p.toks) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	if err := p.node(); err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("unexpected %q after the end of the expression", p.toks[p.pos])
	}
	return p.out, nil
}

type bodyParser struct {
	reg  *interp.Registry
	toks []string
	pos  int
	out  []interp.Primitive
}

func (p *bodyParser) next() (string, error) {
	if p.pos >= len(p.toks) {
		return "", fmt.Errorf("unexpected end of expression")
	}
	tok := p.toks[p.pos]
	p.pos++
	return tok, nil
}

func (p *bodyParser) node() error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	parens := tok == "("
	if parens {
		if tok, err = p.next(); err != nil {
			return err
		}
	}
	if tok == "(" || tok == ")" {
		return fmt.Errorf("unexpected %q at token %d", tok, p.pos)
	}
	prim, err := p.lookup(tok)
	if err != nil {
		return err
	}
	p.out = append(p.out, prim)
	for k := 0; k < prim.Arity(); k++ {
		if parens && p.pos < len(p.toks) && p.toks[p.pos] == ")" {
			return fmt.Errorf("%s takes %d arguments, got %d", tok, prim.Arity(), k)
		}
		if err := p.node(); err != nil {
			return err
		}
	}
	if parens {
		closing, err := p.next()
		if err != nil {
			return fmt.Errorf("missing ) after %s", tok)
		}
		if closing != ")" {
			return fmt.Errorf("%s takes %d arguments, got more", tok, prim.Arity())
		}
	}
	return nil
}

func (p *bodyParser) lookup(tok string) (interp.Primitive, error) {
	if prim, ok := p.reg.Lookup(tok); ok {
		return prim, nil
	}
	if k, ok := primitives.ParseConst(tok); ok {
		return k, nil
	}
	return nil, fmt.Errorf("unknown primitive %q", tok)
}

func tokenize(body string) []string {
	body = strings.ReplaceAll(body, "(", " ( ")
	body = strings.ReplaceAll(body, ")", " ) ")
	return strings.Fields(body)
}
