// Package treegp is the embedding API of the tree interpreter: bind Go
// values as variables, register Go functions as primitives, and evaluate
// programs written as prefix expressions.
package treegp

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/funvibe/treegp/internal/config"
	"github.com/funvibe/treegp/internal/interp"
	"github.com/funvibe/treegp/internal/program"
)

// Re-exported so embedders can inspect failures without importing internals.
var (
	ErrResourceExceeded = interp.ErrResourceExceeded
	ErrStructural       = interp.ErrStructural
	ErrArgumentIndex    = interp.ErrArgumentIndex
)

// Interpreter wraps a program loader and one evaluation context.
// It is not safe for concurrent use; create one per goroutine.
type Interpreter struct {
	cfg        *config.Config
	loader     *program.Loader
	ctx        *interp.Context
	marshaller *Marshaller
	bindings   map[string]interp.Value
}

// New creates an interpreter with the default configuration.
func New() *Interpreter {
	in, err := NewWithConfig(config.Default())
	if err != nil {
		// the default configuration always loads
		panic(err)
	}
	return in
}

// NewWithConfig creates an interpreter from a run configuration.
func NewWithConfig(cfg *config.Config) (*Interpreter, error) {
	loader, err := program.NewLoader(cfg)
	if err != nil {
		return nil, err
	}
	ctx := interp.NewContext(cfg.InterpLimits(), interp.NewRand(cfg.Seed))
	ctx.SetValidate(cfg.Validate)
	in := &Interpreter{
		cfg:        cfg,
		loader:     loader,
		ctx:        ctx,
		marshaller: NewMarshaller(),
		bindings:   make(map[string]interp.Value),
	}
	for name, v := range cfg.Variables {
		in.bindings[name] = interp.FloatVal(v)
	}
	return in, nil
}

// Bind sets the value of a variable terminal. Programs loaded after the
// first Bind of a name can refer to it.
func (in *Interpreter) Bind(name string, val interface{}) error {
	v, err := in.marshaller.ToValue(val)
	if err != nil {
		return fmt.Errorf("bind %s: %w", name, err)
	}
	if _, known := in.bindings[name]; !known {
		in.loader.Variables = append(in.loader.Variables, name)
	}
	in.bindings[name] = v
	return nil
}

// Register makes a Go function available as a primitive. The function
// takes numeric or bool parameters and returns one value, optionally
// followed by an error. Its parameter count is the primitive's arity.
func (in *Interpreter) Register(name string, fn interface{}) error {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return fmt.Errorf("register %s: %T is not a function", name, fn)
	}
	if ft.IsVariadic() {
		return fmt.Errorf("register %s: variadic functions have no fixed arity", name)
	}
	errType := reflect.TypeOf((*error)(nil)).Elem()
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errType:
	default:
		return fmt.Errorf("register %s: function must return a value and optionally an error", name)
	}

	params := make([]interp.TypeTag, ft.NumIn())
	for i := range params {
		params[i] = typeTagOf(ft.In(i))
	}
	m := in.marshaller
	b := &interp.Builtin{
		PrimName: name,
		N:        ft.NumIn(),
		Returns:  typeTagOf(ft.Out(0)),
		Params:   params,
		Fn: func(c *interp.Context) (interp.Value, error) {
			args := make([]reflect.Value, ft.NumIn())
			for i := range args {
				v, err := c.Arg(i)
				if err != nil {
					return interp.NilVal(), err
				}
				goArg, err := m.FromValue(v, ft.In(i))
				if err != nil {
					return interp.NilVal(), fmt.Errorf("%s: argument %d: %w", name, i, err)
				}
				if goArg == nil {
					args[i] = reflect.Zero(ft.In(i))
				} else {
					args[i] = reflect.ValueOf(goArg).Convert(ft.In(i))
				}
			}
			out := fv.Call(args)
			if len(out) == 2 && !out[1].IsNil() {
				return interp.NilVal(), out[1].Interface().(error)
			}
			return m.ToValue(out[0].Interface())
		},
	}
	return in.loader.Base.Register(b)
}

// Primitives lists the names programs can use, variables included.
func (in *Interpreter) Primitives() []string {
	names := in.loader.Base.Names()
	for name := range in.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load builds an individual from a YAML program description.
func (in *Interpreter) Load(yamlProgram []byte) (*interp.Individual, error) {
	return in.loader.Parse(yamlProgram, "<embed>")
}

// Compile builds an individual from prefix expressions: the main tree first,
// then one ADF per entry of adfs. ADF i (counting from 1) is called with
// adfI and takes as many parameters as the highest argK it uses, plus one.
func (in *Interpreter) Compile(main string, adfs ...string) (*interp.Individual, error) {
	prog := &program.Program{Trees: []program.TreeSpec{{Name: "main", Body: main}}}
	for i, body := range adfs {
		prog.Trees = append(prog.Trees, program.TreeSpec{
			Name:   config.InvokerName(i + 1),
			Params: countParams(body),
			Body:   body,
		})
	}
	return in.loader.Build(prog)
}

// Run evaluates the main tree of ind and converts the result to Go.
func (in *Interpreter) Run(ctx context.Context, ind *interp.Individual) (interface{}, error) {
	in.ctx.SetContext(ctx)
	in.ctx.SetVars(in.bindings)
	val, err := in.ctx.Run(ind, 0)
	if err != nil {
		return nil, err
	}
	return in.marshaller.FromValue(val, nil)
}

// Eval compiles and runs a single expression.
func (in *Interpreter) Eval(expr string, adfs ...string) (interface{}, error) {
	ind, err := in.Compile(expr, adfs...)
	if err != nil {
		return nil, err
	}
	return in.Run(context.Background(), ind)
}

// Stats returns the counters of the last Run.
func (in *Interpreter) Stats() interp.Stats { return in.ctx.Stats() }

// IsResourceExceeded reports whether err means a budget ran out.
func IsResourceExceeded(err error) bool { return errors.Is(err, ErrResourceExceeded) }

func countParams(body string) int {
	body = strings.NewReplacer("(", " ", ")", " ").Replace(body)
	n := 0
	for _, tok := range strings.Fields(body) {
		var k int
		if _, err := fmt.Sscanf(tok, "arg%d", &k); err == nil && tok == config.ArgumentName(k) && k+1 > n {
			n = k + 1
		}
	}
	return n
}
