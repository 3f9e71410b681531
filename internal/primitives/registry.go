package primitives

import (
	"fmt"

	"github.com/funvibe/treegp/internal/config"
	"github.com/funvibe/treegp/internal/interp"
)

// Names of the standard primitives.
const (
	AddName  = config.AddPrimName
	SubName  = config.SubPrimName
	MulName  = config.MulPrimName
	DivName  = config.DivPrimName
	NegName  = config.NegPrimName
	MinName  = config.MinPrimName
	MaxName  = config.MaxPrimName
	SinName  = config.SinPrimName
	CosName  = config.CosPrimName
	ExpName  = config.ExpPrimName
	LogName  = config.LogPrimName
	LtName   = config.LtPrimName
	GtName   = config.GtPrimName
	EqName   = config.EqPrimName
	AndName  = config.AndPrimName
	OrName   = config.OrPrimName
	NotName  = config.NotPrimName
	IfName   = config.IfPrimName
	RandName = config.RandPrimName
)

// Standard returns a fresh instance of every standard function primitive.
func Standard() []*interp.Builtin {
	return []*interp.Builtin{
		Add(), Sub(), Mul(), Div(), Neg(), Min(), Max(),
		Sin(), Cos(), Exp(), Log(),
		Lt(), Gt(), Eq(), And(), Or(), Not(), If(),
		Rand(),
	}
}

// operator spellings registered next to the names
var aliases = map[string]string{
	"+": AddName,
	"-": SubName,
	"*": MulName,
	"/": DivName,
	"<": LtName,
	">": GtName,
	"=": EqName,
}

// RegisterStandard registers the standard set and its operator aliases.
func RegisterStandard(r *interp.Registry) error {
	byName := make(map[string]interp.Primitive)
	for _, b := range Standard() {
		if err := r.Register(b); err != nil {
			return err
		}
		byName[b.Name()] = b
	}
	for alias, name := range aliases {
		if err := r.RegisterAs(alias, byName[name]); err != nil {
			return err
		}
	}
	return nil
}

// RegisterADFs registers, for every ADF tree i >= 1 with its parameter
// count, a fixed invoker "adfI" and the argument placeholders "arg0".."argN-1"
// that its body may use. policies[i] is the argument policy of the invoker
// calling tree i; params and policies have the same length.
func RegisterADFs(r *interp.Registry, params []int, policies []interp.ArgPolicy) error {
	if len(policies) != len(params) {
		return fmt.Errorf("%d argument policies for %d trees", len(policies), len(params))
	}
	maxParams := 0
	for i, n := range params {
		if i == 0 {
			continue
		}
		inv := interp.NewInvoker(config.InvokerName(i), n, i, policies[i])
		if err := r.Register(inv); err != nil {
			return err
		}
		if n > maxParams {
			maxParams = n
		}
	}
	for k := 0; k < maxParams; k++ {
		if _, ok := r.Lookup(config.ArgumentName(k)); ok {
			continue
		}
		if err := r.Register(interp.NewArgument(k)); err != nil {
			return err
		}
	}
	return nil
}
