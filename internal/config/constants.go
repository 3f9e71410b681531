package config

import (
	"fmt"
	"time"

	"github.com/funvibe/treegp/internal/interp"
)

// ConfigFileNames are the run configuration files FindConfig looks for.
var ConfigFileNames = []string{"treegp.yaml", "treegp.yml"}

// ProgramFileExtensions are the recognized program description extensions.
var ProgramFileExtensions = []string{".yaml", ".yml"}

// Evaluation defaults
const (
	DefaultMaxNodes = 0 // unlimited
	DefaultMaxTime  = 0 * time.Second
	// DefaultMaxDepth keeps runaway recursion between ADFs well inside the
	// goroutine stack. A max_depth of 0 falls back to it as well.
	DefaultMaxDepth = interp.DefaultMaxDepth
	DefaultSeed     = 1
	DefaultPolicy   = "caching"
	DefaultRecurse  = "forward"
)

// Exceeded-budget policies applied by the batch evaluator
const (
	OnExceededInvalid = "invalid"
	OnExceededPenalty = "penalty"
)

// Standard primitive names
const (
	AddPrimName  = "add"
	SubPrimName  = "sub"
	MulPrimName  = "mul"
	DivPrimName  = "div"
	NegPrimName  = "neg"
	MinPrimName  = "min"
	MaxPrimName  = "max"
	SinPrimName  = "sin"
	CosPrimName  = "cos"
	ExpPrimName  = "exp"
	LogPrimName  = "log"
	LtPrimName   = "lt"
	GtPrimName   = "gt"
	EqPrimName   = "eq"
	AndPrimName  = "and"
	OrPrimName   = "or"
	NotPrimName  = "not"
	IfPrimName   = "if"
	RandPrimName = "rand"
)

// InvokerName is the registry name of the fixed invoker for ADF tree i.
func InvokerName(i int) string { return fmt.Sprintf("adf%d", i) }

// ArgumentName is the registry name of the k-th argument placeholder.
func ArgumentName(k int) string { return fmt.Sprintf("arg%d", k) }
