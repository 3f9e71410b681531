// Package config loads the run configuration of treegp from treegp.yaml.
//
// The configuration covers:
//   - evaluation limits (node budget, wall-clock budget, call depth)
//   - the random seed and the number of concurrent workers
//   - the ADF argument policy and recursion policy
//   - the external variables bound before each evaluation
//   - what happens to an individual whose budget ran out
//   - the optional SQLite journal
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/funvibe/treegp/internal/interp"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level treegp.yaml configuration.
type Config struct {
	// Limits bounds every single evaluation.
	Limits Limits `yaml:"limits"`

	// Seed seeds the random source. The i-th individual of a batch uses Seed+i.
	Seed int64 `yaml:"seed"`

	// Workers is the number of concurrent evaluations. Defaults to GOMAXPROCS.
	Workers int `yaml:"workers,omitempty"`

	// ADF configures automatically defined functions.
	ADF ADF `yaml:"adf"`

	// Variables are bound before every evaluation and read by variable terminals.
	Variables map[string]float64 `yaml:"variables,omitempty"`

	// OnExceeded is "invalid" (the individual gets no value) or "penalty"
	// (the individual gets Penalty as its value).
	OnExceeded string  `yaml:"on_exceeded,omitempty"`
	Penalty    float64 `yaml:"penalty,omitempty"`

	// Typed makes loaders run the construction-time type checker.
	Typed bool `yaml:"typed,omitempty"`

	// Validate makes every evaluation check the tree size invariant first.
	Validate bool `yaml:"validate,omitempty"`

	// Journal is the path of the SQLite evaluation journal. Empty disables it.
	// Relative paths are resolved against the config file's directory.
	Journal string `yaml:"journal,omitempty"`
}

// Limits mirrors interp.Limits with YAML durations ("50ms", "2s").
type Limits struct {
	MaxNodes int64         `yaml:"max_nodes"`
	MaxTime  time.Duration `yaml:"max_time"`
	MaxDepth int           `yaml:"max_depth"` // 0 means DefaultMaxDepth
}

// ADF holds the invoker settings shared by every ADF of a run.
type ADF struct {
	// Policy is "precompute", "caching" or "jit".
	Policy string `yaml:"policy"`
	// Recursion is "forward", "no-self" or "any"; it shapes the candidate
	// set of dynamic invokers.
	Recursion string `yaml:"recursion"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	cfg := newConfig()
	cfg.setDefaults()
	return cfg
}

func newConfig() *Config {
	return &Config{
		Seed: DefaultSeed,
		Limits: Limits{
			MaxNodes: DefaultMaxNodes,
			MaxTime:  DefaultMaxTime,
			MaxDepth: DefaultMaxDepth,
		},
	}
}

// LoadConfig reads and parses a treegp.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data, path)
	if err != nil {
		return nil, err
	}
	if cfg.Journal != "" && !filepath.IsAbs(cfg.Journal) {
		cfg.Journal = filepath.Join(filepath.Dir(path), cfg.Journal)
	}
	return cfg, nil
}

// ParseConfig parses treegp.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	cfg := newConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.setDefaults()
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfig searches for treegp.yaml starting from dir and walking up
// to parent directories.
// Returns the path to the config file and nil error if found,
// or empty string and nil error if not found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", nil
		}
		dir = parent
	}
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if c.Limits.MaxNodes < 0 {
		return fmt.Errorf("%s: limits.max_nodes must not be negative", path)
	}
	if c.Limits.MaxTime < 0 {
		return fmt.Errorf("%s: limits.max_time must not be negative", path)
	}
	if c.Limits.MaxDepth < 0 {
		return fmt.Errorf("%s: limits.max_depth must not be negative", path)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%s: workers must not be negative", path)
	}
	switch c.ADF.Policy {
	case "precompute", "caching", "jit":
	default:
		return fmt.Errorf("%s: adf.policy %q is not one of precompute, caching, jit", path, c.ADF.Policy)
	}
	switch c.ADF.Recursion {
	case "forward", "no-self", "any":
	default:
		return fmt.Errorf("%s: adf.recursion %q is not one of forward, no-self, any", path, c.ADF.Recursion)
	}
	switch c.OnExceeded {
	case OnExceededInvalid:
		if c.Penalty != 0 {
			return fmt.Errorf("%s: penalty is only valid with on_exceeded: penalty", path)
		}
	case OnExceededPenalty:
	default:
		return fmt.Errorf("%s: on_exceeded %q is not one of invalid, penalty", path, c.OnExceeded)
	}
	for name := range c.Variables {
		if name == "" {
			return fmt.Errorf("%s: variables: empty variable name", path)
		}
	}
	return nil
}

// setDefaults fills in default values for omitted fields.
func (c *Config) setDefaults() {
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.ADF.Policy == "" {
		c.ADF.Policy = DefaultPolicy
	}
	if c.ADF.Recursion == "" {
		c.ADF.Recursion = DefaultRecurse
	}
	if c.OnExceeded == "" {
		c.OnExceeded = OnExceededInvalid
	}
}

// InterpLimits converts the limits for the interpreter.
func (c *Config) InterpLimits() interp.Limits {
	return interp.Limits{
		MaxNodes: c.Limits.MaxNodes,
		MaxTime:  c.Limits.MaxTime,
		MaxDepth: c.Limits.MaxDepth,
	}
}

// ArgPolicy returns the parsed ADF argument policy. The value was validated
// on load, so the error only fires for hand-built configs.
func (c *Config) ArgPolicy() (interp.ArgPolicy, error) {
	return interp.ParsePolicy(c.ADF.Policy)
}

func (c *Config) RecursionPolicy() (interp.RecursionPolicy, error) {
	return interp.ParseRecursion(c.ADF.Recursion)
}

// BindVariables copies the configured variables into ctx.
func (c *Config) BindVariables(ctx *interp.Context) {
	for name, v := range c.Variables {
		ctx.SetVar(name, interp.FloatVal(v))
	}
}
