// Package batch evaluates many individuals concurrently. Every worker owns
// one interpreter Context; trees and primitives are shared read-only.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/funvibe/treegp/internal/config"
	"github.com/funvibe/treegp/internal/interp"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Status is the outcome of one evaluation.
type Status string

const (
	StatusOK       Status = "ok"
	StatusExceeded Status = "exceeded"
)

// Result is the outcome for one individual.
type Result struct {
	Individual string
	Index      int
	Status     Status
	// Value is the computed value, or the penalty when the budget ran out
	// under the penalty policy.
	Value interp.Value
	// Valid is false when the individual has no usable value.
	Valid bool
	Limit interp.Limit // set when Status is StatusExceeded
	Stats interp.Stats
}

// Options configures an Evaluator.
type Options struct {
	Limits    interp.Limits
	Workers   int
	Seed      int64
	Variables map[string]interp.Value
	// OnExceeded is config.OnExceededInvalid or config.OnExceededPenalty.
	OnExceeded string
	Penalty    float64
	Validate   bool
	Logger     *slog.Logger
}

// OptionsFromConfig maps a run configuration onto Options.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	vars := make(map[string]interp.Value, len(cfg.Variables))
	for name, v := range cfg.Variables {
		vars[name] = interp.FloatVal(v)
	}
	return Options{
		Limits:     cfg.InterpLimits(),
		Workers:    cfg.Workers,
		Seed:       cfg.Seed,
		Variables:  vars,
		OnExceeded: cfg.OnExceeded,
		Penalty:    cfg.Penalty,
		Validate:   cfg.Validate,
		Logger:     logger,
	}
}

// Evaluator runs batches of evaluations.
type Evaluator struct {
	opts  Options
	runID string
}

func New(opts Options) *Evaluator {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.OnExceeded == "" {
		opts.OnExceeded = config.OnExceededInvalid
	}
	return &Evaluator{opts: opts, runID: uuid.NewString()}
}

// RunID identifies this evaluator's results in logs and the journal.
func (e *Evaluator) RunID() string { return e.runID }

// Evaluate runs tree 0 of every individual. Budget exhaustion is folded into
// the individual's Result; any other failure stops the batch and is
// returned, together with the results completed so far.
func (e *Evaluator) Evaluate(ctx context.Context, inds []*interp.Individual) ([]Result, error) {
	results := make([]Result, len(inds))
	workers := e.opts.Workers
	if workers > len(inds) {
		workers = len(inds)
	}

	g, gctx := errgroup.WithContext(ctx)
	var next atomic.Int64
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			ic := interp.NewContext(e.opts.Limits, nil)
			ic.SetContext(gctx)
			ic.SetValidate(e.opts.Validate)
			if e.opts.Logger != nil {
				ic.SetLogger(e.opts.Logger)
			}
			for {
				i := int(next.Add(1) - 1)
				if i >= len(inds) {
					return nil
				}
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := e.evaluateOne(gctx, ic, i, inds[i])
				if err != nil {
					return err
				}
				results[i] = res
			}
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// EvaluateOne runs a single individual on a fresh Context.
func (e *Evaluator) EvaluateOne(ctx context.Context, ind *interp.Individual) (Result, error) {
	ic := interp.NewContext(e.opts.Limits, nil)
	ic.SetContext(ctx)
	ic.SetValidate(e.opts.Validate)
	if e.opts.Logger != nil {
		ic.SetLogger(e.opts.Logger)
	}
	return e.evaluateOne(ctx, ic, 0, ind)
}

func (e *Evaluator) evaluateOne(ctx context.Context, ic *interp.Context, i int, ind *interp.Individual) (Result, error) {
	// seeding per individual keeps results independent of scheduling
	ic.SetRand(interp.NewRand(e.opts.Seed + int64(i)))
	ic.SetVars(e.opts.Variables)

	val, err := ic.Run(ind, 0)
	res := Result{Individual: ind.ID, Index: i, Stats: ic.Stats()}

	var rerr *interp.ResourceError
	switch {
	case err == nil:
		res.Status = StatusOK
		res.Value = val
		res.Valid = true
	case errors.As(err, &rerr):
		if rerr.Limit == interp.LimitCancelled && ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Status = StatusExceeded
		res.Limit = rerr.Limit
		if e.opts.OnExceeded == config.OnExceededPenalty {
			res.Value = interp.FloatVal(e.opts.Penalty)
			res.Valid = true
		}
	default:
		if e.opts.Logger != nil {
			e.opts.Logger.Error("evaluation aborted",
				slog.String("run", e.runID),
				slog.String("individual", ind.ID),
				slog.Any("error", err))
		}
		return res, fmt.Errorf("individual %s: %w", ind.ID, err)
	}

	if e.opts.Logger != nil {
		e.opts.Logger.Debug("individual evaluated",
			slog.String("run", e.runID),
			slog.String("individual", ind.ID),
			slog.String("status", string(res.Status)),
			slog.String("value", res.Value.Inspect()),
			slog.Int64("nodes", res.Stats.NodesExecuted))
	}
	return res, nil
}
