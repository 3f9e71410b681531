package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/funvibe/treegp/internal/config"
	"github.com/funvibe/treegp/internal/interp"
	"github.com/funvibe/treegp/internal/primitives"
)

func constInt(n int64) interp.Primitive { return primitives.NewConst(interp.IntVal(n)) }

// sumOf returns an individual computing n + (n-1) + ... + 0 with 2n+1 nodes.
func sumOf(n int64) *interp.Individual {
	var prims []interp.Primitive
	for k := n; k > 0; k-- {
		prims = append(prims, primitives.Add(), constInt(k))
	}
	prims = append(prims, constInt(0))
	return interp.NewIndividual(fmt.Sprintf("sum%d", n), interp.MustBuild("main", 0, prims...))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEvaluate(t *testing.T) {
	var inds []*interp.Individual
	for n := int64(0); n < 50; n++ {
		inds = append(inds, sumOf(n))
	}
	ev := New(Options{Workers: 4, Logger: quietLogger()})

	results, err := ev.Evaluate(context.Background(), inds)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(results) != len(inds) {
		t.Fatalf("want %d results, got %d", len(inds), len(results))
	}
	for i, r := range results {
		n := int64(i)
		if r.Status != StatusOK || !r.Valid || r.Index != i || r.Individual != inds[i].ID {
			t.Fatalf("result %d: unexpected %+v", i, r)
		}
		if r.Value.AsInt() != n*(n+1)/2 {
			t.Errorf("result %d: want %d, got %s", i, n*(n+1)/2, r.Value.Inspect())
		}
		if r.Stats.NodesExecuted != 2*n+1 {
			t.Errorf("result %d: nodes %d, want %d", i, r.Stats.NodesExecuted, 2*n+1)
		}
	}
	if ev.RunID() == "" {
		t.Errorf("missing run id")
	}
}

func TestEvaluateExceeded(t *testing.T) {
	inds := []*interp.Individual{sumOf(1), sumOf(10), sumOf(2)}
	tests := []struct {
		name       string
		onExceeded string
		wantValid  bool
	}{
		{"invalid", config.OnExceededInvalid, false},
		{"penalty", config.OnExceededPenalty, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := New(Options{
				Limits:     interp.Limits{MaxNodes: 5},
				Workers:    2,
				OnExceeded: tt.onExceeded,
				Penalty:    1e6,
			})
			results, err := ev.Evaluate(context.Background(), inds)
			if err != nil {
				t.Fatalf("budget exhaustion must not fail the batch: %v", err)
			}
			if results[0].Status != StatusOK || results[2].Status != StatusOK {
				t.Errorf("small individuals should fit the budget: %+v", results)
			}
			r := results[1]
			if r.Status != StatusExceeded || r.Limit != interp.LimitNodes {
				t.Fatalf("want an exceeded node budget, got %+v", r)
			}
			if r.Valid != tt.wantValid {
				t.Errorf("valid: want %t, got %t", tt.wantValid, r.Valid)
			}
			if tt.wantValid && r.Value.AsFloat() != 1e6 {
				t.Errorf("penalty value: got %s", r.Value.Inspect())
			}
			if r.Stats.NodesExecuted != 5 {
				t.Errorf("nodes: want 5, got %d", r.Stats.NodesExecuted)
			}
		})
	}
}

func TestEvaluateFatal(t *testing.T) {
	broken := interp.NewIndividual("broken", interp.MustBuild("main", 0, interp.NewArgument(0)))
	inds := []*interp.Individual{sumOf(3), broken, sumOf(4)}

	ev := New(Options{Workers: 1, Logger: quietLogger()})
	_, err := ev.Evaluate(context.Background(), inds)
	if !errors.Is(err, interp.ErrStructural) {
		t.Fatalf("expected the structural error to abort the batch, got %v", err)
	}
}

func TestEvaluateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev := New(Options{Workers: 2})
	_, err := ev.Evaluate(ctx, []*interp.Individual{sumOf(3), sumOf(4)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	randInd := interp.NewIndividual("rand", interp.MustBuild("main", 0, primitives.Rand()))
	inds := []*interp.Individual{randInd, randInd, randInd, randInd}

	first, err := New(Options{Workers: 4, Seed: 11}).Evaluate(context.Background(), inds)
	if err != nil {
		t.Fatal(err)
	}
	second, err := New(Options{Workers: 1, Seed: 11}).Evaluate(context.Background(), inds)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if !first[i].Value.Equals(second[i].Value) {
			t.Errorf("result %d depends on scheduling: %s vs %s", i, first[i].Value.Inspect(), second[i].Value.Inspect())
		}
	}
	if first[0].Value.Equals(first[1].Value) {
		t.Errorf("individuals share a random stream")
	}
}

func TestEvaluateOneWithVariables(t *testing.T) {
	cfg := config.Default()
	cfg.Variables = map[string]float64{"x": 2.5}
	ev := New(OptionsFromConfig(cfg, nil))

	ind := interp.NewIndividual("var", interp.MustBuild("main", 0,
		primitives.Mul(), primitives.NewVar("x", interp.TypeFloat), constInt(2)))
	r, err := ev.EvaluateOne(context.Background(), ind)
	if err != nil {
		t.Fatalf("EvaluateOne failed: %v", err)
	}
	if r.Value.AsFloat() != 5 {
		t.Errorf("want 5, got %s", r.Value.Inspect())
	}
}

func TestEvaluateEmpty(t *testing.T) {
	results, err := New(Options{}).Evaluate(context.Background(), nil)
	if err != nil || len(results) != 0 {
		t.Errorf("empty batch: got %v, %v", results, err)
	}
}
