package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/funvibe/treegp/internal/batch"
	"github.com/funvibe/treegp/internal/interp"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleResults() []batch.Result {
	return []batch.Result{
		{
			Individual: "a", Index: 0, Status: batch.StatusOK, Valid: true,
			Value: interp.IntVal(7),
			Stats: interp.Stats{NodesExecuted: 5, Elapsed: time.Millisecond, MaxDepth: 3},
		},
		{
			Individual: "b", Index: 1, Status: batch.StatusExceeded,
			Limit: interp.LimitNodes,
			Stats: interp.Stats{NodesExecuted: 100, MaxDepth: 9, Invocations: 4},
		},
		{
			Individual: "c", Index: 2, Status: batch.StatusExceeded, Valid: true,
			Value: interp.FloatVal(1e6), Limit: interp.LimitTime,
			Stats: interp.Stats{NodesExecuted: 40},
		},
	}
}

func TestRecordAndEntries(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()

	if err := j.Record(ctx, "run-1", sampleResults()); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	entries, err := j.Entries(ctx, "run-1")
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("want 3 entries, got %d", len(entries))
	}

	a, b, c := entries[0], entries[1], entries[2]
	if a.Individual != "a" || a.Status != batch.StatusOK || !a.Valid {
		t.Errorf("entry a: %+v", a)
	}
	if !a.Value.Valid || a.Value.Float64 != 7 || a.ValueType != "int" {
		t.Errorf("entry a value: %+v / %s", a.Value, a.ValueType)
	}
	if a.Elapsed != time.Millisecond || a.Nodes != 5 || a.MaxDepth != 3 {
		t.Errorf("entry a stats: %+v", a)
	}
	if b.Valid || b.Value.Valid || b.Limit != "nodes" || b.Invocations != 4 {
		t.Errorf("entry b: %+v", b)
	}
	if !c.Valid || c.Value.Float64 != 1e6 || c.Limit != "time" {
		t.Errorf("entry c: %+v", c)
	}
	if a.ID == b.ID || a.CreatedAt.IsZero() {
		t.Errorf("entries need distinct ids and a timestamp")
	}

	other, err := j.Entries(ctx, "run-2")
	if err != nil || len(other) != 0 {
		t.Errorf("unknown run: got %v, %v", other, err)
	}
}

func TestRuns(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return base }
	if err := j.Record(ctx, "first", sampleResults()); err != nil {
		t.Fatal(err)
	}
	j.now = func() time.Time { return base.Add(time.Hour) }
	if err := j.Record(ctx, "second", sampleResults()[:1]); err != nil {
		t.Fatal(err)
	}

	runs, err := j.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("want 2 runs, got %d", len(runs))
	}
	first, second := runs[0], runs[1]
	if first.RunID != "first" || first.Total != 3 || first.OK != 1 || first.Exceeded != 2 || first.Nodes != 145 {
		t.Errorf("first run: %+v", first)
	}
	if !first.StartedAt.Equal(base) {
		t.Errorf("first run started at %s", first.StartedAt)
	}
	if second.RunID != "second" || second.Total != 1 || second.Exceeded != 0 {
		t.Errorf("second run: %+v", second)
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Record(context.Background(), "run", sampleResults()); err != nil {
		t.Fatal(err)
	}
	j.Close()

	j, err = Open(path)
	if err != nil {
		t.Fatalf("reopening failed: %v", err)
	}
	defer j.Close()
	entries, err := j.Entries(context.Background(), "run")
	if err != nil || len(entries) != 3 {
		t.Errorf("entries lost on reopen: %d, %v", len(entries), err)
	}
}
