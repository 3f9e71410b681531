// Package journal records evaluation outcomes in a SQLite database so that
// runs can be inspected and compared after the fact.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/funvibe/treegp/internal/batch"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS evaluations (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL,
	individual  TEXT NOT NULL,
	position    INTEGER NOT NULL,
	status      TEXT NOT NULL,
	valid       INTEGER NOT NULL,
	value       REAL,
	value_type  TEXT,
	limit_name  TEXT,
	nodes       INTEGER NOT NULL,
	elapsed_ns  INTEGER NOT NULL,
	max_depth   INTEGER NOT NULL,
	invocations INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS evaluations_run ON evaluations(run_id);
`

// Journal is an open evaluation journal.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Entry is one recorded evaluation.
type Entry struct {
	ID          string
	RunID       string
	Individual  string
	Position    int
	Status      batch.Status
	Valid       bool
	Value       sql.NullFloat64
	ValueType   string
	Limit       string
	Nodes       int64
	Elapsed     time.Duration
	MaxDepth    int
	Invocations int64
	CreatedAt   time.Time
}

// RunSummary aggregates the entries of one run.
type RunSummary struct {
	RunID     string
	Total     int
	OK        int
	Exceeded  int
	Nodes     int64
	StartedAt time.Time
}

// Open opens (creating if needed) the journal at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	// one writer; SQLite serializes anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: migrate %s: %w", path, err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

// Record stores the results of one run in a single transaction.
func (j *Journal) Record(ctx context.Context, runID string, results []batch.Result) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO evaluations
		(id, run_id, individual, position, status, valid, value, value_type, limit_name,
		 nodes, elapsed_ns, max_depth, invocations, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("journal: prepare: %w", err)
	}
	defer stmt.Close()

	created := j.now().UTC().Format(time.RFC3339Nano)
	for _, r := range results {
		var value sql.NullFloat64
		var valueType sql.NullString
		if r.Valid {
			value = sql.NullFloat64{Float64: r.Value.AsFloat(), Valid: true}
			valueType = sql.NullString{String: string(r.Value.TypeTag()), Valid: true}
		}
		valid := 0
		if r.Valid {
			valid = 1
		}
		var limit sql.NullString
		if r.Limit != "" {
			limit = sql.NullString{String: string(r.Limit), Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			uuid.NewString(), runID, r.Individual, r.Index, string(r.Status), valid,
			value, valueType, limit,
			r.Stats.NodesExecuted, int64(r.Stats.Elapsed), r.Stats.MaxDepth, r.Stats.Invocations,
			created)
		if err != nil {
			return fmt.Errorf("journal: insert %s: %w", r.Individual, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: commit: %w", err)
	}
	return nil
}

// Entries returns the entries of one run in batch order.
func (j *Journal) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT
		id, run_id, individual, position, status, valid, value, value_type, limit_name,
		nodes, elapsed_ns, max_depth, invocations, created_at
		FROM evaluations WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("journal: query run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			status    string
			valueType sql.NullString
			limit     sql.NullString
			elapsed   int64
			created   string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Individual, &e.Position, &status, &e.Valid,
			&e.Value, &valueType, &limit, &e.Nodes, &elapsed, &e.MaxDepth, &e.Invocations, &created); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.Status = batch.Status(status)
		e.ValueType = valueType.String
		e.Limit = limit.String
		e.Elapsed = time.Duration(elapsed)
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("journal: entry %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Runs summarizes every recorded run, oldest first.
func (j *Journal) Runs(ctx context.Context) ([]RunSummary, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT
		run_id,
		COUNT(*),
		SUM(CASE WHEN status = 'ok' THEN 1 ELSE 0 END),
		SUM(CASE WHEN status = 'exceeded' THEN 1 ELSE 0 END),
		SUM(nodes),
		MIN(created_at)
		FROM evaluations GROUP BY run_id ORDER BY MIN(created_at), run_id`)
	if err != nil {
		return nil, fmt.Errorf("journal: query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			s       RunSummary
			started string
		)
		if err := rows.Scan(&s.RunID, &s.Total, &s.OK, &s.Exceeded, &s.Nodes, &started); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		if s.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("journal: run %s: %w", s.RunID, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
