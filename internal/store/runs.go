package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"emodccdl/internal/ccdl"
	"emodccdl/internal/depgraph"
	"emodccdl/internal/encode"
	"emodccdl/internal/logging"
)

// Run kinds.
const (
	KindEncode = "encode"
	KindGraph  = "graph"
)

// Run is one persisted compilation.
type Run struct {
	ID        uuid.UUID
	Kind      string
	Source    string
	CreatedAt time.Time
}

// StoredDiagnostic is a diagnostic as persisted; the wrapped error survives
// only as text in Message.
type StoredDiagnostic struct {
	Line     int
	Kind     string
	Severity string
	Message  string
}

// SaveEncode records an encode run: one row per parameter record plus its
// diagnostics.
func (s *Store) SaveEncode(ctx context.Context, source string, out encode.Output) (uuid.UUID, error) {
	timer := logging.StartTimer(logging.CategoryStore, "SaveEncode")
	defer timer.Stop()

	return s.withRun(ctx, KindEncode, source, out.Diagnostics, func(tx *sql.Tx, id string) error {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO records (run_id, line, iv_name, params) VALUES (?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare record insert: %w", err)
		}
		defer stmt.Close()

		for i := range out.Records {
			rec := &out.Records[i]
			params, err := json.Marshal(rec.Map())
			if err != nil {
				return fmt.Errorf("failed to marshal record %d: %w", rec.Line, err)
			}
			if _, err := stmt.ExecContext(ctx, id, rec.Line, rec.Name(), string(params)); err != nil {
				return fmt.Errorf("failed to store record %d: %w", rec.Line, err)
			}
		}
		return nil
	})
}

// SaveGraph records a graph run: its nodes, edges and diagnostics.
func (s *Store) SaveGraph(ctx context.Context, source string, g *depgraph.Graph) (uuid.UUID, error) {
	timer := logging.StartTimer(logging.CategoryStore, "SaveGraph")
	defer timer.Stop()

	return s.withRun(ctx, KindGraph, source, g.Diagnostics, func(tx *sql.Tx, id string) error {
		for _, n := range g.Nodes {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO graph_nodes (run_id, idx, label, color, shape, line) VALUES (?, ?, ?, ?, ?, ?)",
				id, n.Index, n.Label, n.Color, n.Shape, n.Line,
			); err != nil {
				return fmt.Errorf("failed to store node %d: %w", n.Index, err)
			}
		}
		for _, e := range g.Edges {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO graph_edges (run_id, from_idx, to_idx, signal) VALUES (?, ?, ?, ?)",
				id, e.From, e.To, e.Signal,
			); err != nil {
				return fmt.Errorf("failed to store edge %d -> %d: %w", e.From, e.To, err)
			}
		}
		return nil
	})
}

// withRun inserts the run row and its diagnostics, then calls fill, all in
// one transaction.
func (s *Store) withRun(ctx context.Context, kind, source string, diags ccdl.Diagnostics, fill func(*sql.Tx, string) error) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (id, kind, source) VALUES (?, ?, ?)", id.String(), kind, source,
	); err != nil {
		return uuid.Nil, fmt.Errorf("failed to store run: %w", err)
	}
	for seq, d := range diags {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO diagnostics (run_id, seq, line, kind, severity, message) VALUES (?, ?, ?, ?, ?, ?)",
			id.String(), seq, d.Index, d.Kind.String(), d.Severity.String(), d.Error(),
		); err != nil {
			return uuid.Nil, fmt.Errorf("failed to store diagnostic: %w", err)
		}
	}
	if err := fill(tx, id.String()); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to store %s run: %v", kind, err)
		return uuid.Nil, err
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit run: %w", err)
	}

	logging.Get(logging.CategoryStore).Info("Stored %s run %s (%d diagnostics)", kind, id, len(diags))
	return id, nil
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, kind, source, created_at FROM runs ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var id, created string
		if err := rows.Scan(&id, &r.Kind, &r.Source, &created); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.CreatedAt = parseTimestamp(created)
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("bad run id %q: %w", id, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// parseTimestamp accepts both SQLite's CURRENT_TIMESTAMP text and the
// RFC 3339 form the driver produces for DATETIME columns.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Records returns the sparse parameter mappings of an encode run in line order.
// Numbers decode as float64.
func (s *Store) Records(ctx context.Context, run uuid.UUID) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT params FROM records WHERE run_id = ? ORDER BY line", run.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var params string
		if err := rows.Scan(&params); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(params), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Graph reloads a graph run. Diagnostics are not part of the result; see
// Diagnostics.
func (s *Store) Graph(ctx context.Context, run uuid.UUID) (*depgraph.Graph, error) {
	g := &depgraph.Graph{}

	rows, err := s.db.QueryContext(ctx,
		"SELECT idx, label, color, shape, line FROM graph_nodes WHERE run_id = ? ORDER BY idx", run.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	for rows.Next() {
		var n depgraph.Node
		if err := rows.Scan(&n.Index, &n.Label, &n.Color, &n.Shape, &n.Line); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		g.Nodes = append(g.Nodes, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		"SELECT from_idx, to_idx, signal FROM graph_edges WHERE run_id = ? ORDER BY signal, from_idx, to_idx", run.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e depgraph.Edge
		if err := rows.Scan(&e.From, &e.To, &e.Signal); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		g.Edges = append(g.Edges, e)
	}
	return g, rows.Err()
}

// Diagnostics returns the diagnostics stored with a run, in original order.
func (s *Store) Diagnostics(ctx context.Context, run uuid.UUID) ([]StoredDiagnostic, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT line, kind, severity, message FROM diagnostics WHERE run_id = ? ORDER BY seq", run.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer rows.Close()

	var out []StoredDiagnostic
	for rows.Next() {
		var d StoredDiagnostic
		if err := rows.Scan(&d.Line, &d.Kind, &d.Severity, &d.Message); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
