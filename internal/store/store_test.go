package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emodccdl/internal/depgraph"
	"emodccdl/internal/encode"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenMigrates(t *testing.T) {
	s := openMemory(t)
	assert.Equal(t, CurrentSchemaVersion, SchemaVersion(s.db))

	// Re-running is a no-op.
	require.NoError(t, migrate(s.db))
	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM schema_versions").Scan(&n))
	assert.Equal(t, len(migrations), n)
}

func TestOpenFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runs.db")
	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())
	require.NoError(t, s.Close())

	// Reopening an existing database keeps its version.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, CurrentSchemaVersion, SchemaVersion(s.db))
}

func TestSaveEncodeRoundTrip(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	out := encode.Encode([]string{
		"1 :: [1, 2] :: 50%/Female :: BroadcastEvent(Tested)",
		"bad line :: AllPlaces",
		"10(x3/_5) :: AllPlaces :: 100% :: Births->PMTCT(0.9)+BroadcastEvent(Done)",
	})
	require.Len(t, out.Records, 2)

	id, err := s.SaveEncode(ctx, "camp.ccdl", out)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	got, err := s.Records(ctx, id)
	require.NoError(t, err)
	want := []map[string]any{
		{
			"start_day": 1.0,
			"nodes":     []any{1.0, 2.0},
			"frac":      0.5,
			"sex":       "Female",
			"iv_name":   "BroadcastEvent",
			"payload":   "Tested",
		},
		{
			"start_day": 10.0,
			"reps":      3.0,
			"gap":       5.0,
			"nodes":     []any{},
			"frac":      1.0,
			"signal":    "Births",
			"iv_name":   []any{"PMTCT", "BroadcastEvent"},
			"payload":   []any{"0.9", "Done"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	diags, err := s.Diagnostics(ctx, id)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, 1, diags[0].Line)
	assert.Equal(t, "error", diags[0].Severity)
	assert.Equal(t, "structural_parse_error", diags[0].Kind)
}

func TestSaveGraphRoundTrip(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	g, err := depgraph.Build(ctx, []string{
		"1 :: AllPlaces :: 100% :: BroadcastEvent(A)",
		"1 :: AllPlaces :: 100% :: A->BroadcastEvent(B)",
		"1 :: AllPlaces :: 100% :: B->X",
	}, depgraph.Options{})
	require.NoError(t, err)

	id, err := s.SaveGraph(ctx, "camp.ccdl", g)
	require.NoError(t, err)

	loaded, err := s.Graph(ctx, id)
	require.NoError(t, err)
	if diff := cmp.Diff(g.Nodes, loaded.Nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(g.Edges, loaded.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestRunsNewestFirst(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	first, err := s.SaveEncode(ctx, "a.ccdl", encode.Output{})
	require.NoError(t, err)
	second, err := s.SaveGraph(ctx, "b.ccdl", &depgraph.Graph{})
	require.NoError(t, err)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, KindGraph, runs[0].Kind)
	assert.Equal(t, "b.ccdl", runs[0].Source)
	assert.Equal(t, first, runs[1].ID)
	assert.False(t, runs[1].CreatedAt.IsZero())
}

func TestUnknownRunIsEmpty(t *testing.T) {
	s := openMemory(t)
	recs, err := s.Records(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, recs)
}
