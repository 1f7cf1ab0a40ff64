package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/alvmarrod/cite-weaver/internal/paper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRuns(t *testing.T) {
	store := newTestStorage(t)

	run, err := store.LatestRun()
	require.NoError(t, err)
	assert.Nil(t, run)

	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateRun("first", 50, t0))
	require.NoError(t, store.CreateRun("second", 80, t0.Add(time.Hour)))

	require.NoError(t, store.FinishRun("first", 50, "budget_exhausted"))
	assert.Error(t, store.FinishRun("missing", 1, "error"))

	run, err = store.GetRun("first")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 50, run.Steps)
	assert.Equal(t, "budget_exhausted", run.TerminationReason)
	assert.True(t, run.FinishedAt.Valid)

	run, err = store.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, "second", run.RunID)
	assert.False(t, run.FinishedAt.Valid)

	runs, err := store.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "second", runs[0].RunID)
	assert.Equal(t, "first", runs[1].RunID)

	missing, err := store.GetRun("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertNode_KeepsFirstDepth(t *testing.T) {
	store := newTestStorage(t)
	require.NoError(t, store.CreateRun("r", 1, time.Now()))

	row := NodeRow{
		RunID: "r", DOI: "10.1/a", Name: "Smith et al, 2020 (10.1/a)", Title: "A",
		FirstAuthor: "Smith", Year: 2020, Depth: sql.NullInt64{Int64: 2, Valid: true},
		Frequency: 1, Tags: []string{"x"}, Seq: 1,
	}
	require.NoError(t, store.UpsertNode(row))

	row.Depth = sql.NullInt64{Int64: 1, Valid: true}
	row.Frequency = 4
	row.Tags = nil
	require.NoError(t, store.UpsertNode(row))

	nodes, err := store.LoadNodes("r")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, int64(2), nodes[0].Depth.Int64)
	assert.Equal(t, 4, nodes[0].Frequency)
	assert.Empty(t, nodes[0].Tags)
	assert.Equal(t, "Smith", nodes[0].FirstAuthor)
}

func TestLoadNodes_OrderAndNullDepth(t *testing.T) {
	store := newTestStorage(t)
	require.NoError(t, store.CreateRun("r", 1, time.Now()))
	require.NoError(t, store.CreateRun("other", 1, time.Now()))

	require.NoError(t, store.UpsertNode(NodeRow{RunID: "r", DOI: "10.1/b", Name: "b", Seq: 2}))
	require.NoError(t, store.UpsertNode(NodeRow{RunID: "r", DOI: "10.1/a", Name: "a", Seq: 1, IsSeed: true,
		Depth: sql.NullInt64{Valid: true}}))
	require.NoError(t, store.UpsertNode(NodeRow{RunID: "other", DOI: "10.1/a", Name: "a", Seq: 1}))

	nodes, err := store.LoadNodes("r")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "10.1/a", nodes[0].DOI)
	assert.True(t, nodes[0].IsSeed)
	assert.True(t, nodes[0].Depth.Valid)
	assert.False(t, nodes[1].Depth.Valid)
}

func TestUpsertEdge(t *testing.T) {
	store := newTestStorage(t)
	require.NoError(t, store.CreateRun("r", 1, time.Now()))

	require.NoError(t, store.UpsertEdge(EdgeRow{RunID: "r", ParentDOI: "10.1/a", ChildDOI: "10.1/b"}))
	require.NoError(t, store.UpsertEdge(EdgeRow{RunID: "r", ParentDOI: "10.1/a", ChildDOI: "10.1/c", Weight: 2}))
	require.NoError(t, store.UpsertEdge(EdgeRow{RunID: "r", ParentDOI: "10.1/a", ChildDOI: "10.1/b", Weight: 5}))

	edges, err := store.LoadEdges("r")
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, "10.1/b", edges[0].ChildDOI)
	assert.Equal(t, 5, edges[0].Weight)
	assert.Equal(t, 2, edges[1].Weight)
}

func TestRecords(t *testing.T) {
	store := newTestStorage(t)

	rec, err := store.GetRecord("10.1/a")
	require.NoError(t, err)
	assert.Nil(t, rec)

	in := &paper.RawRecord{
		DOI:        "10.1/a",
		Titles:     []string{"Title"},
		Authors:    []paper.Author{{Given: "Jane", Family: "Doe"}},
		Year:       2019,
		References: []paper.Stub{{DOI: "10.1/b", Author: "Roe", Year: 2001}, {Title: "no doi"}},
	}
	require.NoError(t, store.PutRecord("10.1/a", in))
	require.NoError(t, store.PutRecord("10.1/a", in))

	out, err := store.GetRecord("10.1/a")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.Titles, out.Titles)
	assert.Equal(t, in.Authors, out.Authors)
	assert.Equal(t, in.References, out.References)
	assert.Equal(t, 2019, out.Year)

	n, err := store.CountRecords()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
