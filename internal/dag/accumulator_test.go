package dag

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/alvmarrod/cite-weaver/internal/paper"
	"github.com/alvmarrod/cite-weaver/internal/storage"
	"github.com/alvmarrod/cite-weaver/internal/walk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkPaper(t *testing.T, doi, title string) *paper.Paper {
	t.Helper()
	p, err := paper.New(&paper.RawRecord{
		DOI:     doi,
		Titles:  []string{title},
		Authors: []paper.Author{{Given: "Ada", Family: "Lovelace"}},
		Year:    2021,
	})
	require.NoError(t, err)
	return p
}

func step(kind walk.Kind, parent, child *paper.Paper, restart bool) walk.Outcome {
	return walk.Outcome{Kind: kind, Parent: parent, Paper: child, Restart: restart}
}

func TestRecord_NewPaperSetsDepthAndEdge(t *testing.T) {
	a := mkPaper(t, "10.1/a", "Seed")
	b := mkPaper(t, "10.1/b", "Child")

	acc := NewAccumulator(nil)
	acc.RecordSeed(a)
	acc.Record(step(walk.NewPaper, a, b, false))

	nb, ok := acc.Node("10.1/b")
	require.True(t, ok)
	assert.True(t, nb.HasDepth)
	assert.Equal(t, 1, nb.Depth)
	assert.Equal(t, 1, nb.Frequency)
	assert.False(t, nb.IsSeed)

	snap := acc.Snapshot()
	require.Len(t, snap.Edges, 1)
	assert.Equal(t, Edge{Parent: "10.1/a", Child: "10.1/b", Weight: 1}, snap.Edges[0])
}

func TestRecord_DepthSetOnce(t *testing.T) {
	a := mkPaper(t, "10.1/a", "Seed")
	b := mkPaper(t, "10.1/b", "B")
	c := mkPaper(t, "10.1/c", "C")
	d := mkPaper(t, "10.1/d", "D")

	acc := NewAccumulator(nil)
	acc.RecordSeed(a)
	acc.Record(step(walk.NewPaper, a, b, false))
	acc.Record(step(walk.NewPaper, b, c, false))
	acc.Record(step(walk.NewPaper, c, d, false))
	// d is later reached directly from the seed; its depth must not drop
	acc.Record(step(walk.PreviouslySeen, a, d, false))

	nd, _ := acc.Node("10.1/d")
	assert.Equal(t, 3, nd.Depth)
	assert.Equal(t, 2, nd.Frequency)
	assert.Len(t, acc.Snapshot().Edges, 4)
}

func TestRecord_EdgesDeduplicated(t *testing.T) {
	a := mkPaper(t, "10.1/a", "Seed")
	b := mkPaper(t, "10.1/b", "B")

	acc := NewAccumulator(nil)
	acc.RecordSeed(a)
	acc.Record(step(walk.NewPaper, a, b, false))
	acc.Record(step(walk.Restarted, b, a, true))
	acc.Record(step(walk.PreviouslySeen, a, b, false))
	acc.Record(step(walk.PreviouslySeen, a, b, false))

	snap := acc.Snapshot()
	require.Len(t, snap.Edges, 1)
	assert.Equal(t, 3, snap.Edges[0].Weight)
	assert.Equal(t, 3, snap.Frequency["10.1/b"])
}

func TestRecord_RestartAddsNoEdge(t *testing.T) {
	a := mkPaper(t, "10.1/a", "Seed")
	b := mkPaper(t, "10.1/b", "B")

	acc := NewAccumulator(nil)
	acc.RecordSeed(a)
	acc.RecordSeed(b)
	acc.Record(step(walk.InvalidReferences, a, b, true))
	acc.Record(step(walk.Restarted, b, a, true))

	st := acc.Stats()
	assert.Equal(t, 0, st.Edges)
	assert.Equal(t, 2, st.Seeds)
	// seeds never accumulate frequency
	assert.Equal(t, 0, acc.Snapshot().Frequency["10.1/a"])
	assert.Equal(t, 0, acc.Snapshot().Frequency["10.1/b"])
}

func TestRecord_RestartToNonSeedLeavesDepthUnset(t *testing.T) {
	a := mkPaper(t, "10.1/a", "Seed")
	x := mkPaper(t, "10.1/x", "X")

	acc := NewAccumulator(nil)
	acc.RecordSeed(a)
	acc.Record(step(walk.LowScoreRejected, a, x, true))

	nx, ok := acc.Node("10.1/x")
	require.True(t, ok)
	assert.False(t, nx.HasDepth)
	assert.Equal(t, 0, nx.DepthScore())
	assert.Equal(t, 1, nx.Frequency)
}

func TestRecord_BackEdgesDropped(t *testing.T) {
	a := mkPaper(t, "10.1/a", "Seed")
	b := mkPaper(t, "10.1/b", "B")

	acc := NewAccumulator(nil)
	acc.RecordSeed(a)
	acc.Record(step(walk.NewPaper, a, b, false))
	acc.Record(step(walk.PreviouslySeen, b, a, false)) // b cites a
	acc.Record(step(walk.PreviouslySeen, b, b, false)) // self-citation

	st := acc.Stats()
	assert.Equal(t, 1, st.Edges)
	assert.Equal(t, 2, st.SkippedBackEdges)
	assert.Equal(t, 1, st.MaxDepth)

	na, _ := acc.Node("10.1/a")
	assert.Equal(t, 0, na.Depth)
}

func TestRecord_Tags(t *testing.T) {
	vocab := NewVocabulary([]TagTerm{
		{Term: "Graph", Tag: "graphs"},
		{Term: "network", Tag: "graphs"},
		{Term: "Méthode", Tag: "methods"},
		{Term: "", Tag: "ignored"},
	})
	assert.Equal(t, 3, vocab.Len())

	a := mkPaper(t, "10.1/a", "Graph networks")
	b := mkPaper(t, "10.1/b", "A graph METHODE")
	c := mkPaper(t, "10.1/c", "Nothing to see")

	acc := NewAccumulator(vocab)
	acc.RecordSeed(a)
	acc.Record(step(walk.NewPaper, a, b, false))
	acc.Record(step(walk.NewPaper, b, c, false))

	snap := acc.Snapshot()
	assert.Equal(t, []string{"graphs"}, snap.Tags["10.1/a"])
	assert.Equal(t, []string{"graphs", "methods"}, snap.Tags["10.1/b"])
	assert.NotContains(t, snap.Tags, "10.1/c")

	nb, _ := snap.Node("10.1/b")
	assert.True(t, nb.Mixed())
	assert.Equal(t, MixedTag, DisplayTag(nb.Tags))
	assert.Equal(t, "graphs", DisplayTag(snap.Tags["10.1/a"]))
	assert.Equal(t, "", DisplayTag(nil))
}

func TestSnapshot_IsACopy(t *testing.T) {
	vocab := NewVocabulary([]TagTerm{{Term: "graph", Tag: "graphs"}})
	a := mkPaper(t, "10.1/a", "Graph seed")
	b := mkPaper(t, "10.1/b", "B")

	acc := NewAccumulator(vocab)
	acc.RecordSeed(a)
	acc.Record(step(walk.NewPaper, a, b, false))

	snap := acc.Snapshot()
	snap.Nodes[0].Tags[0] = "tampered"
	snap.Nodes[1].Frequency = 99
	snap.Edges[0].Weight = 99

	fresh := acc.Snapshot()
	assert.Equal(t, []string{"graphs"}, fresh.Nodes[0].Tags)
	assert.Equal(t, 1, fresh.Nodes[1].Frequency)
	assert.Equal(t, 1, fresh.Edges[0].Weight)
}

func TestNode_Weight(t *testing.T) {
	n := Node{Frequency: 3, Depth: 2, HasDepth: true}
	assert.Equal(t, 6, n.FrequencyScore())
	assert.Equal(t, 4, n.DepthScore())
	assert.Equal(t, 10, n.Weight())

	capped := Node{Frequency: 100, Depth: 40, HasDepth: true}
	assert.Equal(t, 100, capped.Weight())
}

func TestSnapshot_TopAndChildren(t *testing.T) {
	a := mkPaper(t, "10.1/a", "Seed")
	b := mkPaper(t, "10.1/b", "B")
	c := mkPaper(t, "10.1/c", "C")

	acc := NewAccumulator(nil)
	acc.RecordSeed(a)
	acc.Record(step(walk.NewPaper, a, b, false))
	acc.Record(step(walk.NewPaper, a, c, false))
	acc.Record(step(walk.PreviouslySeen, a, c, false))

	snap := acc.Snapshot()
	top := snap.Top(5)
	require.Len(t, top, 2)
	assert.Equal(t, "10.1/c", top[0].DOI)
	assert.Equal(t, "10.1/b", top[1].DOI)
	assert.Len(t, snap.Top(1), 1)

	assert.Equal(t, []string{"10.1/b", "10.1/c"}, snap.Children("10.1/a"))
	assert.Empty(t, snap.Children("10.1/b"))
	require.Len(t, snap.Seeds(), 1)
	assert.Equal(t, "10.1/a", snap.Seeds()[0].DOI)
}

func TestFlushAndLoad(t *testing.T) {
	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.CreateRun("run-1", 10, time.Now()))

	vocab := NewVocabulary([]TagTerm{{Term: "seed", Tag: "origin"}})
	a := mkPaper(t, "10.1/a", "Seed")
	b := mkPaper(t, "10.1/b", "B")
	x := mkPaper(t, "10.1/x", "X")

	acc := NewAccumulator(vocab)
	acc.RecordSeed(a)
	acc.Record(step(walk.NewPaper, a, b, false))
	acc.Record(step(walk.LowScoreRejected, b, x, true))
	acc.Record(step(walk.PreviouslySeen, a, b, false))
	require.NoError(t, acc.Flush(store, "run-1"))

	snap, err := LoadSnapshot(store, "run-1")
	require.NoError(t, err)

	want := acc.Snapshot()
	assert.Equal(t, want.Nodes, snap.Nodes)
	assert.Equal(t, want.Edges, snap.Edges)
	assert.Equal(t, want.Depth, snap.Depth)
	assert.Equal(t, want.Frequency, snap.Frequency)
	assert.Equal(t, want.Tags, snap.Tags)
}
