package dag

import (
	"database/sql"
	"time"

	"github.com/alvmarrod/cite-weaver/internal/storage"
	"github.com/sirupsen/logrus"
)

// Flush writes all in-memory nodes and edges of the run to SQLite storage
func (a *Accumulator) Flush(store *storage.Storage, runID string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	startTime := time.Now()
	logrus.Info("Starting flush to database...")

	nodesWritten := 0
	edgesWritten := 0
	var firstErr error

	for _, n := range a.order {
		if err := store.UpsertNode(nodeRow(runID, n)); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			logrus.Warnf("Failed to flush node %s: %v", n.DOI, err)
			continue
		}
		nodesWritten++
	}

	for _, e := range a.edgeOrder {
		row := storage.EdgeRow{RunID: runID, ParentDOI: e.Parent, ChildDOI: e.Child, Weight: e.Weight}
		if err := store.UpsertEdge(row); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			logrus.Warnf("Failed to flush edge %s->%s: %v", e.Parent, e.Child, err)
			continue
		}
		edgesWritten++
	}

	logrus.Infof("Flush complete: %d nodes, %d edges written in %v", nodesWritten, edgesWritten, time.Since(startTime))
	return firstErr
}

func nodeRow(runID string, n *Node) storage.NodeRow {
	row := storage.NodeRow{
		RunID:       runID,
		DOI:         n.DOI,
		Name:        n.Name,
		Title:       n.Title,
		FirstAuthor: n.FirstAuthor,
		Year:        n.Year,
		Frequency:   n.Frequency,
		IsSeed:      n.IsSeed,
		Tags:        n.Tags,
		Seq:         n.Seq,
	}
	if n.HasDepth {
		row.Depth = sql.NullInt64{Int64: int64(n.Depth), Valid: true}
	}
	return row
}

// SnapshotFromRows rebuilds a snapshot from persisted rows of one run
func SnapshotFromRows(nodes []storage.NodeRow, edges []storage.EdgeRow) *Snapshot {
	out := make([]Node, 0, len(nodes))
	for _, r := range nodes {
		n := Node{
			DOI:         r.DOI,
			Name:        r.Name,
			Title:       r.Title,
			FirstAuthor: r.FirstAuthor,
			Year:        r.Year,
			Frequency:   r.Frequency,
			IsSeed:      r.IsSeed,
			Tags:        r.Tags,
			Seq:         r.Seq,
		}
		if r.Depth.Valid {
			n.Depth = int(r.Depth.Int64)
			n.HasDepth = true
		}
		if len(n.Tags) == 0 {
			n.Tags = nil
		}
		out = append(out, n)
	}

	es := make([]Edge, 0, len(edges))
	for _, r := range edges {
		es = append(es, Edge{Parent: r.ParentDOI, Child: r.ChildDOI, Weight: r.Weight})
	}
	return newSnapshot(out, es)
}

// LoadSnapshot reads a stored run back into a snapshot
func LoadSnapshot(store *storage.Storage, runID string) (*Snapshot, error) {
	nodes, err := store.LoadNodes(runID)
	if err != nil {
		return nil, err
	}
	edges, err := store.LoadEdges(runID)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Loaded %d nodes and %d edges for run %s", len(nodes), len(edges), runID)
	return SnapshotFromRows(nodes, edges), nil
}
