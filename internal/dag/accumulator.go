// Package dag accumulates the provenance graph discovered by a walk.
package dag

import (
	"sync"

	"github.com/alvmarrod/cite-weaver/internal/paper"
	"github.com/alvmarrod/cite-weaver/internal/walk"
	"github.com/sirupsen/logrus"
)

const (
	// MaxScoredFrequency caps the frequency contribution to node weight
	MaxScoredFrequency = 25
	// MaxScoredDepth caps the depth contribution to node weight
	MaxScoredDepth = 25
)

// Node is one distinct-DOI paper ever visited
type Node struct {
	DOI         string
	Name        string
	Title       string
	FirstAuthor string
	Year        int

	// Depth is valid only when HasDepth is set; it is assigned once
	Depth    int
	HasDepth bool

	Frequency int
	IsSeed    bool
	Tags      []string

	// Seq is the first-seen order, starting at 1
	Seq int
}

// Mixed reports whether the node matched more than one distinct tag
func (n Node) Mixed() bool { return len(n.Tags) > 1 }

// FrequencyScore is twice the capped visit frequency
func (n Node) FrequencyScore() int {
	return 2 * min(n.Frequency, MaxScoredFrequency)
}

// DepthScore is twice the capped depth, 0 when depth is unset
func (n Node) DepthScore() int {
	if !n.HasDepth {
		return 0
	}
	return 2 * min(n.Depth, MaxScoredDepth)
}

// Weight is the rendered node size
func (n Node) Weight() int { return n.FrequencyScore() + n.DepthScore() }

// Edge is a deduplicated citation edge; Weight counts traversals
type Edge struct {
	Parent string
	Child  string
	Weight int
}

type edgeKey struct {
	parent, child string
}

// Stats summarizes the accumulator
type Stats struct {
	Nodes            int
	Edges            int
	Seeds            int
	MaxDepth         int
	SkippedBackEdges int
}

// Accumulator holds the DAG in memory. It implements walk.Recorder.
type Accumulator struct {
	nodes     map[string]*Node // doi -> node
	order     []*Node
	edges     map[edgeKey]*Edge
	edgeOrder []*Edge
	vocab     *Vocabulary
	skipped   int
	mu        sync.RWMutex
}

var _ walk.Recorder = (*Accumulator)(nil)

// NewAccumulator creates an empty accumulator; vocab may be nil
func NewAccumulator(vocab *Vocabulary) *Accumulator {
	return &Accumulator{
		nodes: make(map[string]*Node),
		edges: make(map[edgeKey]*Edge),
		vocab: vocab,
	}
}

// ensure returns the node for p, creating it on first sight
func (a *Accumulator) ensure(p *paper.Paper) *Node {
	if n, ok := a.nodes[p.DOI()]; ok {
		return n
	}
	n := &Node{
		DOI:         p.DOI(),
		Name:        p.Name(),
		Title:       p.Title(),
		FirstAuthor: p.FirstAuthor(),
		Year:        p.Year(),
		Seq:         len(a.order) + 1,
	}
	n.Tags = a.vocab.Tags(n.Title)
	a.nodes[n.DOI] = n
	a.order = append(a.order, n)
	return n
}

// RecordSeed registers a seed paper at depth 0
func (a *Accumulator) RecordSeed(p *paper.Paper) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.ensure(p)
	n.IsSeed = true
	if !n.HasDepth {
		n.Depth = 0
		n.HasDepth = true
	}
}

// Record applies one completed walk step
func (a *Accumulator) Record(o walk.Outcome) {
	if o.Paper == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var parent *Node
	if o.Parent != nil {
		parent = a.ensure(o.Parent)
	}
	child := a.ensure(o.Paper)

	if !o.Restart && parent != nil {
		a.link(parent, child)
	}

	if !child.IsSeed {
		child.Frequency++
	}
	child.Tags = a.vocab.Tags(child.Title)
}

// link sets the child's depth if unset and records the edge. Edges that
// would point at an earlier-seen node are dropped to keep the graph acyclic.
func (a *Accumulator) link(parent, child *Node) {
	if !child.HasDepth && parent.HasDepth {
		child.Depth = parent.Depth + 1
		child.HasDepth = true
	}

	if child.Seq <= parent.Seq {
		a.skipped++
		logrus.WithFields(logrus.Fields{"parent": parent.DOI, "child": child.DOI}).
			Debug("Dropping back-edge")
		return
	}

	key := edgeKey{parent.DOI, child.DOI}
	if e, ok := a.edges[key]; ok {
		e.Weight++
		return
	}
	e := &Edge{Parent: parent.DOI, Child: child.DOI, Weight: 1}
	a.edges[key] = e
	a.edgeOrder = append(a.edgeOrder, e)
}

// Node returns a copy of the node for doi
func (a *Accumulator) Node(doi string) (Node, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n, ok := a.nodes[paper.NormalizeDOI(doi)]
	if !ok {
		return Node{}, false
	}
	return copyNode(n), true
}

// Stats returns current graph statistics
func (a *Accumulator) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	st := Stats{Nodes: len(a.order), Edges: len(a.edgeOrder), SkippedBackEdges: a.skipped}
	for _, n := range a.order {
		if n.IsSeed {
			st.Seeds++
		}
		if n.HasDepth && n.Depth > st.MaxDepth {
			st.MaxDepth = n.Depth
		}
	}
	return st
}

// Snapshot returns a deep copy of the graph. The accumulator is not modified.
func (a *Accumulator) Snapshot() *Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	nodes := make([]Node, 0, len(a.order))
	for _, n := range a.order {
		nodes = append(nodes, copyNode(n))
	}
	edges := make([]Edge, 0, len(a.edgeOrder))
	for _, e := range a.edgeOrder {
		edges = append(edges, *e)
	}
	return newSnapshot(nodes, edges)
}

func copyNode(n *Node) Node {
	c := *n
	if n.Tags != nil {
		c.Tags = append([]string(nil), n.Tags...)
	}
	return c
}
