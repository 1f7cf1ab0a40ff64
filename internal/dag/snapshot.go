package dag

import "sort"

// Snapshot is a read-only copy of the accumulator handed to exporters
type Snapshot struct {
	Nodes []Node // first-seen order
	Edges []Edge // insertion order

	Frequency map[string]int
	Depth     map[string]int // only nodes with an assigned depth
	Tags      map[string][]string

	index    map[string]int
	children map[string][]string
}

func newSnapshot(nodes []Node, edges []Edge) *Snapshot {
	s := &Snapshot{
		Nodes:     nodes,
		Edges:     edges,
		Frequency: make(map[string]int, len(nodes)),
		Depth:     make(map[string]int, len(nodes)),
		Tags:      make(map[string][]string),
		index:     make(map[string]int, len(nodes)),
		children:  make(map[string][]string),
	}
	for i, n := range nodes {
		s.index[n.DOI] = i
		s.Frequency[n.DOI] = n.Frequency
		if n.HasDepth {
			s.Depth[n.DOI] = n.Depth
		}
		if len(n.Tags) > 0 {
			s.Tags[n.DOI] = n.Tags
		}
	}
	for _, e := range edges {
		s.children[e.Parent] = append(s.children[e.Parent], e.Child)
	}
	return s
}

// Node looks up a node by DOI
func (s *Snapshot) Node(doi string) (Node, bool) {
	i, ok := s.index[doi]
	if !ok {
		return Node{}, false
	}
	return s.Nodes[i], true
}

// Children returns the child DOIs of doi in edge order
func (s *Snapshot) Children(doi string) []string {
	return s.children[doi]
}

// Seeds returns the seed nodes in first-seen order
func (s *Snapshot) Seeds() []Node {
	var seeds []Node
	for _, n := range s.Nodes {
		if n.IsSeed {
			seeds = append(seeds, n)
		}
	}
	return seeds
}

// ByFrequency returns all nodes sorted by frequency descending, then DOI
func (s *Snapshot) ByFrequency() []Node {
	out := make([]Node, len(s.Nodes))
	copy(out, s.Nodes)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].DOI < out[j].DOI
	})
	return out
}

// Top returns the n most frequently visited non-seed nodes
func (s *Snapshot) Top(n int) []Node {
	var out []Node
	for _, node := range s.ByFrequency() {
		if len(out) == n {
			break
		}
		if node.IsSeed {
			continue
		}
		out = append(out, node)
	}
	return out
}
