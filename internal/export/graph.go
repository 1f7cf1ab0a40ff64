// Package export turns a DAG snapshot into the run outputs: frequency and
// edge-list tables, a Cytoscape graph page and a text tree.
package export

import (
	"sort"

	"github.com/alvmarrod/cite-weaver/internal/dag"
)

// Colors used for nodes without a tag and for mixed nodes
const (
	UntaggedColor = "#4A90D9"
	MixedColor    = "#7F8C8D"
)

var tagPalette = []string{
	"#E8923A", "#27AE60", "#9B59B6", "#E74C3C", "#1ABC9C",
	"#F1C40F", "#34495E", "#D35400", "#16A085", "#C0392B",
}

// GraphData contains all data needed to render the visualization.
type GraphData struct {
	RunID string `json:"run_id,omitempty"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is a paper in the rendered graph.
type Node struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
	Year   int    `json:"year,omitempty"`

	Depth     *int     `json:"depth,omitempty"`
	Frequency int      `json:"frequency"`
	Size      int      `json:"size"`
	Seed      bool     `json:"seed"`
	Tag       string   `json:"tag,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Mixed     bool     `json:"mixed"`
	Color     string   `json:"color"`
}

// Edge is a citation from Source (citing) to Target (cited).
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// IsEmpty returns true if the graph has no nodes.
func (g *GraphData) IsEmpty() bool {
	return len(g.Nodes) == 0
}

// BuildGraph converts a snapshot into GraphData. Tag colors are assigned in
// sorted tag order so repeated renders are stable.
func BuildGraph(runID string, snap *dag.Snapshot) *GraphData {
	colors := tagColors(snap)

	g := &GraphData{
		RunID: runID,
		Nodes: make([]Node, 0, len(snap.Nodes)),
		Edges: make([]Edge, 0, len(snap.Edges)),
	}

	for _, n := range snap.Nodes {
		node := Node{
			ID:        n.DOI,
			Label:     n.Name,
			Title:     n.Title,
			Author:    n.FirstAuthor,
			Year:      n.Year,
			Frequency: n.Frequency,
			Size:      n.Weight(),
			Seed:      n.IsSeed,
			Tag:       dag.DisplayTag(n.Tags),
			Tags:      n.Tags,
			Mixed:     n.Mixed(),
		}
		if n.HasDepth {
			d := n.Depth
			node.Depth = &d
		}
		switch {
		case node.Mixed:
			node.Color = MixedColor
		case node.Tag != "":
			node.Color = colors[node.Tag]
		default:
			node.Color = UntaggedColor
		}
		g.Nodes = append(g.Nodes, node)
	}

	for _, e := range snap.Edges {
		g.Edges = append(g.Edges, Edge{Source: e.Parent, Target: e.Child, Weight: e.Weight})
	}

	return g
}

func tagColors(snap *dag.Snapshot) map[string]string {
	seen := make(map[string]bool)
	var tags []string
	for _, ts := range snap.Tags {
		for _, t := range ts {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)

	colors := make(map[string]string, len(tags))
	for i, t := range tags {
		colors[t] = tagPalette[i%len(tagPalette)]
	}
	return colors
}
