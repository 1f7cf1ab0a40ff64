package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/alvmarrod/cite-weaver/internal/dag"
)

// PapersHeader is the header of the frequency table
var PapersHeader = []string{"DOI", "title", "first_author", "times_seen"}

// EdgesHeader is the header of the edge list
var EdgesHeader = []string{"parent.doi", "parent.author", "parent.year", "child.doi", "child.author", "child.year"}

// WritePapers writes every node sorted by visit frequency descending, then DOI
func WritePapers(w io.Writer, snap *dag.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(PapersHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, n := range snap.ByFrequency() {
		row := []string{n.DOI, n.Title, n.FirstAuthor, strconv.Itoa(n.Frequency)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", n.DOI, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEdges writes one row per deduplicated edge in discovery order
func WriteEdges(w io.Writer, snap *dag.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(EdgesHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, e := range snap.Edges {
		parent, ok := snap.Node(e.Parent)
		if !ok {
			return fmt.Errorf("edge references unknown node %s", e.Parent)
		}
		child, ok := snap.Node(e.Child)
		if !ok {
			return fmt.Errorf("edge references unknown node %s", e.Child)
		}
		row := []string{
			parent.DOI, parent.FirstAuthor, yearString(parent.Year),
			child.DOI, child.FirstAuthor, yearString(child.Year),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing edge %s->%s: %w", e.Parent, e.Child, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func yearString(y int) string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(y)
}
