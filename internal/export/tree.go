package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/alvmarrod/cite-weaver/internal/dag"
)

// RenderTree prints each seed as a root with its discovered descendants.
// A node reached a second time is printed with a (*) marker and not expanded
// again, which keeps the output linear in the number of edges.
func RenderTree(w io.Writer, snap *dag.Snapshot) error {
	bw := bufio.NewWriter(w)
	expanded := make(map[string]bool)

	var walk func(doi, prefix string)
	walk = func(doi, prefix string) {
		children := snap.Children(doi)
		for i, child := range children {
			connector, indent := "├── ", "│   "
			if i == len(children)-1 {
				connector, indent = "└── ", "    "
			}
			fmt.Fprintf(bw, "%s%s%s", prefix, connector, label(snap, child))
			if expanded[child] {
				fmt.Fprintln(bw, " (*)")
				continue
			}
			fmt.Fprintln(bw)
			expanded[child] = true
			walk(child, prefix+indent)
		}
	}

	for _, seed := range snap.Seeds() {
		fmt.Fprintln(bw, seed.Name)
		expanded[seed.DOI] = true
		walk(seed.DOI, "")
	}

	return bw.Flush()
}

func label(snap *dag.Snapshot, doi string) string {
	if n, ok := snap.Node(doi); ok {
		return n.Name
	}
	return doi
}
