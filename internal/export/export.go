package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alvmarrod/cite-weaver/internal/dag"
	"github.com/sirupsen/logrus"
)

// Output file names inside the export directory
const (
	PapersFile = "papers.csv"
	EdgesFile  = "edges.csv"
	GraphJSON  = "graph.json"
	GraphHTML  = "graph.html"
	TreeFile   = "tree.txt"
)

// WriteAll renders every output for snap into dir and returns the written
// paths. It keeps going after a failed file and returns the first error.
func WriteAll(dir, runID string, snap *dag.Snapshot, opts HTMLOptions) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	graph := BuildGraph(runID, snap)

	renderers := []struct {
		name   string
		render func(*bytes.Buffer) error
	}{
		{PapersFile, func(b *bytes.Buffer) error { return WritePapers(b, snap) }},
		{EdgesFile, func(b *bytes.Buffer) error { return WriteEdges(b, snap) }},
		{GraphJSON, func(b *bytes.Buffer) error {
			data, err := json.MarshalIndent(graph, "", "  ")
			if err != nil {
				return err
			}
			b.Write(data)
			return nil
		}},
		{GraphHTML, func(b *bytes.Buffer) error {
			page, err := GenerateHTML(graph, opts)
			if err != nil {
				return err
			}
			b.WriteString(page)
			return nil
		}},
		{TreeFile, func(b *bytes.Buffer) error { return RenderTree(b, snap) }},
	}

	var written []string
	var firstErr error
	for _, r := range renderers {
		path := filepath.Join(dir, r.name)
		var buf bytes.Buffer
		err := r.render(&buf)
		if err == nil {
			err = os.WriteFile(path, buf.Bytes(), 0644)
		}
		if err != nil {
			logrus.Errorf("Failed to write %s: %v", path, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("writing %s: %w", r.name, err)
			}
			continue
		}
		written = append(written, path)
	}

	logrus.Infof("Exported %d files to %s", len(written), dir)
	return written, firstErr
}
