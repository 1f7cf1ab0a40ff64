package export

import (
	"bytes"
	"fmt"
	"html/template"
)

var compiledTemplate = template.Must(template.New("graph").Parse(htmlTemplate))

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Layout string // "force", "circle", "grid" or "breadthfirst"
	Title  string
}

// DefaultOptions returns default HTML generation options.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{Layout: "force", Title: "Citation walk"}
}

// ValidLayouts lists the supported layout algorithm names.
var ValidLayouts = []string{"force", "circle", "grid", "breadthfirst"}

// ValidateLayout checks if the layout option is valid.
func ValidateLayout(layout string) error {
	switch layout {
	case "", "force", "circle", "grid", "breadthfirst":
		return nil
	default:
		return fmt.Errorf("invalid layout %q: must be force, circle, grid, or breadthfirst", layout)
	}
}

// layoutToCytoscape converts layout names to Cytoscape.js algorithm names.
func layoutToCytoscape(layout string) string {
	switch layout {
	case "circle", "grid", "breadthfirst":
		return layout
	default:
		return "cose"
	}
}

type templateData struct {
	Title     string
	GraphJSON template.JS
	Layout    string
	Empty     bool
}

// GenerateHTML generates a self-contained HTML page for the graph.
func GenerateHTML(graph *GraphData, opts HTMLOptions) (string, error) {
	if graph == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}
	if err := ValidateLayout(opts.Layout); err != nil {
		return "", err
	}
	if opts.Title == "" {
		opts.Title = DefaultOptions().Title
	}

	graphJSON, err := graph.ToCytoscapeJSON()
	if err != nil {
		return "", err
	}

	data := templateData{
		Title:     opts.Title,
		GraphJSON: template.JS(graphJSON),
		Layout:    layoutToCytoscape(opts.Layout),
		Empty:     graph.IsEmpty(),
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <script src="https://unpkg.com/cytoscape@3/dist/cytoscape.min.js"></script>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 0;
      background: #f5f5f5;
    }
    #cy {
      width: 100%;
      height: 100vh;
      background: white;
    }
    #tooltip {
      position: absolute;
      display: none;
      background: white;
      border: 1px solid #ccc;
      border-radius: 4px;
      padding: 8px 12px;
      box-shadow: 0 2px 8px rgba(0,0,0,0.15);
      max-width: 320px;
      font-size: 13px;
      z-index: 1000;
      pointer-events: none;
    }
    #tooltip .label { font-weight: bold; margin-bottom: 4px; }
    #tooltip .detail { color: #555; margin: 2px 0; }
    .empty-state { text-align: center; color: #666; padding-top: 40vh; }
  </style>
</head>
<body>
{{if .Empty}}
  <div class="empty-state"><h2>No papers discovered</h2></div>
{{else}}
  <div id="cy"></div>
  <div id="tooltip"></div>
  <script>
    (function() {
      const graphData = {{.GraphJSON}};
      const layout = "{{.Layout}}";

      const cy = cytoscape({
        container: document.getElementById('cy'),
        elements: graphData,
        style: [
          {
            selector: 'node',
            style: {
              'background-color': 'data(color)',
              'label': 'data(label)',
              'color': '#333',
              'font-size': '9px',
              'text-valign': 'bottom',
              'text-margin-y': '4px',
              'width': 'mapData(size, 0, 100, 18, 70)',
              'height': 'mapData(size, 0, 100, 18, 70)'
            }
          },
          {
            selector: 'node[?seed]',
            style: {
              'shape': 'star',
              'border-width': 2,
              'border-color': '#333'
            }
          },
          {
            selector: 'edge',
            style: {
              'line-color': '#95A5A6',
              'target-arrow-color': '#95A5A6',
              'target-arrow-shape': 'triangle',
              'curve-style': 'bezier',
              'width': 'mapData(weight, 1, 10, 1, 5)'
            }
          },
          { selector: 'node.highlighted', style: { 'border-width': 3, 'border-color': '#ff6b6b' } },
          { selector: 'node.dimmed', style: { 'opacity': 0.3 } },
          { selector: 'edge.dimmed', style: { 'opacity': 0.2 } }
        ],
        layout: { name: 'preset' }
      });

      const seeds = cy.nodes('[?seed]');
      cy.layout({
        name: layout,
        animate: false,
        directed: true,
        roots: seeds.length > 0 ? seeds : undefined,
        nodeRepulsion: 8000,
        idealEdgeLength: 100,
        edgeElasticity: 100
      }).run();

      const tooltip = document.getElementById('tooltip');

      function escapeHtml(str) {
        if (!str) return '';
        return String(str).replace(/&/g, '&amp;')
                  .replace(/</g, '&lt;')
                  .replace(/>/g, '&gt;')
                  .replace(/"/g, '&quot;');
      }

      function nodeTooltip(node) {
        const d = node.data();
        let html = '<div class="label">' + escapeHtml(d.label) + '</div>';
        if (d.title) html += '<div class="detail">' + escapeHtml(d.title) + '</div>';
        html += '<div class="detail">Seen: ' + d.frequency + '</div>';
        if (d.depth !== undefined) html += '<div class="detail">Depth: ' + d.depth + '</div>';
        if (d.tags && d.tags.length > 0) html += '<div class="detail">Tags: ' + d.tags.map(escapeHtml).join(', ') + '</div>';
        return html;
      }

      cy.on('mouseover', 'node', function(evt) {
        tooltip.innerHTML = nodeTooltip(evt.target);
        tooltip.style.display = 'block';
        const pos = evt.renderedPosition || evt.position;
        tooltip.style.left = (pos.x + 15) + 'px';
        tooltip.style.top = (pos.y + 15) + 'px';
      });

      cy.on('mouseout', 'node', function() {
        tooltip.style.display = 'none';
      });

      cy.on('tap', 'node', function(evt) {
        const neighborhood = evt.target.neighborhood().add(evt.target);
        cy.elements().removeClass('highlighted dimmed');
        neighborhood.addClass('highlighted');
        cy.elements().not(neighborhood).addClass('dimmed');
      });

      cy.on('tap', function(evt) {
        if (evt.target === cy) {
          cy.elements().removeClass('highlighted dimmed');
        }
      });
    })();
  </script>
{{end}}
</body>
</html>`
