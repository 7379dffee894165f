// Package engine is the headless render engine behind the render adapter.
// It keeps element state, runs the force-directed layout and publishes frames.
package engine

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"

	"github.com/schemascope/core/internal/models"
)

type attrs map[string]string

func (a attrs) Attributes() []encoding.Attribute {
	out := make([]encoding.Attribute, 0, len(a))
	for _, k := range sortedKeys(a) {
		out = append(out, encoding.Attribute{Key: k, Value: a[k]})
	}
	return out
}

type dotGraph struct {
	*multi.DirectedGraph
	graph, node, edge attrs
}

func (g dotGraph) DOTAttributers() (graph, node, edge encoding.Attributer) {
	return g.graph, g.node, g.edge
}

type dotNode struct {
	id   int64
	name string
	attrs
}

func (n dotNode) ID() int64     { return n.id }
func (n dotNode) DOTID() string { return n.name }

type dotLine struct {
	multi.Line
	attrs
}

// marshalDOT writes the elements as a Graphviz digraph. Parallel edges are
// kept, one line each.
func marshalDOT(elements []models.Element) ([]byte, error) {
	g := dotGraph{
		DirectedGraph: multi.NewDirectedGraph(),
		graph:         attrs{"rankdir": "LR", "fontname": "Helvetica"},
		node:          attrs{"style": "filled", "fontname": "Helvetica"},
		edge:          attrs{"fontname": "Helvetica"},
	}

	nodes := make(map[string]dotNode)
	for _, el := range elements {
		if !el.IsNode() {
			continue
		}
		n := dotNode{
			id:   int64(len(nodes)),
			name: el.Data.ID,
			attrs: attrs{
				"label":     labelOr(el),
				"fillcolor": el.Style.Color,
				"shape":     dotShape(el.Style.Shape),
				"type":      el.Data.Type,
			},
		}
		nodes[el.Data.ID] = n
		g.AddNode(n)
	}

	var lineID int64
	for _, el := range elements {
		if !el.IsEdge() {
			continue
		}
		from, okFrom := nodes[el.Data.Source]
		to, okTo := nodes[el.Data.Target]
		if !okFrom || !okTo {
			continue
		}
		a := attrs{"color": el.Style.Color, "type": el.Data.Type}
		if el.Data.Label != "" {
			a["label"] = el.Data.Label
		}
		g.SetLine(dotLine{Line: multi.Line{F: from, T: to, UID: lineID}, attrs: a})
		lineID++
	}

	out, err := dot.MarshalMulti(g, "schemascope", "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dot: %w", err)
	}
	return out, nil
}

func labelOr(el models.Element) string {
	if el.Data.Label != "" {
		return el.Data.Label
	}
	return el.Data.ID
}

// dotShape maps element shapes onto Graphviz shape names.
func dotShape(shape string) string {
	switch strings.ToLower(shape) {
	case "rectangle", "round-rectangle":
		return "box"
	case "triangle", "diamond", "hexagon", "octagon", "ellipse", "star":
		return shape
	default:
		return "ellipse"
	}
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
