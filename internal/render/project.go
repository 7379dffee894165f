// Package render owns the render engine lifecycle for a display surface.
// It projects graph records into engine elements and guards engine callbacks.
package render

import (
	"github.com/schemascope/core/internal/models"
	"github.com/schemascope/core/internal/parser"
)

// Project converts graph records into engine elements, nodes first, in input
// order. Duplicate ids and dangling edges never reach the engine; they are
// listed in the returned report.
func Project(data models.GraphData) ([]models.Element, parser.Report) {
	clean, report := parser.Sanitize(data)

	elements := make([]models.Element, 0, len(clean.Nodes)+len(clean.Edges))
	for _, n := range clean.Nodes {
		el := models.Element{
			Group: models.KindNode,
			Data: models.ElementData{
				ID:       n.ID,
				Label:    n.Label,
				Type:     string(n.Type),
				Metadata: n.Metadata,
			},
			Style: nodeStyle(n),
		}
		if n.Position != nil {
			pos := *n.Position
			el.Position = &pos
		}
		elements = append(elements, el)
	}

	for _, e := range clean.Edges {
		elements = append(elements, models.Element{
			Group: models.KindEdge,
			Data: models.ElementData{
				ID:       e.ID,
				Label:    e.Label,
				Type:     string(e.Type),
				Source:   e.Source,
				Target:   e.Target,
				Metadata: e.Metadata,
			},
			Style: edgeStyle(e),
		})
	}

	return elements, report
}
