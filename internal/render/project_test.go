// Package render owns the render engine lifecycle for a display surface.
// It projects graph records into engine elements and guards engine callbacks.
package render

import (
	"testing"

	"github.com/schemascope/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	t.Run("nodes first then edges", func(t *testing.T) {
		elements, report := Project(sampleGraph())

		require.Len(t, elements, 3)
		assert.True(t, elements[0].IsNode())
		assert.True(t, elements[1].IsNode())
		assert.True(t, elements[2].IsEdge())
		assert.Equal(t, "s1", elements[2].Data.Source)
		assert.True(t, report.Clean())
	})

	t.Run("style comes from the type table", func(t *testing.T) {
		elements, _ := Project(sampleGraph())

		assert.Equal(t, "#2196F3", elements[0].Style.Color)
		assert.Equal(t, "rectangle", elements[1].Style.Shape)
		assert.Equal(t, 60.0, elements[1].Style.Width)
		assert.Equal(t, "#666", elements[2].Style.Color)
		assert.Equal(t, 2.0, elements[2].Style.LineWidth)
	})

	t.Run("unknown types fall back", func(t *testing.T) {
		data := models.GraphData{
			Nodes: []models.GraphNode{{ID: "v", Type: "view"}, {ID: "w", Type: models.NodeTable}},
			Edges: []models.GraphEdge{{ID: "e", Source: "v", Target: "w", Type: "lineage"}},
		}

		elements, report := Project(data)

		assert.Equal(t, FallbackNodeStyle.Color, elements[0].Style.Color)
		assert.Equal(t, FallbackNodeStyle.Shape, elements[0].Style.Shape)
		assert.Equal(t, FallbackEdgeStyle.Arrow, elements[2].Style.Arrow)
		assert.Equal(t, []string{"v"}, report.UnknownNodeTypes)
	})

	t.Run("node hints override the table", func(t *testing.T) {
		data := models.GraphData{Nodes: []models.GraphNode{{
			ID: "t", Type: models.NodeTable, Color: "#000", Shape: "star",
			Size: &models.Size{Width: 10, Height: 20}, Position: &models.Position{X: 1, Y: 2},
		}}}

		elements, _ := Project(data)

		assert.Equal(t, "#000", elements[0].Style.Color)
		assert.Equal(t, "star", elements[0].Style.Shape)
		assert.Equal(t, 20.0, elements[0].Style.Height)
		assert.Equal(t, &models.Position{X: 1, Y: 2}, elements[0].Position)
	})

	t.Run("every known type has a table entry", func(t *testing.T) {
		for _, nt := range models.NodeTypes {
			_, ok := NodeStyles[nt]
			assert.True(t, ok, "node type %s", nt)
		}
		for _, et := range models.EdgeTypes {
			_, ok := EdgeStyles[et]
			assert.True(t, ok, "edge type %s", et)
		}
	})

	t.Run("foreign keys use the backcurve arrow", func(t *testing.T) {
		assert.Equal(t, "triangle-backcurve", EdgeStyleFor(models.EdgeForeignKey).Arrow)
	})
}

func TestConfig_ClampZoom(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.1, cfg.ClampZoom(0.01))
	assert.Equal(t, 3.0, cfg.ClampZoom(10))
	assert.Equal(t, 1.5, cfg.ClampZoom(1.5))
}
