// Package render owns the render engine lifecycle for a display surface.
// It projects graph records into engine elements and guards engine callbacks.
package render

import (
	"github.com/schemascope/core/internal/models"
)

type NodeStyle struct {
	Color  string
	Width  float64
	Height float64
	Shape  string
}

type EdgeStyle struct {
	Color string
	Width float64
	Arrow string
}

// NodeStyles maps a node type to its visual attributes. Adding a type is one
// line here.
var NodeStyles = map[models.NodeType]NodeStyle{
	models.NodeDatabase:   {Color: "#4CAF50", Width: 80, Height: 80, Shape: "round-rectangle"},
	models.NodeSchema:     {Color: "#2196F3", Width: 70, Height: 70, Shape: "round-rectangle"},
	models.NodeTable:      {Color: "#FF9800", Width: 60, Height: 60, Shape: "rectangle"},
	models.NodeColumn:     {Color: "#9C27B0", Width: 40, Height: 40, Shape: "ellipse"},
	models.NodeProcedure:  {Color: "#F44336", Width: 50, Height: 50, Shape: "triangle"},
	models.NodeConstraint: {Color: "#795548", Width: 35, Height: 35, Shape: "diamond"},
	models.NodeCSV:        {Color: "#00BCD4", Width: 55, Height: 55, Shape: "hexagon"},
	models.NodeXSD:        {Color: "#CDDC39", Width: 55, Height: 55, Shape: "octagon"},
	models.NodeAvro:       {Color: "#FF5722", Width: 55, Height: 55, Shape: "star"},
}

var FallbackNodeStyle = NodeStyle{Color: "#9E9E9E", Width: 50, Height: 50, Shape: "ellipse"}

var EdgeStyles = map[models.EdgeType]EdgeStyle{
	models.EdgeContains:     {Color: "#666", Width: 2, Arrow: "triangle"},
	models.EdgeRelationship: {Color: "#333", Width: 1, Arrow: "triangle"},
	models.EdgeForeignKey:   {Color: "#e91e63", Width: 3, Arrow: "triangle-backcurve"},
	models.EdgeReferences:   {Color: "#3f51b5", Width: 2, Arrow: "triangle"},
	models.EdgeDerivedFrom:  {Color: "#9c27b0", Width: 2, Arrow: "triangle"},
}

var FallbackEdgeStyle = EdgeStyle{Color: "#999", Width: 1, Arrow: "triangle"}

func NodeStyleFor(t models.NodeType) NodeStyle {
	if s, ok := NodeStyles[t]; ok {
		return s
	}
	return FallbackNodeStyle
}

func EdgeStyleFor(t models.EdgeType) EdgeStyle {
	if s, ok := EdgeStyles[t]; ok {
		return s
	}
	return FallbackEdgeStyle
}

// nodeStyle resolves the element style for a node. Per-node hints (color,
// shape, size) win over the type table.
func nodeStyle(n models.GraphNode) models.ElementStyle {
	s := NodeStyleFor(n.Type)
	style := models.ElementStyle{Color: s.Color, Width: s.Width, Height: s.Height, Shape: s.Shape}
	if n.Color != "" {
		style.Color = n.Color
	}
	if n.Shape != "" {
		style.Shape = n.Shape
	}
	if n.Size != nil {
		style.Width = n.Size.Width
		style.Height = n.Size.Height
	}
	return style
}

func edgeStyle(e models.GraphEdge) models.ElementStyle {
	s := EdgeStyleFor(e.Type)
	style := models.ElementStyle{Color: s.Color, LineWidth: s.Width, Arrow: s.Arrow}
	if e.Color != "" {
		style.Color = e.Color
	}
	return style
}
