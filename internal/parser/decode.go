// Package parser provides utilities for parsing and transforming input data.
// It handles data normalization, validation, and conversion between formats.
package parser

import (
	"encoding/json"
	"fmt"

	"github.com/schemascope/core/internal/models"
)

// ParseGraph decodes a graph document. It accepts either a bare
// {"nodes":[],"edges":[]} object or the discovery service's envelope with
// the graph under "data".
func ParseGraph(data []byte) (*models.GraphData, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty graph data")
	}

	var probe struct {
		Success   *bool              `json:"success"`
		Message   string             `json:"message"`
		ErrorCode string             `json:"errorCode"`
		Data      *models.GraphData  `json:"data"`
		Nodes     []models.GraphNode `json:"nodes"`
		Edges     []models.GraphEdge `json:"edges"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}

	if probe.Success != nil {
		env := models.Envelope[*models.GraphData]{
			Success:   *probe.Success,
			Message:   probe.Message,
			Data:      probe.Data,
			ErrorCode: probe.ErrorCode,
		}
		graph, err := env.Unwrap()
		if err != nil {
			return nil, err
		}
		if graph == nil {
			return nil, fmt.Errorf("invalid graph envelope: missing data field")
		}
		return withSlices(graph), nil
	}

	if probe.Nodes == nil && probe.Edges == nil {
		return nil, fmt.Errorf("invalid graph: missing nodes and edges fields")
	}

	return withSlices(&models.GraphData{Nodes: probe.Nodes, Edges: probe.Edges}), nil
}

// ParseEnvelope decodes an envelope and unwraps its payload.
func ParseEnvelope[T any](data []byte) (T, error) {
	var env models.Envelope[T]
	if len(data) == 0 {
		var zero T
		return zero, fmt.Errorf("empty response body")
	}
	if err := json.Unmarshal(data, &env); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	return env.Unwrap()
}

func withSlices(g *models.GraphData) *models.GraphData {
	if g.Nodes == nil {
		g.Nodes = []models.GraphNode{}
	}
	if g.Edges == nil {
		g.Edges = []models.GraphEdge{}
	}
	return g
}
