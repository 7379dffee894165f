// Package parser provides utilities for parsing and transforming input data.
// It handles data normalization, validation, and conversion between formats.
package parser

import (
	"github.com/schemascope/core/internal/models"
)

// Report lists what Sanitize removed or flagged, in input order.
type Report struct {
	DuplicateNodes   []string `json:"duplicateNodes"`
	DuplicateEdges   []string `json:"duplicateEdges"`
	DanglingEdges    []string `json:"danglingEdges"`
	UnknownNodeTypes []string `json:"unknownNodeTypes"`
	UnknownEdgeTypes []string `json:"unknownEdgeTypes"`
}

func newReport() Report {
	return Report{
		DuplicateNodes:   []string{},
		DuplicateEdges:   []string{},
		DanglingEdges:    []string{},
		UnknownNodeTypes: []string{},
		UnknownEdgeTypes: []string{},
	}
}

// Dropped is the number of elements removed from the graph.
func (r Report) Dropped() int {
	return len(r.DuplicateNodes) + len(r.DuplicateEdges) + len(r.DanglingEdges)
}

func (r Report) Clean() bool {
	return r.Dropped() == 0 && len(r.UnknownNodeTypes) == 0 && len(r.UnknownEdgeTypes) == 0
}

// Sanitize enforces the GraphData invariants: unique node ids, unique edge
// ids, and edges whose endpoints exist. The first occurrence of a repeated id
// wins; dangling edges are dropped. Elements with unknown types are kept and
// reported. Nil metadata bags are replaced with empty ones. The input is not
// modified.
func Sanitize(data models.GraphData) (models.GraphData, Report) {
	report := newReport()
	out := models.GraphData{
		Nodes: make([]models.GraphNode, 0, len(data.Nodes)),
		Edges: make([]models.GraphEdge, 0, len(data.Edges)),
	}

	nodeMap := make(map[string]bool, len(data.Nodes))
	for _, node := range data.Nodes {
		if nodeMap[node.ID] {
			report.DuplicateNodes = append(report.DuplicateNodes, node.ID)
			continue
		}
		nodeMap[node.ID] = true

		if !node.Type.Valid() {
			report.UnknownNodeTypes = append(report.UnknownNodeTypes, node.ID)
		}
		node.Metadata = ensureMetadata(node.Metadata)
		out.Nodes = append(out.Nodes, node)
	}

	edgeMap := make(map[string]bool, len(data.Edges))
	for _, edge := range data.Edges {
		if edgeMap[edge.ID] {
			report.DuplicateEdges = append(report.DuplicateEdges, edge.ID)
			continue
		}
		edgeMap[edge.ID] = true

		if !nodeMap[edge.Source] || !nodeMap[edge.Target] {
			report.DanglingEdges = append(report.DanglingEdges, edge.ID)
			continue
		}

		if !edge.Type.Valid() {
			report.UnknownEdgeTypes = append(report.UnknownEdgeTypes, edge.ID)
		}
		edge.Metadata = ensureMetadata(edge.Metadata)
		out.Edges = append(out.Edges, edge)
	}

	return out, report
}

func ensureMetadata(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
