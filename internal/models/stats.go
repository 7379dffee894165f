// Package models defines the core data structures shared by the console.
// It includes graph entities, filters, stats and the upstream API records.
package models

// GraphStats is derived from a GraphData and never mutated in place.
// Types that do not occur are absent from the breakdowns.
type GraphStats struct {
	TotalNodes        int              `json:"totalNodes"`
	TotalEdges        int              `json:"totalEdges"`
	NodeTypeBreakdown map[NodeType]int `json:"nodeTypeBreakdown"`
	EdgeTypeBreakdown map[EdgeType]int `json:"edgeTypeBreakdown"`
}

func ComputeStats(data GraphData) GraphStats {
	stats := GraphStats{
		TotalNodes:        len(data.Nodes),
		TotalEdges:        len(data.Edges),
		NodeTypeBreakdown: make(map[NodeType]int),
		EdgeTypeBreakdown: make(map[EdgeType]int),
	}

	for _, n := range data.Nodes {
		stats.NodeTypeBreakdown[n.Type]++
	}
	for _, e := range data.Edges {
		stats.EdgeTypeBreakdown[e.Type]++
	}

	return stats
}
