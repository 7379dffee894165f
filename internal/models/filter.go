// Package models defines the core data structures shared by the console.
// It includes graph entities, filters, stats and the upstream API records.
package models

import "strings"

// SearchFilter drives the highlighted/dimmed visual state. Empty type sets
// mean "no restriction". Properties is reserved and always empty for now.
type SearchFilter struct {
	Query      string     `json:"query"`
	NodeTypes  []NodeType `json:"nodeTypes"`
	EdgeTypes  []EdgeType `json:"edgeTypes"`
	Properties []string   `json:"properties"`
}

// Normalize trims the query and replaces nil slices with empty ones.
func (f SearchFilter) Normalize() SearchFilter {
	out := SearchFilter{
		Query:      strings.TrimSpace(f.Query),
		NodeTypes:  f.NodeTypes,
		EdgeTypes:  f.EdgeTypes,
		Properties: []string{},
	}
	if out.NodeTypes == nil {
		out.NodeTypes = []NodeType{}
	}
	if out.EdgeTypes == nil {
		out.EdgeTypes = []EdgeType{}
	}
	return out
}

// Active is false when query, node types and edge types are all empty.
func (f SearchFilter) Active() bool {
	return strings.TrimSpace(f.Query) != "" || len(f.NodeTypes) > 0 || len(f.EdgeTypes) > 0
}
