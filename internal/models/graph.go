// Package models defines the core data structures shared by the console.
// It includes graph entities, filters, stats and the upstream API records.
package models

import (
	"slices"
)

type NodeType string

const (
	NodeDatabase   NodeType = "database"
	NodeSchema     NodeType = "schema"
	NodeTable      NodeType = "table"
	NodeColumn     NodeType = "column"
	NodeProcedure  NodeType = "procedure"
	NodeConstraint NodeType = "constraint"
	NodeCSV        NodeType = "csv"
	NodeXSD        NodeType = "xsd"
	NodeAvro       NodeType = "avro"
)

// NodeTypes lists every known node type in display order.
var NodeTypes = []NodeType{
	NodeDatabase, NodeSchema, NodeTable, NodeColumn, NodeProcedure,
	NodeConstraint, NodeCSV, NodeXSD, NodeAvro,
}

func (t NodeType) Valid() bool {
	return slices.Contains(NodeTypes, t)
}

type EdgeType string

const (
	EdgeRelationship EdgeType = "relationship"
	EdgeForeignKey   EdgeType = "foreign_key"
	EdgeContains     EdgeType = "contains"
	EdgeReferences   EdgeType = "references"
	EdgeDerivedFrom  EdgeType = "derived_from"
)

// EdgeTypes lists every known edge type in display order.
var EdgeTypes = []EdgeType{
	EdgeRelationship, EdgeForeignKey, EdgeContains, EdgeReferences, EdgeDerivedFrom,
}

func (t EdgeType) Valid() bool {
	return slices.Contains(EdgeTypes, t)
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type GraphNode struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Type     NodeType       `json:"type"`
	Metadata map[string]any `json:"metadata"`
	Position *Position      `json:"position,omitempty"`
	Size     *Size          `json:"size,omitempty"`
	Color    string         `json:"color,omitempty"`
	Shape    string         `json:"shape,omitempty"`
}

type GraphEdge struct {
	ID       string         `json:"id"`
	Source   string         `json:"source"`
	Target   string         `json:"target"`
	Type     EdgeType       `json:"type"`
	Label    string         `json:"label,omitempty"`
	Metadata map[string]any `json:"metadata"`
	Color    string         `json:"color,omitempty"`
	Style    string         `json:"style,omitempty"`
}

// GraphData is the wholesale graph payload produced by the discovery service.
// Values are treated as immutable once handed to a viewer.
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Empty returns a graph with non-nil, zero-length slices so it encodes as
// {"nodes":[],"edges":[]}.
func Empty() GraphData {
	return GraphData{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
}

func (g GraphData) IsEmpty() bool {
	return len(g.Nodes) == 0 && len(g.Edges) == 0
}

// Index is an id lookup table over a GraphData. When ids repeat, the first
// occurrence wins.
type Index struct {
	nodes map[string]int
	edges map[string]int
	data  GraphData
}

func (g GraphData) Index() *Index {
	idx := &Index{
		nodes: make(map[string]int, len(g.Nodes)),
		edges: make(map[string]int, len(g.Edges)),
		data:  g,
	}
	for i, n := range g.Nodes {
		if _, exists := idx.nodes[n.ID]; !exists {
			idx.nodes[n.ID] = i
		}
	}
	for i, e := range g.Edges {
		if _, exists := idx.edges[e.ID]; !exists {
			idx.edges[e.ID] = i
		}
	}
	return idx
}

func (idx *Index) Node(id string) (GraphNode, bool) {
	if idx == nil {
		return GraphNode{}, false
	}
	i, ok := idx.nodes[id]
	if !ok {
		return GraphNode{}, false
	}
	return idx.data.Nodes[i], true
}

func (idx *Index) Edge(id string) (GraphEdge, bool) {
	if idx == nil {
		return GraphEdge{}, false
	}
	i, ok := idx.edges[id]
	if !ok {
		return GraphEdge{}, false
	}
	return idx.data.Edges[i], true
}

func (idx *Index) HasNode(id string) bool {
	_, ok := idx.Node(id)
	return ok
}

// NodeTypes returns the distinct node types present, sorted.
func (g GraphData) NodeTypes() []NodeType {
	seen := make(map[NodeType]bool)
	types := []NodeType{}
	for _, n := range g.Nodes {
		if !seen[n.Type] {
			seen[n.Type] = true
			types = append(types, n.Type)
		}
	}
	slices.Sort(types)
	return types
}

// EdgeTypes returns the distinct edge types present, sorted.
func (g GraphData) EdgeTypes() []EdgeType {
	seen := make(map[EdgeType]bool)
	types := []EdgeType{}
	for _, e := range g.Edges {
		if !seen[e.Type] {
			seen[e.Type] = true
			types = append(types, e.Type)
		}
	}
	slices.Sort(types)
	return types
}
