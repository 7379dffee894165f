// Package models defines the core data structures shared by the console.
// It includes graph entities, filters, stats and the upstream API records.
package models

// ElementKind is the engine-side group of an element.
type ElementKind string

const (
	KindNode ElementKind = "nodes"
	KindEdge ElementKind = "edges"
)

// ElementRef identifies an engine element in events coming back from the
// render engine.
type ElementRef struct {
	Kind ElementKind `json:"group"`
	ID   string      `json:"id"`
}

type ElementData struct {
	ID       string         `json:"id"`
	Label    string         `json:"label,omitempty"`
	Type     string         `json:"type"`
	Source   string         `json:"source,omitempty"`
	Target   string         `json:"target,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ElementStyle holds the resolved visual attributes of an element.
type ElementStyle struct {
	Color     string  `json:"color"`
	Width     float64 `json:"width,omitempty"`
	Height    float64 `json:"height,omitempty"`
	Shape     string  `json:"shape,omitempty"`
	LineWidth float64 `json:"lineWidth,omitempty"`
	Arrow     string  `json:"arrow,omitempty"`
}

// Element is the render engine's representation of a node or edge, laid out
// like a Cytoscape element ({group, data, ...}).
type Element struct {
	Group    ElementKind  `json:"group"`
	Data     ElementData  `json:"data"`
	Style    ElementStyle `json:"style"`
	Position *Position    `json:"position,omitempty"`
	Classes  []string     `json:"classes,omitempty"`
}

func (e Element) Ref() ElementRef {
	return ElementRef{Kind: e.Group, ID: e.Data.ID}
}

func (e Element) IsNode() bool { return e.Group == KindNode }

func (e Element) IsEdge() bool { return e.Group == KindEdge }
