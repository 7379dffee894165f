// Package search computes which graph elements match a search filter.
// Matching drives a highlighted/dimmed visual state; graph data is never changed.
package search

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"github.com/schemascope/core/internal/models"
)

const (
	ClassHighlighted = "highlighted"
	ClassDimmed      = "dimmed"
)

// ClassTarget is anything holding per-element class sets, usually a render
// engine.
type ClassTarget interface {
	RemoveClasses(classes ...string)
	AddClass(class string, refs []models.ElementRef)
}

// VisualState is the outcome of one filter evaluation. Active is false when
// the filter is inactive or nothing matched; both lists are then empty.
type VisualState struct {
	Active      bool                `json:"active"`
	Highlighted []models.ElementRef `json:"highlighted"`
	Dimmed      []models.ElementRef `json:"dimmed"`
}

func neutral() VisualState {
	return VisualState{Highlighted: []models.ElementRef{}, Dimmed: []models.ElementRef{}}
}

// ComputeMatch reports whether el satisfies both the query and the type
// restriction of f. Nodes are checked against NodeTypes, edges against
// EdgeTypes.
func ComputeMatch(el models.Element, f models.SearchFilter) bool {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	if query != "" {
		if !strings.Contains(strings.ToLower(el.Data.Label), query) &&
			!strings.Contains(strings.ToLower(metadataText(el.Data.Metadata)), query) {
			return false
		}
	}

	switch el.Group {
	case models.KindNode:
		if len(f.NodeTypes) > 0 && !slices.Contains(f.NodeTypes, models.NodeType(el.Data.Type)) {
			return false
		}
	case models.KindEdge:
		if len(f.EdgeTypes) > 0 && !slices.Contains(f.EdgeTypes, models.EdgeType(el.Data.Type)) {
			return false
		}
	}
	return true
}

// Evaluate computes the visual state for elements. An active filter that
// matches nothing yields the neutral state so a failed search never dims the
// whole graph.
func Evaluate(elements []models.Element, f models.SearchFilter) VisualState {
	state := neutral()
	if !f.Active() {
		return state
	}

	for _, el := range elements {
		if ComputeMatch(el, f) {
			state.Highlighted = append(state.Highlighted, el.Ref())
		} else {
			state.Dimmed = append(state.Dimmed, el.Ref())
		}
	}

	if len(state.Highlighted) == 0 {
		return neutral()
	}
	state.Active = true
	return state
}

// ApplyVisualState clears both filter classes on target and then applies the
// state computed for elements.
func ApplyVisualState(target ClassTarget, elements []models.Element, f models.SearchFilter) VisualState {
	state := Evaluate(elements, f)
	target.RemoveClasses(ClassHighlighted, ClassDimmed)
	if !state.Active {
		return state
	}
	target.AddClass(ClassHighlighted, state.Highlighted)
	target.AddClass(ClassDimmed, state.Dimmed)
	return state
}

func metadataText(m map[string]any) string {
	if len(m) == 0 {
		return ""
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return ""
	}
	return buf.String()
}
