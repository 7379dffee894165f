// Package render owns the render engine lifecycle for a display surface.
// It projects graph records into engine elements and guards engine callbacks.
package render

import (
	"context"
	"fmt"

	"github.com/schemascope/core/internal/models"
	"github.com/schemascope/core/internal/search"
)

type EventType string

const (
	EventTap        EventType = "tap"
	EventSelect     EventType = "select"
	EventUnselect   EventType = "unselect"
	EventLayoutStop EventType = "layoutstop"
	EventReady      EventType = "ready"
)

// Event is emitted by an engine. Target is set for taps on an element.
// Selection always carries the engine's full current selection set for
// select and unselect events.
type Event struct {
	Type      EventType
	Target    *models.ElementRef
	Selection []models.ElementRef
}

type Listener func(Event)

// Engine is a mutable render engine bound to one surface.
type Engine interface {
	search.ClassTarget

	// On registers fn for event and returns a func that removes it.
	On(event EventType, fn Listener) func()
	RemoveAllListeners()

	// Start emits ready and runs the layout. It must not block.
	Start(ctx context.Context)
	StopLayout()

	Elements() []models.Element
	Input(in Input) error

	Fit()
	Center()
	Zoom(level float64)

	Export(format string) ([]byte, error)
	Destroy()
}

// Factory constructs an engine drawing to surface.
type Factory func(surface Surface, elements []models.Element, cfg Config) (Engine, error)

// Input is pointer input coming back from a surface.
type Input struct {
	Event EventType          `json:"event" binding:"required,oneof=tap select unselect"`
	Group models.ElementKind `json:"group"`
	IDs   []string           `json:"ids"`
}

// Refs returns the element refs named by the input.
func (in Input) Refs() []models.ElementRef {
	refs := make([]models.ElementRef, 0, len(in.IDs))
	for _, id := range in.IDs {
		refs = append(refs, models.ElementRef{Kind: in.Group, ID: id})
	}
	return refs
}

func (in Input) Validate() error {
	switch in.Event {
	case EventTap, EventSelect, EventUnselect:
	default:
		return fmt.Errorf("unknown input event %q", in.Event)
	}
	if len(in.IDs) > 0 && in.Group != models.KindNode && in.Group != models.KindEdge {
		return fmt.Errorf("unknown element group %q", in.Group)
	}
	return nil
}
