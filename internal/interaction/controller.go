// Package interaction maps engine tap and selection events back to graph
// records and keeps the single-selection state.
package interaction

import (
	"sync"

	"github.com/schemascope/core/internal/models"
)

// Entity is a resolved graph record. Exactly one of Node and Edge is set.
type Entity struct {
	Kind models.ElementKind `json:"kind"`
	Node *models.GraphNode  `json:"node,omitempty"`
	Edge *models.GraphEdge  `json:"edge,omitempty"`
}

func (e Entity) ID() string {
	switch {
	case e.Node != nil:
		return e.Node.ID
	case e.Edge != nil:
		return e.Edge.ID
	}
	return ""
}

// Selection holds at most one node or one edge, never both.
type Selection struct {
	Node *models.GraphNode `json:"node,omitempty"`
	Edge *models.GraphEdge `json:"edge,omitempty"`
}

func (s Selection) Empty() bool {
	return s.Node == nil && s.Edge == nil
}

func (s Selection) Equal(o Selection) bool {
	return nodeKey(s.Node) == nodeKey(o.Node) && edgeKey(s.Edge) == edgeKey(o.Edge)
}

func nodeKey(n *models.GraphNode) string {
	if n == nil {
		return ""
	}
	return "n:" + n.ID
}

func edgeKey(e *models.GraphEdge) string {
	if e == nil {
		return ""
	}
	return "e:" + e.ID
}

// Callbacks are invoked synchronously, after the controller state changed
// and outside its lock.
type Callbacks struct {
	OnNodeTapped       func(models.GraphNode)
	OnEdgeTapped       func(models.GraphEdge)
	OnSelectionChanged func(Selection)
	OnDetailOpen       func(Entity)
}

type Controller struct {
	mu        sync.Mutex
	index     *models.Index
	selection Selection
	detail    *Entity
	callbacks Callbacks
}

func NewController(data models.GraphData, callbacks Callbacks) *Controller {
	return &Controller{index: data.Index(), callbacks: callbacks}
}

// SetData swaps the graph and clears selection and detail without invoking
// callbacks.
func (c *Controller) SetData(data models.GraphData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = data.Index()
	c.selection = Selection{}
	c.detail = nil
}

// Resolve looks ref up in the current graph. It has no side effects.
func (c *Controller) Resolve(ref models.ElementRef) (Entity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolveLocked(ref)
}

func (c *Controller) resolveLocked(ref models.ElementRef) (Entity, bool) {
	switch ref.Kind {
	case models.KindNode:
		if n, ok := c.index.Node(ref.ID); ok {
			return Entity{Kind: models.KindNode, Node: &n}, true
		}
	case models.KindEdge:
		if e, ok := c.index.Edge(ref.ID); ok {
			return Entity{Kind: models.KindEdge, Edge: &e}, true
		}
	}
	return Entity{}, false
}

// Reduce picks the first resolvable node in refs, or failing that the first
// resolvable edge. It has no side effects.
func (c *Controller) Reduce(refs []models.ElementRef) Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reduceLocked(refs)
}

func (c *Controller) reduceLocked(refs []models.ElementRef) Selection {
	for _, ref := range refs {
		if ref.Kind != models.KindNode {
			continue
		}
		if ent, ok := c.resolveLocked(ref); ok {
			return Selection{Node: ent.Node}
		}
	}
	for _, ref := range refs {
		if ref.Kind != models.KindEdge {
			continue
		}
		if ent, ok := c.resolveLocked(ref); ok {
			return Selection{Edge: ent.Edge}
		}
	}
	return Selection{}
}

// OnElementTapped resolves a tap. A stale ref changes nothing and invokes no
// callback. A resolved tap selects the entity alone and opens its detail.
func (c *Controller) OnElementTapped(ref models.ElementRef) (Entity, bool) {
	c.mu.Lock()
	ent, ok := c.resolveLocked(ref)
	if !ok {
		c.mu.Unlock()
		return Entity{}, false
	}
	next := Selection{Node: ent.Node, Edge: ent.Edge}
	changed := !c.selection.Equal(next)
	c.selection = next
	detail := ent
	c.detail = &detail
	cb := c.callbacks
	c.mu.Unlock()

	switch {
	case ent.Node != nil && cb.OnNodeTapped != nil:
		cb.OnNodeTapped(*ent.Node)
	case ent.Edge != nil && cb.OnEdgeTapped != nil:
		cb.OnEdgeTapped(*ent.Edge)
	}
	if cb.OnDetailOpen != nil {
		cb.OnDetailOpen(ent)
	}
	if changed && cb.OnSelectionChanged != nil {
		cb.OnSelectionChanged(next)
	}
	return ent, true
}

// OnSelectionChanged reduces the engine's full selection set and stores the
// result. OnSelectionChanged fires only when the stored selection changed.
func (c *Controller) OnSelectionChanged(refs []models.ElementRef) Selection {
	c.mu.Lock()
	next := c.reduceLocked(refs)
	changed := !c.selection.Equal(next)
	c.selection = next
	cb := c.callbacks
	c.mu.Unlock()

	if changed && cb.OnSelectionChanged != nil {
		cb.OnSelectionChanged(next)
	}
	return next
}

func (c *Controller) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

// Detail is the entity whose detail view is open.
func (c *Controller) Detail() (Entity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detail == nil {
		return Entity{}, false
	}
	return *c.detail, true
}

// Clear closes the detail view and clears the selection.
func (c *Controller) Clear() {
	c.mu.Lock()
	changed := !c.selection.Empty()
	c.selection = Selection{}
	c.detail = nil
	cb := c.callbacks
	c.mu.Unlock()

	if changed && cb.OnSelectionChanged != nil {
		cb.OnSelectionChanged(Selection{})
	}
}
