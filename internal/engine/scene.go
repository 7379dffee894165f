// Package engine is the headless render engine behind the render adapter.
// It keeps element state, runs the force-directed layout and publishes frames.
package engine

import (
	"context"
	"errors"
	"math"
	"slices"
	"sync"

	"github.com/schemascope/core/internal/models"
	"github.com/schemascope/core/internal/render"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

const (
	canvasWidth  = 1200.0
	canvasHeight = 800.0
)

// Scene is a render.Engine drawing to a single surface.
type Scene struct {
	surface render.Surface
	cfg     render.Config

	mu         sync.Mutex
	elements   []models.Element
	refs       map[models.ElementRef]int
	classes    map[models.ElementRef]map[string]bool
	selected   []models.ElementRef
	positions  map[string]models.Position
	viewport   render.Viewport
	listeners  map[render.EventType]map[int]render.Listener
	nextID     int
	stopLayout context.CancelFunc
	layoutDone chan struct{}
	started    bool
	destroyed  bool
}

// New builds a scene for elements and mounts it on surface.
func New(surface render.Surface, elements []models.Element, cfg render.Config) (*Scene, error) {
	if surface == nil {
		return nil, errors.New("engine requires a surface")
	}

	s := &Scene{
		surface:   surface,
		cfg:       cfg,
		elements:  make([]models.Element, len(elements)),
		refs:      make(map[models.ElementRef]int, len(elements)),
		classes:   make(map[models.ElementRef]map[string]bool),
		positions: make(map[string]models.Position),
		viewport:  render.Viewport{Zoom: 1},
		listeners: make(map[render.EventType]map[int]render.Listener),
	}
	copy(s.elements, elements)
	for i, el := range s.elements {
		s.refs[el.Ref()] = i
		if el.IsNode() && el.Position != nil {
			s.positions[el.Data.ID] = *el.Position
		}
	}

	s.publish(render.Frame{Kind: render.FrameMount, Elements: s.snapshot()})
	return s, nil
}

// Factory adapts New to render.Factory.
func Factory(surface render.Surface, elements []models.Element, cfg render.Config) (render.Engine, error) {
	s, err := New(surface, elements, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scene) On(event render.EventType, fn render.Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners[event] == nil {
		s.listeners[event] = make(map[int]render.Listener)
	}
	id := s.nextID
	s.nextID++
	s.listeners[event][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners[event], id)
	}
}

func (s *Scene) RemoveAllListeners() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = make(map[render.EventType]map[int]render.Listener)
}

// emit calls listeners outside the scene lock so they may call back in.
func (s *Scene) emit(ev render.Event) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	ids := make([]int, 0, len(s.listeners[ev.Type]))
	for id := range s.listeners[ev.Type] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]render.Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[ev.Type][id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Start emits ready once and, when there are nodes, runs the layout in the
// background. layoutstop follows a layout that ran to completion.
func (s *Scene) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.destroyed {
		s.mu.Unlock()
		return
	}
	s.started = true
	nodes, edges := s.graphLocked()
	s.mu.Unlock()

	s.emit(render.Event{Type: render.EventReady})
	if len(nodes) == 0 {
		return
	}

	layoutCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		cancel()
		return
	}
	s.stopLayout = cancel
	s.layoutDone = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		s.runLayout(layoutCtx, nodes, edges)
	}()
}

func (s *Scene) runLayout(ctx context.Context, nodes, edges []models.Element) {
	var positions map[string]models.Position
	if s.cfg.Layout.Name == "preset" {
		positions = s.presetPositions(nodes)
	} else {
		var ok bool
		positions, ok = eadesLayout(ctx, nodes, edges, s.cfg.Layout, func(p map[string]models.Position) {
			s.publish(render.Frame{Kind: render.FramePositions, Positions: p})
		})
		if !ok {
			return
		}
	}

	s.mu.Lock()
	if s.destroyed || ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	for id, p := range positions {
		s.positions[id] = p
	}
	final := s.positionsLocked()
	s.mu.Unlock()

	s.publish(render.Frame{Kind: render.FramePositions, Positions: final})
	if s.cfg.Layout.Fit {
		s.Fit()
	}
	s.emit(render.Event{Type: render.EventLayoutStop})
}

func (s *Scene) presetPositions(nodes []models.Element) map[string]models.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.Position, len(nodes))
	for i, n := range nodes {
		if p, ok := s.positions[n.Data.ID]; ok {
			out[n.Data.ID] = p
			continue
		}
		out[n.Data.ID] = gridPosition(i, len(nodes))
	}
	return out
}

// StopLayout cancels a running layout and waits for it to exit.
func (s *Scene) StopLayout() {
	s.mu.Lock()
	cancel, done := s.stopLayout, s.layoutDone
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// LayoutDone is closed when the current layout run exits. It is nil before
// a layout has started.
func (s *Scene) LayoutDone() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layoutDone
}

// Elements returns the elements with their current classes and positions.
func (s *Scene) Elements() []models.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Scene) snapshot() []models.Element {
	out := make([]models.Element, len(s.elements))
	for i, el := range s.elements {
		el.Classes = s.classListLocked(el.Ref())
		if p, ok := s.positions[el.Data.ID]; ok && el.IsNode() {
			pos := p
			el.Position = &pos
		}
		out[i] = el
	}
	return out
}

func (s *Scene) graphLocked() (nodes, edges []models.Element) {
	for _, el := range s.elements {
		if el.IsNode() {
			nodes = append(nodes, el)
		} else {
			edges = append(edges, el)
		}
	}
	return nodes, edges
}

func (s *Scene) positionsLocked() map[string]models.Position {
	out := make(map[string]models.Position, len(s.positions))
	for id, p := range s.positions {
		out[id] = p
	}
	return out
}

func (s *Scene) AddClass(class string, refs []models.ElementRef) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	for _, ref := range refs {
		if _, ok := s.refs[ref]; !ok {
			continue
		}
		if s.classes[ref] == nil {
			s.classes[ref] = make(map[string]bool)
		}
		s.classes[ref][class] = true
	}
	frame := s.classesFrameLocked()
	s.mu.Unlock()
	s.publish(frame)
}

// RemoveClasses removes classes from every element.
func (s *Scene) RemoveClasses(classes ...string) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	for ref, set := range s.classes {
		for _, c := range classes {
			delete(set, c)
		}
		if len(set) == 0 {
			delete(s.classes, ref)
		}
	}
	frame := s.classesFrameLocked()
	s.mu.Unlock()
	s.publish(frame)
}

// HasClass reports whether the element carries class.
func (s *Scene) HasClass(ref models.ElementRef, class string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classes[ref][class]
}

func (s *Scene) classListLocked(ref models.ElementRef) []string {
	set := s.classes[ref]
	if len(set) == 0 {
		return nil
	}
	list := make([]string, 0, len(set))
	for c := range set {
		list = append(list, c)
	}
	slices.Sort(list)
	return list
}

func (s *Scene) classesFrameLocked() render.Frame {
	classes := make(map[string][]string, len(s.classes))
	for ref := range s.classes {
		classes[ref.ID] = s.classListLocked(ref)
	}
	return render.Frame{Kind: render.FrameClasses, Classes: classes}
}

// Selected returns the current selection in selection order.
func (s *Scene) Selected() []models.ElementRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.selected)
}

// Input applies pointer input. A tap on an element selects it alone; a tap
// on the background clears the selection.
func (s *Scene) Input(in render.Input) error {
	if err := in.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return render.ErrDestroyed
	}
	known := make([]models.ElementRef, 0, len(in.IDs))
	for _, ref := range in.Refs() {
		if _, ok := s.refs[ref]; ok {
			known = append(known, ref)
		}
	}
	selectable := s.cfg.EnableSelection
	s.mu.Unlock()

	switch in.Event {
	case render.EventTap:
		if len(known) == 0 {
			if len(in.IDs) == 0 && selectable {
				s.changeSelection(render.EventUnselect, func([]models.ElementRef) []models.ElementRef { return nil })
			}
			return nil
		}
		target := known[0]
		s.emit(render.Event{Type: render.EventTap, Target: &target})
		if selectable {
			s.changeSelection(render.EventSelect, func([]models.ElementRef) []models.ElementRef {
				return []models.ElementRef{target}
			})
		}
	case render.EventSelect:
		if !selectable || len(known) == 0 {
			return nil
		}
		s.changeSelection(render.EventSelect, func(cur []models.ElementRef) []models.ElementRef {
			for _, ref := range known {
				if !slices.Contains(cur, ref) {
					cur = append(cur, ref)
				}
			}
			return cur
		})
	case render.EventUnselect:
		if !selectable || len(known) == 0 {
			return nil
		}
		s.changeSelection(render.EventUnselect, func(cur []models.ElementRef) []models.ElementRef {
			return slices.DeleteFunc(cur, func(ref models.ElementRef) bool {
				return slices.Contains(known, ref)
			})
		})
	}
	return nil
}

// Select adds refs to the selection, as a box selection would.
func (s *Scene) Select(refs []models.ElementRef) {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	if len(refs) == 0 {
		return
	}
	_ = s.Input(render.Input{Event: render.EventSelect, Group: refs[0].Kind, IDs: ids})
}

func (s *Scene) changeSelection(ev render.EventType, update func([]models.ElementRef) []models.ElementRef) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	before := slices.Clone(s.selected)
	s.selected = update(slices.Clone(s.selected))
	if slices.Equal(before, s.selected) {
		s.mu.Unlock()
		return
	}
	selection := slices.Clone(s.selected)
	s.mu.Unlock()

	s.publish(render.Frame{Kind: render.FrameSelection, Selection: selection})
	if len(selection) == 0 {
		ev = render.EventUnselect
	}
	s.emit(render.Event{Type: ev, Selection: selection})
}

// Fit zooms so every node fits the canvas within the layout padding.
func (s *Scene) Fit() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	minX, minY, maxX, maxY, ok := s.boundsLocked()
	if !ok {
		s.mu.Unlock()
		return
	}
	pad := s.cfg.Layout.Padding
	w := math.Max(maxX-minX, 1)
	h := math.Max(maxY-minY, 1)
	zoom := math.Min((canvasWidth-2*pad)/w, (canvasHeight-2*pad)/h)
	s.viewport.Zoom = s.cfg.ClampZoom(zoom)
	s.centerLocked(minX, minY, maxX, maxY)
	vp := s.viewport
	s.mu.Unlock()

	s.publish(render.Frame{Kind: render.FrameViewport, Viewport: &vp})
}

// Center pans so the node bounding box is centered at the current zoom.
func (s *Scene) Center() {
	s.mu.Lock()
	if s.destroyed || !s.cfg.EnablePan {
		s.mu.Unlock()
		return
	}
	minX, minY, maxX, maxY, ok := s.boundsLocked()
	if ok {
		s.centerLocked(minX, minY, maxX, maxY)
	}
	vp := s.viewport
	s.mu.Unlock()

	s.publish(render.Frame{Kind: render.FrameViewport, Viewport: &vp})
}

func (s *Scene) Zoom(level float64) {
	s.mu.Lock()
	if s.destroyed || !s.cfg.EnableZoom {
		s.mu.Unlock()
		return
	}
	s.viewport.Zoom = s.cfg.ClampZoom(level)
	vp := s.viewport
	s.mu.Unlock()

	s.publish(render.Frame{Kind: render.FrameViewport, Viewport: &vp})
}

func (s *Scene) Viewport() render.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

func (s *Scene) centerLocked(minX, minY, maxX, maxY float64) {
	cx := (minX + maxX) / 2
	cy := (minY + maxY) / 2
	s.viewport.Pan = models.Position{
		X: canvasWidth/2 - s.viewport.Zoom*cx,
		Y: canvasHeight/2 - s.viewport.Zoom*cy,
	}
}

func (s *Scene) boundsLocked() (minX, minY, maxX, maxY float64, ok bool) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, el := range s.elements {
		if !el.IsNode() {
			continue
		}
		p, found := s.positions[el.Data.ID]
		if !found {
			continue
		}
		hw, hh := el.Style.Width/2, el.Style.Height/2
		minX = math.Min(minX, p.X-hw)
		minY = math.Min(minY, p.Y-hh)
		maxX = math.Max(maxX, p.X+hw)
		maxY = math.Max(maxY, p.Y+hh)
		ok = true
	}
	return minX, minY, maxX, maxY, ok
}

// Destroy stops the layout, drops listeners and clears the surface. Later
// calls on the scene do nothing.
func (s *Scene) Destroy() {
	s.StopLayout()

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.listeners = make(map[render.EventType]map[int]render.Listener)
	s.mu.Unlock()

	s.publish(render.Frame{Kind: render.FrameClear})

	s.mu.Lock()
	s.destroyed = true
	s.mu.Unlock()
}

func (s *Scene) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// publish draws f unless the scene is destroyed.
func (s *Scene) publish(f render.Frame) {
	s.mu.Lock()
	destroyed := s.destroyed
	s.mu.Unlock()
	if destroyed {
		return
	}
	_ = s.surface.Draw(f)
}

func gridPosition(i, n int) models.Position {
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	if cols == 0 {
		cols = 1
	}
	return models.Position{X: float64(i%cols) * 100, Y: float64(i/cols) * 100}
}
