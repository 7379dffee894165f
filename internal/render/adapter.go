// Package render owns the render engine lifecycle for a display surface.
// It projects graph records into engine elements and guards engine callbacks.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/schemascope/core/internal/metrics"
	"github.com/schemascope/core/internal/models"
	"github.com/schemascope/core/internal/parser"
	"github.com/schemascope/core/internal/search"
)

var ErrDestroyed = errors.New("render handle destroyed")

// Adapter keeps at most one live engine per surface.
type Adapter struct {
	factory Factory
	logger  *slog.Logger

	// lifecycle serializes Initialize and Destroy.
	lifecycle sync.Mutex

	mu      sync.Mutex
	handles map[string]*Handle
	gen     atomic.Uint64
}

func NewAdapter(factory Factory, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		factory: factory,
		logger:  logger.With("component", "render"),
		handles: make(map[string]*Handle),
	}
}

// Handle is one acquisition of an engine for a surface. After Destroy every
// operation on it is a no-op.
type Handle struct {
	adapter  *Adapter
	surface  Surface
	gen      uint64
	listener Listener

	elements []models.Element
	report   parser.Report

	mu        sync.Mutex
	engine    Engine
	cancel    context.CancelFunc
	offs      []func()
	loading   bool
	destroyed bool
	err       error
}

// Initialize tears down any handle already bound to surface, then builds a
// new engine for data. listener receives tap and selection events that pass
// the staleness guard and may be nil. Construction failures never escape: the
// returned handle is then empty, not loading, and Err reports the cause.
func (a *Adapter) Initialize(surface Surface, data models.GraphData, cfg Config, listener Listener) *Handle {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	a.destroy(a.Current(surface.ID()))

	elements, report := Project(data)
	metrics.RecordDrops(len(report.DuplicateNodes), len(report.DuplicateEdges), len(report.DanglingEdges))
	if report.Dropped() > 0 {
		a.logger.Warn("dropped invalid graph elements",
			"surface", surface.ID(),
			"duplicate_nodes", report.DuplicateNodes,
			"duplicate_edges", report.DuplicateEdges,
			"dangling_edges", report.DanglingEdges)
	}

	h := &Handle{
		adapter:  a,
		surface:  surface,
		gen:      a.gen.Add(1),
		listener: listener,
		elements: elements,
		report:   report,
		loading:  true,
	}

	a.mu.Lock()
	a.handles[surface.ID()] = h
	a.mu.Unlock()

	h.draw(Frame{Kind: FrameLoading, Loading: true})

	engine, err := a.construct(surface, elements, cfg)
	if err != nil {
		metrics.EngineInits.WithLabelValues("failed").Inc()
		a.logger.Error("failed to initialize render engine", "surface", surface.ID(), "error", err)
		h.mu.Lock()
		h.err = err
		h.loading = false
		h.mu.Unlock()
		h.draw(Frame{Kind: FrameClear, Error: err.Error()})
		h.draw(Frame{Kind: FrameLoading, Loading: false})
		return h
	}
	metrics.EngineInits.WithLabelValues("ok").Inc()
	metrics.LiveEngines.Inc()

	ctx, cancel := context.WithCancel(context.Background())
	h.mu.Lock()
	h.engine = engine
	h.cancel = cancel
	for _, ev := range []EventType{EventTap, EventSelect, EventUnselect, EventLayoutStop, EventReady} {
		h.offs = append(h.offs, engine.On(ev, h.guard))
	}
	h.mu.Unlock()

	if err := a.safely(func() { engine.Start(ctx) }); err != nil {
		a.logger.Error("render engine failed to start", "surface", surface.ID(), "error", err)
		a.destroy(h)
		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
		h.draw(Frame{Kind: FrameClear, Error: err.Error()})
		h.draw(Frame{Kind: FrameLoading, Loading: false})
		return h
	}

	a.logger.Debug("render engine initialized",
		"surface", surface.ID(), "generation", h.gen, "elements", len(elements))
	return h
}

func (a *Adapter) construct(surface Surface, elements []models.Element, cfg Config) (engine Engine, err error) {
	if a.factory == nil {
		return nil, fmt.Errorf("no render engine factory configured")
	}
	defer func() {
		if r := recover(); r != nil {
			engine = nil
			err = fmt.Errorf("render engine panicked: %v", r)
		}
	}()
	engine, err = a.factory(surface, elements, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create render engine: %w", err)
	}
	if engine == nil {
		return nil, fmt.Errorf("failed to create render engine: factory returned nil")
	}
	return engine, nil
}

func (a *Adapter) safely(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render engine panicked: %v", r)
		}
	}()
	fn()
	return nil
}

// Current returns the handle bound to surfaceID, or nil.
func (a *Adapter) Current(surfaceID string) *Handle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handles[surfaceID]
}

// Live counts handles that still hold an engine.
func (a *Adapter) Live() int {
	a.mu.Lock()
	handles := make([]*Handle, 0, len(a.handles))
	for _, h := range a.handles {
		handles = append(handles, h)
	}
	a.mu.Unlock()

	n := 0
	for _, h := range handles {
		if h.Live() {
			n++
		}
	}
	return n
}

// Destroy releases h. It is safe on nil and on handles already destroyed.
func (a *Adapter) Destroy(h *Handle) {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()
	a.destroy(h)
}

func (a *Adapter) destroy(h *Handle) {
	if h == nil {
		return
	}

	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		return
	}
	h.destroyed = true
	h.loading = false
	engine, cancel, offs := h.engine, h.cancel, h.offs
	h.engine, h.cancel, h.offs = nil, nil, nil
	h.mu.Unlock()

	defer a.release(h)

	if cancel != nil {
		cancel()
	}
	if engine == nil {
		return
	}
	defer metrics.LiveEngines.Dec()

	if err := a.safely(func() {
		engine.StopLayout()
		for _, off := range offs {
			off()
		}
		engine.RemoveAllListeners()
		engine.Destroy()
	}); err != nil {
		a.logger.Error("render engine teardown failed", "surface", h.surface.ID(), "error", err)
	}
}

func (a *Adapter) release(h *Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.handles[h.surface.ID()] == h {
		delete(a.handles, h.surface.ID())
	}
}

// ApplyFilter recomputes the highlighted/dimmed classes for f.
func (a *Adapter) ApplyFilter(h *Handle, f models.SearchFilter) search.VisualState {
	engine := h.live()
	if engine == nil {
		return search.Evaluate(nil, f)
	}
	var state search.VisualState
	if err := a.safely(func() { state = search.ApplyVisualState(engine, h.elements, f) }); err != nil {
		a.logger.Error("failed to apply filter", "surface", h.surface.ID(), "error", err)
		return search.Evaluate(nil, f)
	}
	outcome := "neutral"
	if state.Active {
		outcome = "highlighted"
	}
	metrics.FilterApplications.WithLabelValues(outcome).Inc()
	return state
}

func (a *Adapter) Fit(h *Handle) {
	a.call(h, "fit", func(e Engine) { e.Fit() })
}

func (a *Adapter) Center(h *Handle) {
	a.call(h, "center", func(e Engine) { e.Center() })
}

func (a *Adapter) ResetZoom(h *Handle) {
	a.call(h, "reset zoom", func(e Engine) {
		e.Zoom(1)
		e.Center()
	})
}

// ExportImage returns the encoded graph, or nil when the format is
// unsupported, the export failed, or h is torn down.
func (a *Adapter) ExportImage(h *Handle, format string) []byte {
	var out []byte
	a.call(h, "export", func(e Engine) {
		data, err := e.Export(format)
		if err != nil {
			a.logger.Warn("export failed", "surface", h.surface.ID(), "format", format, "error", err)
			return
		}
		out = data
	})
	return out
}

// Input forwards surface pointer input to the engine.
func (a *Adapter) Input(h *Handle, in Input) error {
	if err := in.Validate(); err != nil {
		return err
	}
	engine := h.live()
	if engine == nil {
		return ErrDestroyed
	}
	var inputErr error
	if err := a.safely(func() { inputErr = engine.Input(in) }); err != nil {
		a.logger.Error("engine input failed", "surface", h.surface.ID(), "error", err)
		return err
	}
	return inputErr
}

func (a *Adapter) call(h *Handle, op string, fn func(Engine)) {
	engine := h.live()
	if engine == nil {
		return
	}
	if err := a.safely(func() { fn(engine) }); err != nil {
		a.logger.Error("engine call failed", "surface", h.surface.ID(), "op", op, "error", err)
	}
}

// guard forwards engine events that belong to the current, live handle and
// drops the rest.
func (h *Handle) guard(ev Event) {
	h.mu.Lock()
	if h.destroyed || h.adapter.Current(h.surface.ID()) != h {
		h.mu.Unlock()
		metrics.StaleEvents.Inc()
		h.adapter.logger.Debug("dropped stale engine event",
			"surface", h.surface.ID(), "generation", h.gen, "event", ev.Type)
		return
	}

	clearLoading := false
	switch ev.Type {
	case EventLayoutStop, EventReady:
		if h.loading {
			h.loading = false
			clearLoading = true
		}
	}
	listener := h.listener
	h.mu.Unlock()

	if clearLoading {
		h.draw(Frame{Kind: FrameLoading, Loading: false})
	}
	if listener != nil {
		switch ev.Type {
		case EventTap, EventSelect, EventUnselect:
			listener(ev)
		}
	}
}

func (h *Handle) live() Engine {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return nil
	}
	return h.engine
}

func (h *Handle) draw(f Frame) {
	if err := h.surface.Draw(f); err != nil {
		h.adapter.logger.Debug("surface draw failed", "surface", h.surface.ID(), "error", err)
	}
}

func (h *Handle) Live() bool {
	return h.live() != nil
}

func (h *Handle) Loading() bool {
	if h == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loading
}

// Err is the construction or start failure, if any.
func (h *Handle) Err() error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handle) Generation() uint64 {
	if h == nil {
		return 0
	}
	return h.gen
}

// Elements returns the projected elements. The slice must not be modified.
func (h *Handle) Elements() []models.Element {
	if h == nil {
		return nil
	}
	return h.elements
}

func (h *Handle) Report() parser.Report {
	if h == nil {
		return parser.Report{}
	}
	return h.report
}
