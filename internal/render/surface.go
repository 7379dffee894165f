// Package render owns the render engine lifecycle for a display surface.
// It projects graph records into engine elements and guards engine callbacks.
package render

import (
	"sync"

	"github.com/schemascope/core/internal/models"
)

type FrameKind string

const (
	FrameMount     FrameKind = "mount"
	FramePositions FrameKind = "positions"
	FrameClasses   FrameKind = "classes"
	FrameSelection FrameKind = "selection"
	FrameViewport  FrameKind = "viewport"
	FrameLoading   FrameKind = "loading"
	FrameClear     FrameKind = "clear"
)

type Viewport struct {
	Zoom float64         `json:"zoom"`
	Pan  models.Position `json:"pan"`
}

// Frame is one drawing instruction sent to a surface.
type Frame struct {
	Kind      FrameKind                  `json:"kind"`
	Elements  []models.Element           `json:"elements,omitempty"`
	Positions map[string]models.Position `json:"positions,omitempty"`
	Classes   map[string][]string        `json:"classes,omitempty"`
	Selection []models.ElementRef        `json:"selection,omitempty"`
	Viewport  *Viewport                  `json:"viewport,omitempty"`
	Loading   bool                       `json:"loading,omitempty"`
	Error     string                     `json:"error,omitempty"`
}

// Surface is a display target. Draw must be safe for concurrent use.
type Surface interface {
	ID() string
	Draw(f Frame) error
}

// BufferSurface records every frame it receives.
type BufferSurface struct {
	id     string
	mu     sync.Mutex
	frames []Frame
}

func NewBufferSurface(id string) *BufferSurface {
	return &BufferSurface{id: id}
}

func (b *BufferSurface) ID() string { return b.id }

func (b *BufferSurface) Draw(f Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, f)
	return nil
}

func (b *BufferSurface) Frames() []Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Frame, len(b.frames))
	copy(out, b.frames)
	return out
}

// Last returns the most recent frame of kind.
func (b *BufferSurface) Last(kind FrameKind) (Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.frames) - 1; i >= 0; i-- {
		if b.frames[i].Kind == kind {
			return b.frames[i], true
		}
	}
	return Frame{}, false
}

func (b *BufferSurface) Count(kind FrameKind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, f := range b.frames {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// replayOrder is the order in which retained frames are sent to a new
// subscriber.
var replayOrder = []FrameKind{
	FrameMount, FramePositions, FrameClasses, FrameSelection, FrameViewport, FrameLoading,
}

// Hub is a surface that fans frames out to subscribers, typically websocket
// connections. It retains the latest frame of each kind so a subscriber that
// attaches late receives the current picture.
type Hub struct {
	id     string
	buffer int

	mu     sync.Mutex
	latest map[FrameKind]Frame
	subs   map[chan Frame]struct{}
	closed bool
}

func NewHub(id string, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		id:     id,
		buffer: buffer,
		latest: make(map[FrameKind]Frame),
		subs:   make(map[chan Frame]struct{}),
	}
}

func (h *Hub) ID() string { return h.id }

// Draw retains f and forwards it to every subscriber. A subscriber whose
// buffer is full misses the frame; if the frame is a mount or clear the
// subscriber is detached instead, since it would otherwise keep showing a
// stale graph. It resyncs from the retained state when it subscribes again.
func (h *Hub) Draw(f Frame) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}

	switch f.Kind {
	case FrameMount, FrameClear:
		h.latest = make(map[FrameKind]Frame)
	}
	if f.Kind != FrameClear {
		h.latest[f.Kind] = f
	}

	for ch := range h.subs {
		select {
		case ch <- f:
		default:
			if f.Kind == FrameMount || f.Kind == FrameClear {
				delete(h.subs, ch)
				close(ch)
			}
		}
	}
	return nil
}

// Subscribe returns a frame channel primed with the retained state and a
// func that detaches it.
func (h *Hub) Subscribe() (<-chan Frame, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Frame, h.buffer+len(replayOrder))
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	for _, kind := range replayOrder {
		if f, ok := h.latest[kind]; ok {
			ch <- f
		}
	}
	h.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Closed reports whether Close was called. A subscription channel that
// closes while the hub is open was detached for falling behind.
func (h *Hub) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close detaches all subscribers. Later draws are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
