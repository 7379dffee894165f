// Package session composes a graph viewer: data, render engine, selection,
// filter and detail state for one display surface.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/schemascope/core/internal/metrics"
	"github.com/schemascope/core/internal/models"
	"github.com/schemascope/core/internal/render"
)

var ErrNotFound = errors.New("session not found")

const defaultFrameBuffer = 64

// Session is a viewer bound to a hub surface that browser clients attach to.
type Session struct {
	ID        string
	Viewer    *Viewer
	Hub       *render.Hub
	CreatedAt time.Time
}

// Manager is the registry of open sessions keyed by surface id.
type Manager struct {
	adapter *render.Adapter
	opts    Options
	buffer  int
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(adapter *render.Adapter, opts Options, frameBuffer int) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if frameBuffer <= 0 {
		frameBuffer = defaultFrameBuffer
	}
	return &Manager{
		adapter:  adapter,
		opts:     opts,
		buffer:   frameBuffer,
		logger:   logger.With("component", "session.manager"),
		sessions: make(map[string]*Session),
	}
}

// Create opens a session showing an empty graph.
func (m *Manager) Create(cb Callbacks) *Session {
	id := uuid.NewString()
	hub := render.NewHub(id, m.buffer)
	s := &Session{
		ID:        id,
		Viewer:    NewViewer(m.adapter, hub, m.opts, cb),
		Hub:       hub,
		CreatedAt: time.Now().UTC(),
	}
	_ = s.Viewer.SetData(models.Empty())

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	metrics.Sessions.Inc()

	m.logger.Info("session created", "session_id", id)
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Close tears down the session's engine and disconnects its clients.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	s.Viewer.Close()
	s.Hub.Close()
	metrics.Sessions.Dec()
	m.logger.Info("session closed", "session_id", id)
	return nil
}

func (m *Manager) CloseAll() {
	for _, id := range m.IDs() {
		_ = m.Close(id)
	}
}

func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reload refreshes every session showing connectionID and returns how many
// were reloaded.
func (m *Manager) Reload(ctx context.Context, connectionID string) int {
	m.mu.RLock()
	targets := make([]*Session, 0)
	for _, s := range m.sessions {
		if s.Viewer.ConnectionID() == connectionID {
			targets = append(targets, s)
		}
	}
	m.mu.RUnlock()

	n := 0
	for _, s := range targets {
		if _, err := s.Viewer.Load(ctx, connectionID); err != nil && !errors.Is(err, ErrSuperseded) {
			m.logger.Warn("session reload failed", "session_id", s.ID, "connection_id", connectionID, "error", err)
			continue
		}
		n++
	}
	if n > 0 {
		m.logger.Info("reloaded sessions", "connection_id", connectionID, "sessions", n)
	}
	return n
}
