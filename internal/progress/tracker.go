// Package progress reports metadata discovery progress for a connection.
// Sources publish snapshots on a channel that is closed after a terminal step.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/schemascope/core/internal/models"
)

var (
	ErrRunning = errors.New("discovery already running")
	ErrNoRun   = errors.New("no discovery run for connection")
)

// Tracker keeps at most one discovery run per connection and fans its
// snapshots out to subscribers.
type Tracker struct {
	source Source
	logger *slog.Logger

	mu   sync.Mutex
	runs map[string]*run
}

type run struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	last   models.DiscoveryProgress
	ended  bool
	subs   map[int]chan models.DiscoveryProgress
	nextID int
}

func NewTracker(source Source, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{source: source, logger: logger.With("component", "progress.tracker"), runs: make(map[string]*run)}
}

// Start begins a run. The run outlives ctx's cancellation but keeps its
// values. A finished run for the same connection is replaced. The source is
// started without holding the tracker lock; until it returns, the run reports
// STARTING and a second Start for the connection gets ErrRunning.
func (t *Tracker) Start(ctx context.Context, connectionID string) (models.DiscoveryProgress, error) {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r := &run{
		cancel: cancel,
		done:   make(chan struct{}),
		last:   models.DiscoveryProgress{ConnectionID: connectionID, CurrentStep: models.DiscoveryStarting},
		subs:   make(map[int]chan models.DiscoveryProgress),
	}

	t.mu.Lock()
	if prev, ok := t.runs[connectionID]; ok && !prev.finished() {
		t.mu.Unlock()
		cancel()
		return prev.snapshot(), ErrRunning
	}
	t.runs[connectionID] = r
	t.mu.Unlock()

	ch, err := t.source.Start(runCtx, connectionID)
	if err != nil {
		cancel()
		t.mu.Lock()
		if t.runs[connectionID] == r {
			delete(t.runs, connectionID)
		}
		t.mu.Unlock()
		r.end()
		close(r.done)
		return models.DiscoveryProgress{}, fmt.Errorf("failed to start discovery: %w", err)
	}
	go t.pump(connectionID, r, ch)

	t.logger.Info("discovery started", "connection_id", connectionID)
	return r.snapshot(), nil
}

func (t *Tracker) pump(connectionID string, r *run, ch <-chan models.DiscoveryProgress) {
	defer close(r.done)
	defer r.cancel()
	for p := range ch {
		r.publish(p)
		if p.CurrentStep.Terminal() {
			t.logger.Info("discovery finished", "connection_id", connectionID, "status", p.CurrentStep, "error", p.Error)
		}
	}
	r.end()
}

// Status returns the latest snapshot, IDLE when nothing has run.
func (t *Tracker) Status(connectionID string) models.DiscoveryProgress {
	t.mu.Lock()
	r, ok := t.runs[connectionID]
	t.mu.Unlock()
	if !ok {
		return models.DiscoveryProgress{ConnectionID: connectionID, CurrentStep: models.DiscoveryIdle}
	}
	return r.snapshot()
}

// Subscribe streams the run's snapshots starting with the latest one. The
// channel closes when the run ends; cancel detaches early.
func (t *Tracker) Subscribe(connectionID string) (<-chan models.DiscoveryProgress, func(), error) {
	t.mu.Lock()
	r, ok := t.runs[connectionID]
	t.mu.Unlock()
	if !ok {
		return nil, nil, ErrNoRun
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan models.DiscoveryProgress, 8)
	ch <- r.last
	if r.ended {
		close(ch)
		return ch, func() {}, nil
	}
	id := r.nextID
	r.nextID++
	r.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if sub, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(sub)
			}
		})
	}, nil
}

// Stop cancels the run and forgets it, so Status reports IDLE again.
func (t *Tracker) Stop(connectionID string) {
	t.mu.Lock()
	r, ok := t.runs[connectionID]
	delete(t.runs, connectionID)
	t.mu.Unlock()
	if !ok {
		return
	}
	r.cancel()
	<-r.done
	t.logger.Info("discovery stopped", "connection_id", connectionID)
}

func (t *Tracker) Close() {
	t.mu.Lock()
	ids := make([]string, 0, len(t.runs))
	for id := range t.runs {
		ids = append(ids, id)
	}
	t.mu.Unlock()
	for _, id := range ids {
		t.Stop(id)
	}
}

func (r *run) snapshot() models.DiscoveryProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *run) finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended
}

// publish keeps the newest snapshot in each subscriber buffer, dropping the
// oldest when a reader falls behind.
func (r *run) publish(p models.DiscoveryProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = p
	for _, ch := range r.subs {
		select {
		case ch <- p:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- p:
			default:
			}
		}
	}
}

func (r *run) end() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = true
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
}
