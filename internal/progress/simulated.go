// Package progress reports metadata discovery progress for a connection.
// Sources publish snapshots on a channel that is closed after a terminal step.
package progress

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/schemascope/core/internal/models"
)

// Source produces progress snapshots for one discovery run. The returned
// channel is closed after a COMPLETED or FAILED snapshot, or when ctx ends.
type Source interface {
	Start(ctx context.Context, connectionID string) (<-chan models.DiscoveryProgress, error)
}

var ErrNoSteps = errors.New("simulated progress has no steps")

type Step struct {
	Status   models.DiscoveryStatus
	Message  string
	Duration time.Duration
}

const DefaultTick = 500 * time.Millisecond

// DefaultSteps is the discovery pipeline as the onboarding service runs it.
var DefaultSteps = []Step{
	{models.DiscoveryStarting, "Initializing discovery process...", 2 * time.Second},
	{models.DiscoveryConnecting, "Connecting to Oracle database...", 3 * time.Second},
	{models.DiscoveryDiscoveringTables, "Discovering tables and views...", 8 * time.Second},
	{models.DiscoveryDiscoveringColumns, "Analyzing column metadata...", 6 * time.Second},
	{models.DiscoveryDiscoveringProcedures, "Scanning stored procedures...", 4 * time.Second},
	{models.DiscoveryDiscoveringConstraints, "Mapping constraints and relationships...", 5 * time.Second},
	{models.DiscoveryFinalizing, "Finalizing metadata collection...", 2 * time.Second},
}

const completedMessage = "Metadata discovery completed"

// Simulated walks a fixed list of steps on a ticker. Elapsed time advances
// by one Tick per tick so runs are reproducible.
type Simulated struct {
	Steps []Step
	Tick  time.Duration
	now   func() time.Time
}

func NewSimulated() *Simulated {
	return &Simulated{Steps: DefaultSteps, Tick: DefaultTick}
}

func (s *Simulated) Start(ctx context.Context, connectionID string) (<-chan models.DiscoveryProgress, error) {
	steps := s.Steps
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	tick := s.Tick
	if tick <= 0 {
		tick = DefaultTick
	}
	now := s.now
	if now == nil {
		now = time.Now
	}

	out := make(chan models.DiscoveryProgress, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		var total time.Duration
		for _, st := range steps {
			total += max(st.Duration, tick)
		}
		started := now().UTC()
		var done, elapsed time.Duration
		idx := 0

		send := func(p models.DiscoveryProgress) bool {
			select {
			case out <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			st := steps[idx]
			dur := max(st.Duration, tick)
			elapsed += tick
			frac := float64(min(elapsed, dur)) / float64(dur)
			p := models.DiscoveryProgress{
				ConnectionID:             connectionID,
				CurrentStep:              st.Status,
				Progress:                 int(math.Round((float64(idx) + frac) / float64(len(steps)) * 100)),
				Message:                  st.Message,
				EstimatedTimeRemainingMs: max(total-done-min(elapsed, dur), 0).Milliseconds(),
				StartedAt:                started,
			}
			if !send(p) {
				return
			}

			if elapsed >= dur {
				done += dur
				elapsed = 0
				idx++
			}
			if idx >= len(steps) {
				send(models.DiscoveryProgress{
					ConnectionID: connectionID,
					CurrentStep:  models.DiscoveryCompleted,
					Progress:     100,
					Message:      completedMessage,
					StartedAt:    started,
				})
				return
			}
		}
	}()
	return out, nil
}
