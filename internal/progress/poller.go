// Package progress reports metadata discovery progress for a connection.
// Sources publish snapshots on a channel that is closed after a terminal step.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/schemascope/core/internal/models"
	"golang.org/x/time/rate"
)

// StatusClient triggers discovery on the onboarding service and reads back
// its state.
type StatusClient interface {
	TriggerDiscovery(ctx context.Context, connectionID string) error
	DiscoveryStatus(ctx context.Context, connectionID string) (models.DiscoveryProgress, error)
}

// Poller triggers a discovery run and polls its status at a bounded rate
// until the service reports a terminal step.
type Poller struct {
	client      StatusClient
	interval    time.Duration
	maxFailures int
	logger      *slog.Logger
}

func NewPoller(client StatusClient, interval time.Duration, maxFailures int, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultTick
	}
	if maxFailures <= 0 {
		maxFailures = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{client: client, interval: interval, maxFailures: maxFailures, logger: logger.With("component", "progress.poller")}
}

func (p *Poller) Start(ctx context.Context, connectionID string) (<-chan models.DiscoveryProgress, error) {
	if err := p.client.TriggerDiscovery(ctx, connectionID); err != nil {
		return nil, fmt.Errorf("failed to trigger discovery: %w", err)
	}

	out := make(chan models.DiscoveryProgress, 1)
	go func() {
		defer close(out)
		limiter := rate.NewLimiter(rate.Every(p.interval), 1)
		started := time.Now().UTC()
		failures := 0

		for {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			status, err := p.client.DiscoveryStatus(ctx, connectionID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				failures++
				p.logger.Warn("discovery status poll failed", "connection_id", connectionID, "attempt", failures, "error", err)
				if failures < p.maxFailures {
					continue
				}
				status = models.DiscoveryProgress{
					CurrentStep: models.DiscoveryFailed,
					Message:     "Discovery status unavailable",
					Error:       err.Error(),
				}
			} else {
				failures = 0
			}

			if status.ConnectionID == "" {
				status.ConnectionID = connectionID
			}
			if status.StartedAt.IsZero() {
				status.StartedAt = started
			}
			select {
			case out <- status:
			case <-ctx.Done():
				return
			}
			if status.CurrentStep.Terminal() {
				return
			}
		}
	}()
	return out, nil
}
