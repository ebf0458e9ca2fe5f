package session

import (
	"context"
	"time"

	"oauth-service/internal/logger"
)

// Cleaner reclaims expired sessions on a fixed interval, decoupled
// from request handling. Failures are logged and the schedule
// continues.
type Cleaner struct {
	manager  *Manager
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewCleaner(manager *Manager, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Cleaner{
		manager:  manager,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background loop. Call Stop to end it.
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Cleaner) run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep(ctx)
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Cleaner) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	count, err := c.manager.CleanupExpired(sweepCtx)
	if err != nil {
		logger.Error("session cleanup failed", map[string]any{"error": err.Error()})
		return
	}
	if count > 0 {
		logger.Info("expired sessions reclaimed", map[string]any{"count": count})
	}
}

// Stop ends the loop and waits for the in-flight sweep to finish.
func (c *Cleaner) Stop() {
	close(c.stop)
	<-c.done
}
