package snapshot

import (
	"context"
	"time"

	"github.com/punchclock/punchclock-backend/pkg/logger"
)

// Purger periodically drops expired snapshots from a Store.
type Purger struct {
	store    Store
	interval time.Duration
	logger   *logger.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewPurger creates a new purger
func NewPurger(store Store, interval time.Duration, log *logger.Logger) *Purger {
	return &Purger{
		store:    store,
		interval: interval,
		logger:   log,
	}
}

// Start runs the purge loop in a background goroutine until Stop or ctx ends.
func (p *Purger) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		p.logger.Info().Dur("interval", p.interval).Msg("snapshot purger started")

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Info().Msg("snapshot purger stopped")
				return
			case <-ticker.C:
				p.RunOnce(ctx)
			}
		}
	}()
}

// Stop stops the purge loop and waits for it to exit.
func (p *Purger) Stop() {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
}

// RunOnce purges once and logs the outcome.
func (p *Purger) RunOnce(ctx context.Context) int {
	n, err := p.store.Purge(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to purge recovery snapshots")
		return 0
	}
	if n > 0 {
		p.logger.Info().Int("purged", n).Msg("purged expired recovery snapshots")
	}
	return n
}
