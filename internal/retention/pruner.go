// Package retention deletes readings older than the retention window.
package retention

import (
	"context"
	"time"

	"schutz/internal/logger"
	"schutz/internal/storage"
)

// Pruner periodically prunes old readings from the store.
type Pruner struct {
	store    storage.Store
	window   time.Duration
	interval time.Duration
}

// New creates a pruner. Window defaults to 24h, interval to 1h.
func New(store storage.Store, window, interval time.Duration) *Pruner {
	if window <= 0 {
		window = 24 * time.Hour
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Pruner{store: store, window: window, interval: interval}
}

// Run prunes once immediately, then on every tick until the context is
// cancelled.
func (p *Pruner) Run(ctx context.Context) {
	log := logger.WithComponent("retention")
	log.Info().
		Dur("window", p.window).
		Dur("interval", p.interval).
		Msg("retention pruner started")

	p.prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("retention pruner stopped")
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	log := logger.WithComponent("retention")
	cutoff := time.Now().UTC().Add(-p.window)

	if err := p.store.PruneReadingsBefore(ctx, cutoff); err != nil {
		log.Error().Err(err).Time("cutoff", cutoff).Msg("prune failed")
		return
	}
	log.Debug().Time("cutoff", cutoff).Msg("pruned old readings")
}
