package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"sitfit-api/internal/infra/metrics"
)

// PoolStatsFunc reports total, idle and in-use connections.
type PoolStatsFunc func() (total, idle, inUse int32)

// PoolStatsWorker periodically publishes connection pool gauges.
type PoolStatsWorker struct {
	interval time.Duration
	stats    PoolStatsFunc
	log      *zerolog.Logger
}

func NewPoolStatsWorker(interval time.Duration, stats PoolStatsFunc, logger *zerolog.Logger) *PoolStatsWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	l := logger.With().Str("component", "PoolStatsWorker").Logger()
	return &PoolStatsWorker{interval: interval, stats: stats, log: &l}
}

func (w *PoolStatsWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting pool stats worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.publish()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping pool stats worker")
			return ctx.Err()
		case <-ticker.C:
			w.publish()
		}
	}
}

func (w *PoolStatsWorker) publish() {
	total, idle, inUse := w.stats()
	metrics.SetDBPoolStats(total, idle, inUse)
	w.log.Trace().Int32("total", total).Int32("idle", idle).Int32("in_use", inUse).Msg("pool stats")
}
