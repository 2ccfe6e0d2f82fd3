package engine

import (
	"context"
	"time"
)

// ClampInterval converts a poll interval in seconds to a duration no shorter
// than floor.
func ClampInterval(seconds int, floor time.Duration) time.Duration {
	d := time.Duration(seconds) * time.Second
	if d < floor {
		return floor
	}
	return d
}

// Run polls until ctx is cancelled. Each iteration reloads the persisted
// state, then either idles or runs a cycle. Failed iterations are retried
// after the backoff; the loop itself never gives up.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("poller started", "min_interval", e.opts.MinInterval, "backoff", e.opts.Backoff)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("poller stopped")
			return nil
		case <-timer.C:
		}
		timer.Reset(e.iterate(ctx))
	}
}

// iterate runs one loop step and returns how long to wait before the next
func (e *Engine) iterate(ctx context.Context) (next time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("poll iteration panicked", "panic", r, "backoff", e.opts.Backoff)
			next = e.opts.Backoff
		}
	}()

	snap, err := e.Reload(ctx)
	if err != nil {
		e.logger.Error("reload failed", "err", err, "backoff", e.opts.Backoff)
		return e.opts.Backoff
	}

	interval := ClampInterval(snap.Filter.PollInterval, e.opts.MinInterval)
	if !snap.Active {
		e.logger.Debug("watch inactive", "next", interval)
		return interval
	}

	if _, err := e.RunCycle(ctx); err != nil {
		e.logger.Error("cycle failed", "err", err, "backoff", e.opts.Backoff)
		return e.opts.Backoff
	}
	return interval
}
