package live

import (
	"context"
	"time"

	"github.com/banshee-data/sweepview/internal/timeutil"
)

// DefaultFPS is the live tick rate.
const DefaultFPS = 10

// IntervalForFPS converts a frame rate into a tick interval.
func IntervalForFPS(fps int) time.Duration {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}

// Runner cooks a Preview on every clock tick.
type Runner struct {
	Preview  *Preview
	Clock    timeutil.Clock
	Interval time.Duration
}

// Run ticks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	clock := r.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	interval := r.Interval
	if interval <= 0 {
		interval = IntervalForFPS(DefaultFPS)
	}
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			if err := r.Preview.Cook(ctx); err != nil {
				return err
			}
		}
	}
}
