package spi

import (
	"context"
	"time"
)

const DFLT_PERIOD = 10 * time.Millisecond

// Looper calls Step on every tick with the time elapsed since Run started.
type Looper struct {
	Period time.Duration
	Step   func(elapsed time.Duration) error
}

// RunUntil ticks l until ctx is done, Step fails or interrupt delivers a
// value, which is returned.
func RunUntil[T any](ctx context.Context, l *Looper, interrupt <-chan T) (T, error) {
	var zero T
	period := l.Period
	if period <= 0 {
		period = DFLT_PERIOD
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case v := <-interrupt:
			return v, nil

		case <-ctx.Done():
			return zero, ctx.Err()

		case t := <-ticker.C:
			if l.Step == nil {
				continue
			}
			if err := l.Step(t.Sub(start)); err != nil {
				return zero, err
			}
		}
	}
}
