package backoff

import (
	"context"
	"time"
)

// Timer schedules the sleeps between attempts. It matches retry-go's Timer so tests
// can swap in a timer that does not actually wait.
type Timer interface {
	After(time.Duration) <-chan time.Time
}

type realTimer struct{}

func (realTimer) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealTimer waits on the wall clock.
var RealTimer Timer = realTimer{}

// Sleep waits for d on the timer, returning early with the context's error if it is done first.
func Sleep(ctx context.Context, timer Timer, d time.Duration) error {
	if timer == nil {
		timer = RealTimer
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.After(d):
		return nil
	}
}
