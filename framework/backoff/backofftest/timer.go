// Package backofftest provides test doubles for the backoff package.
package backofftest

import (
	"sync"
	"time"
)

// RecordingTimer fires immediately and remembers every requested delay.
type RecordingTimer struct {
	mu    sync.Mutex
	slept []time.Duration
}

// NewRecordingTimer returns an empty RecordingTimer.
func NewRecordingTimer() *RecordingTimer {
	return &RecordingTimer{}
}

// After implements backoff.Timer.
func (t *RecordingTimer) After(d time.Duration) <-chan time.Time {
	t.mu.Lock()
	t.slept = append(t.slept, d)
	t.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

// Slept returns a copy of the recorded delays, in order.
func (t *RecordingTimer) Slept() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.slept...)
}

// Total returns the sum of the recorded delays.
func (t *RecordingTimer) Total() time.Duration {
	var total time.Duration
	for _, d := range t.Slept() {
		total += d
	}
	return total
}

// Reset forgets all recorded delays.
func (t *RecordingTimer) Reset() {
	t.mu.Lock()
	t.slept = nil
	t.mu.Unlock()
}
