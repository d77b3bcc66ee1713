// Package blink toggles an output at a fixed interval without blocking the
// caller's loop.
package blink

import "time"

// Blinker tracks when an LED should change state.
type Blinker struct {
	Interval time.Duration

	last    time.Duration
	level   bool
	started bool
}

// New creates a blinker toggling every interval.
func New(interval time.Duration) *Blinker {
	return &Blinker{Interval: interval}
}

// Update takes the current monotonic time and reports the output level and
// whether it changed on this call. The first call only latches the time.
func (b *Blinker) Update(now time.Duration) (level bool, changed bool) {
	if !b.started {
		b.started = true
		b.last = now
		return b.level, false
	}
	if b.Interval <= 0 || now-b.last < b.Interval {
		return b.level, false
	}
	b.last = now
	b.level = !b.level
	return b.level, true
}

// Level returns the current output level.
func (b *Blinker) Level() bool {
	return b.level
}
