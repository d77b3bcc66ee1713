package sim

import (
	"sync"

	"github.com/itohio/gofreq/pkg/gate"
)

var (
	_ gate.Ticker = (*Ticker)(nil)
	_ gate.Clock  = (*Clock)(nil)
)

// Ticker models a compare-match timer with a 1 ms period.
type Ticker struct {
	mu      sync.Mutex
	running bool
	matches uint64
	handler func()
	armed   chan struct{}
}

// NewTicker returns a stopped ticker.
func NewTicker() *Ticker {
	return &Ticker{armed: make(chan struct{}, 1)}
}

// OnTick registers the compare-match interrupt handler.
func (t *Ticker) OnTick(h func()) {
	t.mu.Lock()
	t.handler = h
	t.mu.Unlock()
}

func (t *Ticker) Arm() {
	t.mu.Lock()
	t.running = true
	t.matches = 0
	t.mu.Unlock()

	select {
	case t.armed <- struct{}{}:
	default:
	}
}

func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
}

// Running reports whether the ticker is armed.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Matches returns the compare matches since the last Arm.
func (t *Ticker) Matches() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.matches
}

// Armed is signalled each time the ticker is armed.
func (t *Ticker) Armed() <-chan struct{} {
	return t.armed
}

// Fire delivers one compare match.
func (t *Ticker) Fire() bool {
	t.mu.Lock()
	if !t.running || t.handler == nil {
		t.mu.Unlock()
		return false
	}
	t.matches++
	h := t.handler
	t.mu.Unlock()

	h()
	return true
}

// Clock records suspension of the bookkeeping timer.
type Clock struct {
	mu        sync.Mutex
	suspended bool
	suspends  int
}

func (c *Clock) Suspend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspended = true
	c.suspends++
}

func (c *Clock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspended = false
}

// Suspended reports whether the clock is currently stopped.
func (c *Clock) Suspended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suspended
}

// Suspends returns how many times the clock was suspended.
func (c *Clock) Suspends() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suspends
}
