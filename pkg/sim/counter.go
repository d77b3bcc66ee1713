package sim

import (
	"sync"

	"github.com/itohio/gofreq/pkg/gate"
)

var _ gate.EdgeCounter = (*Counter)(nil)

// Counter models a 16-bit timer clocked by external edges.
type Counter struct {
	mu      sync.Mutex
	value   uint16
	pending bool
	running bool
	handler func()
}

// NewCounter returns a stopped counter.
func NewCounter() *Counter {
	return &Counter{}
}

// OnOverflow registers the overflow interrupt handler.
func (c *Counter) OnOverflow(h func()) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

func (c *Counter) Arm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = 0
	c.pending = false
	c.running = true
}

func (c *Counter) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
}

func (c *Counter) Count() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (c *Counter) OverflowPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Running reports whether the counter is counting edges.
func (c *Counter) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Add clocks n edges into the register and returns how many times it wrapped.
// A wrap raises the overflow flag; repeated wraps before Service are lost,
// as they would be in hardware.
func (c *Counter) Add(n uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return 0
	}
	total := uint64(c.value) + n
	c.value = uint16(total)
	wraps := int(total >> 16)
	if wraps > 0 {
		c.pending = true
	}
	return wraps
}

// Service runs the overflow handler if an overflow is pending and the
// interrupt is enabled. The flag is cleared on entry, as the vector does.
func (c *Counter) Service() bool {
	c.mu.Lock()
	if !c.running || !c.pending || c.handler == nil {
		c.mu.Unlock()
		return false
	}
	c.pending = false
	h := c.handler
	c.mu.Unlock()

	h()
	return true
}

// Set forces the register and overflow flag, for fault injection.
func (c *Counter) Set(value uint16, pending bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.pending = pending
}
