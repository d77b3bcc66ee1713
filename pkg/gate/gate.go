package gate

import (
	"runtime"
	"sync/atomic"
)

const (
	// TickPeriodMs is the period of the gate ticker.
	TickPeriodMs = 1
	// raceThreshold bounds the register value below which a pending overflow
	// is taken to have happened before the snapshot.
	raceThreshold = 256
)

// State of a gate.
type State uint8

const (
	Idle State = iota
	Gating
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Gating:
		return "gating"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// Gate counts edges of an external signal over a window of whole milliseconds.
//
// HandleOverflow and HandleTick are meant to be bound to the counter overflow
// and ticker compare interrupts. They never run concurrently with each other,
// but may preempt the foreground at any point. The foreground owns Start,
// Wait and Result.
type Gate struct {
	counter EdgeCounter
	ticker  Ticker
	clock   Clock

	overflows atomic.Uint32
	ticks     atomic.Uint32
	period    atomic.Uint32
	total     atomic.Uint32
	corrected atomic.Bool
	lastOvf   atomic.Uint32

	active atomic.Bool
	ready  atomic.Bool
}

// New creates a gate bound to the given peripherals. clock may be nil.
func New(counter EdgeCounter, ticker Ticker, clock Clock) *Gate {
	return &Gate{
		counter: counter,
		ticker:  ticker,
		clock:   clock,
	}
}

// Start resets all counters and opens a gate of durationMs milliseconds.
func (g *Gate) Start(durationMs uint16) error {
	if durationMs == 0 {
		return ErrInvalidConfiguration
	}
	if g.active.Load() || g.ready.Load() {
		return ErrGateActive
	}

	g.ready.Store(false)
	g.period.Store(uint32(durationMs))
	g.ticks.Store(0)
	g.overflows.Store(0)
	g.total.Store(0)
	g.lastOvf.Store(0)
	g.corrected.Store(false)
	g.active.Store(true)

	g.counter.Arm()
	g.ticker.Arm()
	return nil
}

// HandleOverflow counts one wrap of the edge counter register.
func (g *Gate) HandleOverflow() {
	g.overflows.Add(1)
}

// HandleTick advances the gate by one millisecond and closes it once the
// configured duration has elapsed.
func (g *Gate) HandleTick() {
	if !g.active.Load() {
		return
	}

	// grab the register before it moves any further
	count := g.counter.Count()
	overflows := g.overflows.Load()

	if g.ticks.Add(1) < g.period.Load() {
		return
	}

	// the register wrapped but the overflow handler has not run yet
	corrected := false
	if g.counter.OverflowPending() && count < raceThreshold {
		overflows++
		corrected = true
	}

	g.counter.Stop()
	g.ticker.Stop()

	g.total.Store(overflows<<16 + uint32(count))
	g.lastOvf.Store(overflows)
	g.corrected.Store(corrected)
	g.active.Store(false)
	g.ready.Store(true)
}

// State reports the current gate state.
func (g *Gate) State() State {
	switch {
	case g.active.Load():
		return Gating
	case g.ready.Load():
		return Ready
	}
	return Idle
}

// Ready reports whether a finished measurement is waiting to be read.
func (g *Gate) Ready() bool {
	return g.ready.Load()
}

// Wait spins until the gate closes. There is no timeout: a started gate
// always closes after its duration.
func (g *Gate) Wait() {
	for !g.ready.Load() {
		runtime.Gosched()
	}
}

// Result consumes the finished measurement and returns the gate to Idle.
func (g *Gate) Result() (Reading, error) {
	if !g.ready.Load() {
		return Reading{}, ErrNotReady
	}
	r := Reading{
		Edges:      g.total.Load(),
		Overflows:  g.lastOvf.Load(),
		DurationMs: uint16(g.period.Load()),
		Corrected:  g.corrected.Load(),
	}
	g.ready.Store(false)
	return r, nil
}

// Measure runs one complete gate in the foreground: the bookkeeping clock is
// suspended for the duration of the gate and resumed afterwards.
func (g *Gate) Measure(durationMs uint16) (Reading, error) {
	if g.clock != nil {
		g.clock.Suspend()
		defer g.clock.Resume()
	}
	if err := g.Start(durationMs); err != nil {
		return Reading{}, err
	}
	g.Wait()
	return g.Result()
}
