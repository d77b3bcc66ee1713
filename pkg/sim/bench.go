package sim

import (
	"context"
	"time"

	"github.com/itohio/gofreq/pkg/gate"
)

// DefaultOverflowLatency is the time the overflow vector needs before it can
// run after a wrap.
const DefaultOverflowLatency = 2 * time.Microsecond

// Bench wires a gate to simulated peripherals driven by a Signal.
//
// Each Step covers one tick period. Edges arrive first; an overflow is serviced
// as soon as it happens unless it lands within OverflowLatency of the tick
// boundary, in which case the tick handler (higher priority) sees it pending.
type Bench struct {
	Signal  *Signal
	Counter *Counter
	Ticker  *Ticker
	Clock   *Clock
	Gate    *gate.Gate

	OverflowLatency time.Duration
	// Realtime paces steps to the wall clock.
	Realtime bool

	elapsed time.Duration
}

// NewBench creates a bench with a signal of hz.
func NewBench(hz float64) *Bench {
	b := &Bench{
		Signal:          NewSignal(hz),
		Counter:         NewCounter(),
		Ticker:          NewTicker(),
		Clock:           &Clock{},
		OverflowLatency: DefaultOverflowLatency,
	}
	b.Gate = gate.New(b.Counter, b.Ticker, b.Clock)
	b.Counter.OnOverflow(b.Gate.HandleOverflow)
	b.Ticker.OnTick(b.Gate.HandleTick)
	return b
}

// Elapsed returns simulated time.
func (b *Bench) Elapsed() time.Duration {
	return b.elapsed
}

// Step advances the bench by one tick period.
func (b *Bench) Step() {
	b.feed(b.Signal.Edges(gate.TickPeriodMs * time.Millisecond))
	b.Ticker.Fire()
	b.Counter.Service()
	b.elapsed += gate.TickPeriodMs * time.Millisecond
}

// feed clocks n edges into the counter, servicing every wrap that is far
// enough from the end of the step.
func (b *Bench) feed(n uint64) {
	hz := b.Signal.Frequency()
	for n > 0 && b.Counter.Running() {
		room := uint64(0x10000) - uint64(b.Counter.Count())
		if n < room {
			b.Counter.Add(n)
			return
		}
		b.Counter.Add(room)
		n -= room

		// edges left in this step arrive after the wrap
		if hz > 0 && float64(n)/hz >= b.OverflowLatency.Seconds() {
			b.Counter.Service()
		}
	}
}

// Run steps until the ticker stops.
func (b *Bench) Run() {
	for b.Ticker.Running() {
		b.Step()
	}
}

// Measure runs a whole gate synchronously.
func (b *Bench) Measure(durationMs uint16) (gate.Reading, error) {
	if err := b.Gate.Start(durationMs); err != nil {
		return gate.Reading{}, err
	}
	b.Run()
	return b.Gate.Result()
}

// Start drives the bench from a goroutine every time the ticker is armed, so
// the foreground can spin in Gate.Wait. A gate in progress always runs to
// completion; ctx is only checked between gates.
func (b *Bench) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		var pace <-chan time.Time
		if b.Realtime {
			t := time.NewTicker(gate.TickPeriodMs * time.Millisecond)
			defer t.Stop()
			pace = t.C
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-b.Ticker.Armed():
			}

			for b.Ticker.Running() {
				if pace != nil {
					<-pace
				}
				b.Step()
			}
		}
	}()

	return done
}
