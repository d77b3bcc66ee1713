package fc

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/itohio/gofreq/pkg/config"
	"github.com/itohio/gofreq/pkg/sim"
)

// Mock runs the gate controller against simulated counter hardware.
type Mock struct {
	cfg *config.MockConfig

	readings  chan Reading
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	done      chan struct{}

	bench     *sim.Bench
	gateMs    uint16
	settle    time.Duration
	startTime time.Time
	simTime   time.Duration
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.MockConfig, gateMs uint16, settle time.Duration) *Mock {
	if cfg == nil {
		def := config.Default()
		cfg = &def.Mock
	}
	if gateMs == 0 {
		gateMs = uint16(config.Default().Gate.DurationMs)
	}

	ctx, cancel := context.WithCancel(context.Background())

	bench := sim.NewBench(cfg.Frequency)
	bench.OverflowLatency = cfg.OverflowLatency
	bench.Realtime = cfg.Realtime

	return &Mock{
		cfg:      cfg,
		readings: make(chan Reading, DefaultBufferSize),
		ctx:      ctx,
		cancel:   cancel,
		bench:    bench,
		gateMs:   gateMs,
		settle:   settle,
	}
}

// Connect starts the simulated measurement loop.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.startTime = time.Now()
	m.done = make(chan struct{})

	go m.measure()

	return nil
}

// Close stops the mocked device. A gate in progress is allowed to finish.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	m.cancel()
	m.connected = false
	done := m.done
	m.mu.Unlock()

	<-done
	close(m.readings)

	return nil
}

// Readings returns the channel of completed gates.
func (m *Mock) Readings() <-chan Reading {
	return m.readings
}

// SetGate changes the gate duration used from the next gate on.
func (m *Mock) SetGate(durationMs uint16) error {
	if durationMs < MinGateMs || durationMs > MaxGateMs {
		return fmt.Errorf("gate duration %d ms out of range %d..%d", durationMs, MinGateMs, MaxGateMs)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}
	m.gateMs = durationMs
	return nil
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// measure is the simulated firmware loop. It owns the bench driver so that
// the driver outlives every gate this loop starts.
func (m *Mock) measure() {
	defer close(m.done)

	driverCtx, stopDriver := context.WithCancel(context.Background())
	driver := m.bench.Start(driverCtx)
	defer func() {
		stopDriver()
		<-driver
	}()

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		m.mu.RLock()
		gateMs := m.gateMs
		m.mu.RUnlock()

		m.bench.Signal.SetFrequency(m.frequencyAt(m.simTime))

		r, err := m.bench.Gate.Measure(gateMs)
		if err != nil {
			log.Printf("Mock gate failed: %v", err)
			return
		}
		m.simTime += time.Duration(gateMs)*time.Millisecond + m.settle

		reading := Reading{
			Timestamp: m.startTime.Add(m.simTime),
			Frequency: float64(uint64(r.Hz())), // firmware reports whole hertz
			Gate:      time.Duration(r.DurationMs) * time.Millisecond,
		}
		if m.cfg.Realtime {
			reading.Timestamp = time.Now()
		}

		select {
		case m.readings <- reading:
		case <-m.ctx.Done():
			return
		default:
			// Channel full, skip
		}

		if m.settle > 0 {
			select {
			case <-m.ctx.Done():
				return
			case <-time.After(m.settle):
			}
		}
	}
}

// frequencyAt returns the simulated signal frequency after elapsed time.
func (m *Mock) frequencyAt(elapsed time.Duration) float64 {
	f := m.cfg.Frequency
	if m.cfg.Drift != 0 && m.cfg.DriftPeriod > 0 {
		f += m.cfg.Drift * math.Sin(2*math.Pi*elapsed.Seconds()/m.cfg.DriftPeriod.Seconds())
	}
	return math.Max(f, 0)
}
