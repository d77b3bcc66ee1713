package sim

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/itohio/gofreq/pkg/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_Edges(t *testing.T) {
	s := NewSignal(1500)

	// 1.5 edges per ms: fractions carry over
	assert.Equal(t, uint64(1), s.Edges(time.Millisecond))
	assert.Equal(t, uint64(2), s.Edges(time.Millisecond))
	assert.Equal(t, uint64(1), s.Edges(time.Millisecond))
	assert.Equal(t, uint64(1500), s.Edges(time.Second))

	s.SetFrequency(-5)
	assert.Equal(t, 0.0, s.Frequency())
	assert.Equal(t, uint64(0), s.Edges(time.Second))
}

func TestCounter_Wrap(t *testing.T) {
	c := NewCounter()
	overflows := 0
	c.OnOverflow(func() { overflows++ })

	// stopped counters ignore edges
	assert.Equal(t, 0, c.Add(10))
	assert.Equal(t, uint16(0), c.Count())

	c.Arm()
	assert.Equal(t, 0, c.Add(65535))
	assert.False(t, c.OverflowPending())
	assert.Equal(t, 1, c.Add(3))
	assert.Equal(t, uint16(2), c.Count())
	assert.True(t, c.OverflowPending())

	assert.True(t, c.Service())
	assert.False(t, c.OverflowPending())
	assert.Equal(t, 1, overflows)
	assert.False(t, c.Service())

	// pending flags are not delivered once the interrupt is disabled
	c.Add(0x10000)
	c.Stop()
	assert.True(t, c.OverflowPending())
	assert.False(t, c.Service())

	// arming clears a stale flag
	c.Arm()
	assert.False(t, c.OverflowPending())
}

func TestBench_Accuracy(t *testing.T) {
	tests := []struct {
		hz       float64
		duration uint16
	}{
		{10, 1000},
		{333.3, 500},
		{1000, 500},
		{65536, 250},
		{123456.7, 500},
		{1e6, 100},
		{2e6, 1000},
		{8e6, 500},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.1fHz_%dms", tt.hz, tt.duration), func(t *testing.T) {
			b := NewBench(tt.hz)
			r, err := b.Measure(tt.duration)
			require.NoError(t, err)
			assert.Equal(t, tt.duration, r.DurationMs)
			assert.InDelta(t, tt.hz, r.Hz(), gate.Resolution(tt.duration))
			assert.Equal(t, time.Duration(tt.duration)*time.Millisecond, b.Elapsed())
		})
	}
}

func TestBench_1kHzScenario(t *testing.T) {
	b := NewBench(1000)
	r, err := b.Measure(500)
	require.NoError(t, err)
	assert.Equal(t, uint32(500), r.Edges)
	assert.Equal(t, "Frequency: 1000 Hz.", string(r.AppendLine(nil)))
}

func TestBench_2MHzScenario(t *testing.T) {
	b := NewBench(2e6)
	r, err := b.Measure(1000)
	require.NoError(t, err)
	assert.Equal(t, uint32(2000000), r.Edges)
	assert.Equal(t, uint32(2000000>>16), r.Overflows)
	assert.InDelta(t, 2e6, r.Hz(), 1)
}

func TestBench_RaceCorrection(t *testing.T) {
	// wraps five edges before the only tick
	const hz = 65541000

	b := NewBench(hz)
	r, err := b.Measure(1)
	require.NoError(t, err)
	assert.True(t, r.Corrected)
	assert.Equal(t, uint32(1), r.Overflows)
	assert.Equal(t, uint32(65541), r.Edges)

	// same signal with an instant overflow vector needs no correction
	b = NewBench(hz)
	b.OverflowLatency = 0
	r, err = b.Measure(1)
	require.NoError(t, err)
	assert.False(t, r.Corrected)
	assert.Equal(t, uint32(65541), r.Edges)
}

func TestBench_IndependentMeasurements(t *testing.T) {
	b := NewBench(5000)
	first, err := b.Measure(200)
	require.NoError(t, err)

	b.Signal.SetFrequency(20000)
	second, err := b.Measure(200)
	require.NoError(t, err)

	assert.InDelta(t, 5000, first.Hz(), gate.Resolution(200))
	assert.InDelta(t, 20000, second.Hz(), gate.Resolution(200))
}

func TestBench_StartDrivesForegroundWait(t *testing.T) {
	b := NewBench(40000)
	ctx, cancel := context.WithCancel(context.Background())
	done := b.Start(ctx)

	for range 3 {
		r, err := b.Gate.Measure(50)
		require.NoError(t, err)
		assert.InDelta(t, 40000, r.Hz(), gate.Resolution(50))
	}
	assert.Equal(t, 3, b.Clock.Suspends())
	assert.False(t, b.Clock.Suspended())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("bench goroutine did not stop")
	}
}
