package meter

import (
	"testing"
	"time"

	"github.com/itohio/gofreq/pkg/config"
	"github.com/itohio/gofreq/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(window, threshold float64) *config.Config {
	return &config.Config{
		Measurement: config.MeasurementConfig{
			WindowSeconds: window,
			StepThreshold: threshold,
		},
	}
}

func TestNew(t *testing.T) {
	m := New(config.Default())

	assert.NotNil(t, m)
	assert.Len(t, m.Samples(), 0)
	assert.Len(t, m.Steps(), 0)
	assert.Equal(t, Stats{}, m.Stats())
}

func TestProcessSample_Window(t *testing.T) {
	m := New(testConfig(2, 5))

	now := time.Now()
	for i := range 6 {
		m.processSample(sample.Sample{
			Timestamp:  now.Add(time.Duration(i) * 500 * time.Millisecond),
			Frequency:  1000,
			Resolution: 2,
		})
	}

	// 2 s window at 500 ms spacing keeps the 4 newest samples
	samples := m.Samples()
	require.Len(t, samples, 4)
	assert.Equal(t, now.Add(1000*time.Millisecond), samples[0].Timestamp)
	assert.Equal(t, now.Add(2500*time.Millisecond), samples[3].Timestamp)
}

func TestProcessSample_Steps(t *testing.T) {
	m := New(testConfig(100, 5))

	now := time.Now()
	freqs := []float64{1000, 1002, 998, 1000, 2000, 2002, 1000}
	for i, f := range freqs {
		m.processSample(sample.Sample{
			Timestamp:  now.Add(time.Duration(i) * time.Second),
			Frequency:  f,
			Resolution: 2,
		})
	}

	steps := m.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, 4, steps[0].Index)
	assert.Equal(t, 1000.0, steps[0].From)
	assert.Equal(t, 2000.0, steps[0].To)
	assert.Equal(t, 6, steps[1].Index)
	assert.Equal(t, 2002.0, steps[1].From)
	assert.Equal(t, 1000.0, steps[1].To)
}

func TestProcessSample_StepsTrimmed(t *testing.T) {
	m := New(testConfig(2, 1))

	now := time.Now()
	m.processSample(sample.Sample{Timestamp: now, Frequency: 100, Resolution: 1})
	m.processSample(sample.Sample{Timestamp: now.Add(time.Second), Frequency: 200, Resolution: 1})
	require.Len(t, m.Steps(), 1)

	m.processSample(sample.Sample{Timestamp: now.Add(2 * time.Second), Frequency: 200, Resolution: 1})
	// first sample dropped: step has no predecessor in the window any more
	assert.Len(t, m.Steps(), 0)
}

func TestProcessSample_StepsDisabled(t *testing.T) {
	m := New(testConfig(100, 0))

	now := time.Now()
	m.processSample(sample.Sample{Timestamp: now, Frequency: 1})
	m.processSample(sample.Sample{Timestamp: now.Add(time.Second), Frequency: 1e6})
	assert.Len(t, m.Steps(), 0)
}

func TestComputeStats(t *testing.T) {
	samples := []sample.Sample{
		{Frequency: 2}, {Frequency: 4}, {Frequency: 4}, {Frequency: 4},
		{Frequency: 5}, {Frequency: 5}, {Frequency: 7}, {Frequency: 9},
	}

	st := computeStats(samples)
	assert.Equal(t, 8, st.Count)
	assert.InDelta(t, 5.0, st.Mean, 1e-9)
	assert.Equal(t, 2.0, st.Min)
	assert.Equal(t, 9.0, st.Max)
	assert.InDelta(t, 2.138089935, st.StdDev, 1e-6)

	single := computeStats(samples[:1])
	assert.Equal(t, 1, single.Count)
	assert.Equal(t, 0.0, single.StdDev)
}

func TestReset(t *testing.T) {
	m := New(testConfig(100, 1))
	now := time.Now()
	m.processSample(sample.Sample{Timestamp: now, Frequency: 1, Resolution: 1})
	m.processSample(sample.Sample{Timestamp: now.Add(time.Second), Frequency: 10, Resolution: 1})

	m.Reset()
	assert.Len(t, m.Samples(), 0)
	assert.Len(t, m.Steps(), 0)
}

func TestOnUpdate(t *testing.T) {
	m := New(testConfig(100, 5))

	var got []Stats
	m.OnUpdate(func(samples []sample.Sample, steps []Step, stats Stats) {
		assert.Len(t, samples, stats.Count)
		got = append(got, stats)
	})

	now := time.Now()
	m.processSample(sample.Sample{Timestamp: now, Frequency: 10, Resolution: 1})
	m.processSample(sample.Sample{Timestamp: now.Add(time.Second), Frequency: 20, Resolution: 1})

	require.Len(t, got, 2)
	assert.Equal(t, 15.0, got[1].Mean)
}
