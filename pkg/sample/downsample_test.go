package sample

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownsampleSamples_NoDownsampling(t *testing.T) {
	now := time.Now()
	samples := []Sample{
		{Timestamp: now, Frequency: 1000, Resolution: 2},
		{Timestamp: now.Add(500 * time.Millisecond), Frequency: 1002, Resolution: 2},
		{Timestamp: now.Add(time.Second), Frequency: 998, Resolution: 2},
	}

	// Test with nil dst
	result := DownsampleSamples(nil, samples, 10)
	require.Equal(t, 3, len(result))
	assert.Equal(t, samples, result)

	// Test with sufficient capacity dst
	dst := make([]Sample, 0, 10)
	result = DownsampleSamples(dst, samples, 10)
	require.Equal(t, 3, len(result))
	assert.Equal(t, samples, result)
	// Should reuse dst
	assert.Equal(t, cap(dst), cap(result))
}

func TestDownsampleSamples_WithDownsampling(t *testing.T) {
	now := time.Now()
	samples := make([]Sample, 100)
	for i := range 100 {
		samples[i] = Sample{
			Timestamp: now.Add(time.Duration(i) * 500 * time.Millisecond),
			Frequency: float64(i),
		}
	}

	dst := make([]Sample, 0, 20)
	result := DownsampleSamples(dst, samples, 10)
	require.Equal(t, 10, len(result))

	// Should always include first sample
	assert.Equal(t, samples[0], result[0])
	// Should span the range
	assert.GreaterOrEqual(t, result[len(result)-1].Frequency, 80.0)
	assert.Equal(t, cap(dst), cap(result))
}

func TestDownsampleSamples_SmallDestination(t *testing.T) {
	samples := make([]Sample, 50)
	dst := make([]Sample, 0, 2)

	result := DownsampleSamples(dst, samples, 10)
	assert.Len(t, result, 10)
	assert.GreaterOrEqual(t, cap(result), 10)

	result = DownsampleSamples(dst, samples[:5], 10)
	assert.Len(t, result, 5)
}

func TestDownsampleSamples_KeepsOutlier(t *testing.T) {
	now := time.Now()
	samples := make([]Sample, 100)
	for i := range samples {
		samples[i] = Sample{
			Timestamp: now.Add(time.Duration(i) * time.Second),
			Frequency: 1000,
		}
	}
	// a single gate off by 1 kHz, not on a plain decimation index
	samples[37].Frequency = 2000

	result := DownsampleSamples(nil, samples, 10)
	require.Len(t, result, 10)
	assert.Equal(t, samples[37], result[3])

	// order is preserved
	for i := 1; i < len(result); i++ {
		assert.True(t, result[i].Timestamp.After(result[i-1].Timestamp))
	}
}

func TestDownsampleSamples_KeepsStepEdge(t *testing.T) {
	samples := make([]Sample, 40)
	for i := range samples {
		samples[i].Frequency = 1000
		if i >= 22 {
			samples[i].Frequency = 5000
		}
	}

	result := DownsampleSamples(nil, samples, 4)
	require.Len(t, result, 4)
	assert.Equal(t, []float64{1000, 1000, 5000, 5000}, []float64{
		result[0].Frequency, result[1].Frequency, result[2].Frequency, result[3].Frequency,
	})
	// bucket 20..29 keeps the first sample after the step
	assert.Equal(t, samples[22], result[2])
}
