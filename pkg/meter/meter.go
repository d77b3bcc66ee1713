package meter

import (
	"math"
	"sync"
	"time"

	"github.com/itohio/gofreq/pkg/config"
	"github.com/itohio/gofreq/pkg/sample"
)

var _ FrequencyMeter = (*Meter)(nil)

// Step is a change of the measured frequency between two consecutive samples
// that exceeds the configured number of gate resolutions.
type Step struct {
	Index int       // Index of the sample after the change
	Time  time.Time // Timestamp of that sample
	From  float64   // Frequency before the step (Hz)
	To    float64   // Frequency after the step (Hz)
}

// Stats summarises the samples in the window.
type Stats struct {
	Count  int
	Mean   float64
	Min    float64
	Max    float64
	StdDev float64
}

// FrequencyMeter processes samples, maintains a time window and detects steps.
type FrequencyMeter interface {
	ProcessSamples(input <-chan sample.Sample)
	Samples() []sample.Sample // Current window (FIFO, ordered first to last)
	Steps() []Step            // Steps detected within window
	Stats() Stats             // Statistics of the window
	OnUpdate(func(samples []sample.Sample, steps []Step, stats Stats))
}

// Meter implements FrequencyMeter.
// Removal from the window is based on timestamp, not number of samples.
type Meter struct {
	samples []sample.Sample
	steps   []Step

	mu sync.RWMutex

	callbacks []func(samples []sample.Sample, steps []Step, stats Stats)
	cbMu      sync.RWMutex

	windowDuration time.Duration
	stepThreshold  float64

	// Set when the input channel closes, prevents further callbacks
	shutdown bool
}

// New creates a new Meter instance.
func New(cfg *config.Config) *Meter {
	return &Meter{
		samples:        make([]sample.Sample, 0),
		steps:          make([]Step, 0),
		windowDuration: time.Duration(cfg.Measurement.WindowSeconds * float64(time.Second)),
		stepThreshold:  cfg.Measurement.StepThreshold,
	}
}

// ProcessSamples consumes the input channel until it closes.
// When the input channel closes, it sets shutdown flag to prevent further callbacks.
func (m *Meter) ProcessSamples(input <-chan sample.Sample) {
	for s := range input {
		m.processSample(s)
	}
	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()
}

// processSample adds a sample to the window, trims it and detects steps.
func (m *Meter) processSample(s sample.Sample) {
	m.mu.Lock()

	m.samples = append(m.samples, s)
	m.trim(s.Timestamp.Add(-m.windowDuration))
	m.detectStep()

	shouldNotify := !m.shutdown
	m.mu.Unlock()

	if shouldNotify {
		m.notifyCallbacks()
	}
}

// trim drops samples at or before cutoff and shifts step indices.
func (m *Meter) trim(cutoff time.Time) {
	cutoffIndex := 0
	for i, s := range m.samples {
		if s.Timestamp.After(cutoff) {
			cutoffIndex = i
			break
		}
	}
	if cutoffIndex == 0 {
		return
	}

	m.samples = m.samples[cutoffIndex:]

	valid := m.steps[:0]
	for _, st := range m.steps {
		st.Index -= cutoffIndex
		if st.Index > 0 {
			valid = append(valid, st)
		}
	}
	m.steps = valid
}

// detectStep compares the newest sample with its predecessor.
func (m *Meter) detectStep() {
	n := len(m.samples)
	if n < 2 || m.stepThreshold <= 0 {
		return
	}
	prev, curr := m.samples[n-2], m.samples[n-1]

	res := math.Max(prev.Resolution, curr.Resolution)
	if res <= 0 {
		res = 1
	}
	if math.Abs(curr.Frequency-prev.Frequency) <= m.stepThreshold*res {
		return
	}

	m.steps = append(m.steps, Step{
		Index: n - 1,
		Time:  curr.Timestamp,
		From:  prev.Frequency,
		To:    curr.Frequency,
	})
}

// Samples returns a copy of the current window.
func (m *Meter) Samples() []sample.Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]sample.Sample, len(m.samples))
	copy(result, m.samples)
	return result
}

// Steps returns a copy of the detected steps.
func (m *Meter) Steps() []Step {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Step, len(m.steps))
	copy(result, m.steps)
	return result
}

// Stats returns statistics of the current window.
func (m *Meter) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return computeStats(m.samples)
}

func computeStats(samples []sample.Sample) Stats {
	if len(samples) == 0 {
		return Stats{}
	}

	st := Stats{
		Count: len(samples),
		Min:   samples[0].Frequency,
		Max:   samples[0].Frequency,
	}

	var sum float64
	for _, s := range samples {
		sum += s.Frequency
		st.Min = math.Min(st.Min, s.Frequency)
		st.Max = math.Max(st.Max, s.Frequency)
	}
	st.Mean = sum / float64(st.Count)

	if st.Count > 1 {
		var sq float64
		for _, s := range samples {
			d := s.Frequency - st.Mean
			sq += d * d
		}
		st.StdDev = math.Sqrt(sq / float64(st.Count-1))
	}

	return st
}

// OnUpdate registers a callback function that will be called when samples are updated.
// The callback should copy data quickly and return as fast as possible.
func (m *Meter) OnUpdate(callback func(samples []sample.Sample, steps []Step, stats Stats)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// ResetShutdown resets the shutdown flag, allowing callbacks to be sent again.
// This should be called before starting a new measurement chain.
func (m *Meter) ResetShutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = false
}

// Reset clears the window and detected steps.
func (m *Meter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = m.samples[:0]
	m.steps = m.steps[:0]
}

// notifyCallbacks invokes all registered callbacks with current data.
// Makes copies of data while holding read lock, then calls callbacks without lock.
func (m *Meter) notifyCallbacks() {
	m.mu.RLock()
	samplesCopy := make([]sample.Sample, len(m.samples))
	copy(samplesCopy, m.samples)
	stepsCopy := make([]Step, len(m.steps))
	copy(stepsCopy, m.steps)
	stats := computeStats(m.samples)
	m.mu.RUnlock()

	m.cbMu.RLock()
	callbacks := make([]func(samples []sample.Sample, steps []Step, stats Stats), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(samplesCopy, stepsCopy, stats)
		}
	}
}
