package sim

import (
	"math"
	"sync"
	"time"
)

// Signal is a square wave source that emits rising edges at a fixed rate.
type Signal struct {
	mu    sync.Mutex
	hz    float64
	phase float64 // fraction of the next edge already elapsed
}

// NewSignal creates a signal of the given frequency in Hz.
func NewSignal(hz float64) *Signal {
	return &Signal{hz: hz}
}

// Frequency returns the current signal frequency.
func (s *Signal) Frequency() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hz
}

// SetFrequency changes the frequency. The phase is kept.
func (s *Signal) SetFrequency(hz float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hz < 0 {
		hz = 0
	}
	s.hz = hz
}

// Edges returns the number of whole edges emitted during the next d.
func (s *Signal) Edges(d time.Duration) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.hz*float64(d)/float64(time.Second) + s.phase
	n := math.Floor(e)
	s.phase = e - n
	return uint64(n)
}
