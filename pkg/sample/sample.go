package sample

import (
	"log"
	"time"

	"github.com/itohio/gofreq/pkg/fc"
)

// Sample represents a processed frequency reading.
type Sample struct {
	Timestamp  time.Time
	Frequency  float64 // Hz
	Resolution float64 // Hz per counted edge for the gate used
}

// Converter is a function type that converts a Reading channel to a Sample channel.
type Converter func(in <-chan fc.Reading) <-chan Sample

// NewConverter creates a converter function that transforms Readings to Samples.
func NewConverter(bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan fc.Reading) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			for r := range in {
				sample, ok := convertReading(r)
				if !ok {
					log.Printf("Dropping reading with invalid gate %v", r.Gate)
					continue
				}

				select {
				case out <- sample:
				case <-time.After(time.Second):
					log.Printf("Converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// convertReading converts a Reading to a Sample.
func convertReading(r fc.Reading) (Sample, bool) {
	ms := r.Gate.Seconds() * 1000
	if ms <= 0 {
		return Sample{}, false
	}

	return Sample{
		Timestamp:  r.Timestamp,
		Frequency:  r.Frequency,
		Resolution: 1000 / ms,
	}, true
}
