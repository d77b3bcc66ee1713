package sample

// NewAveragingConverter creates a moving average over the last windowSize
// samples. One averaged sample is emitted for every input sample.
func NewAveragingConverter(windowSize int, bufSize int) func(in <-chan Sample) <-chan Sample {
	if windowSize <= 0 {
		windowSize = 1 // No averaging if invalid
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan Sample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			buffer := make([]Sample, 0, windowSize)
			for s := range in {
				buffer = append(buffer, s)
				if len(buffer) > windowSize {
					buffer = buffer[1:] // Remove oldest
				}
				out <- averageSamples(buffer)
			}
		}()

		return out
	}
}

// averageSamples averages a slice of Samples.
// Uses the most recent sample's timestamp. Resolution improves with the
// number of gates averaged.
func averageSamples(samples []Sample) Sample {
	if len(samples) == 0 {
		return Sample{}
	}

	var sumFreq, sumRes float64
	lastSample := samples[len(samples)-1]

	for _, s := range samples {
		sumFreq += s.Frequency
		sumRes += s.Resolution
	}

	n := float64(len(samples))
	return Sample{
		Timestamp:  lastSample.Timestamp,
		Frequency:  sumFreq / n,
		Resolution: sumRes / n / n,
	}
}
