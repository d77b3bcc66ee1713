package sample

import "math"

// DownsampleSamples downsamples a slice of samples to a maximum number of points.
// Samples are split into maxPoints consecutive buckets. Each bucket keeps the
// sample farthest in frequency from the one kept before it, so a step or a
// single outlying gate survives decimation instead of falling between picks.
// The first bucket always keeps the first sample.
// If len(samples) <= maxPoints, copies all samples to dst (or allocates if dst is nil/too small).
// Destination-based: reuses dst if it has sufficient capacity, otherwise allocates new.
// Returns the destination slice (may be dst if reused, or a new slice if dst was too small).
func DownsampleSamples(dst []Sample, samples []Sample, maxPoints int) []Sample {
	if len(samples) <= maxPoints {
		// Need to copy all samples
		if cap(dst) >= len(samples) {
			dst = dst[:len(samples)]
			copy(dst, samples)
			return dst
		}
		// dst too small, allocate new
		result := make([]Sample, len(samples))
		copy(result, samples)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0] // Reset length but keep capacity
	} else {
		dst = make([]Sample, 0, maxPoints)
	}

	// Bucket width in samples
	step := float64(len(samples)) / float64(maxPoints)

	for i := range maxPoints {
		lo := int(float64(i) * step)
		hi := min(int(float64(i+1)*step), len(samples))
		if lo >= hi {
			continue
		}

		pick := lo
		if len(dst) > 0 {
			ref := dst[len(dst)-1].Frequency
			for j := lo + 1; j < hi; j++ {
				if math.Abs(samples[j].Frequency-ref) > math.Abs(samples[pick].Frequency-ref) {
					pick = j
				}
			}
		}
		dst = append(dst, samples[pick])
	}

	return dst
}
