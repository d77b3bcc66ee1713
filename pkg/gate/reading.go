package gate

import "strconv"

// Reading is the outcome of one gate.
type Reading struct {
	Edges      uint32 // total edges counted during the gate
	Overflows  uint32 // register wraps, including a corrected one
	DurationMs uint16 // gate length
	Corrected  bool   // pending overflow was folded into the count
}

// Hz returns the measured frequency.
func (r Reading) Hz() float64 {
	if r.DurationMs == 0 {
		return 0
	}
	return float64(r.Edges) * 1000.0 / float64(r.DurationMs)
}

// AppendLine appends the report line "Frequency: <Hz> Hz." to dst.
// The value is truncated to whole hertz.
func (r Reading) AppendLine(dst []byte) []byte {
	dst = append(dst, "Frequency: "...)
	dst = strconv.AppendUint(dst, uint64(r.Hz()), 10)
	return append(dst, " Hz."...)
}

// Resolution returns the frequency step of a gate of durationMs.
func Resolution(durationMs uint16) float64 {
	if durationMs == 0 {
		return 0
	}
	return 1000.0 / float64(durationMs)
}
