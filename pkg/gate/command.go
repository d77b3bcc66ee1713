package gate

import "strconv"

const (
	// MinCommandMs and MaxCommandMs bound gate durations accepted over the wire.
	MinCommandMs = 10
	MaxCommandMs = 60000

	commandPrefix = 'G'
	maxDigits     = 5
)

// AppendCommand appends the gate duration command "G<ms>\n" to dst.
func AppendCommand(dst []byte, durationMs uint16) []byte {
	dst = append(dst, commandPrefix)
	dst = strconv.AppendUint(dst, uint64(durationMs), 10)
	return append(dst, '\n')
}

// CommandReader assembles gate commands from a byte stream without allocating.
// Whitespace is ignored, anything else outside "G<digits>" discards the line.
type CommandReader struct {
	digits  [maxDigits]byte
	n       int
	started bool
	invalid bool
}

// Feed consumes one byte. It returns the requested duration and true when a
// line terminator completes a valid command.
func (c *CommandReader) Feed(b byte) (uint16, bool) {
	switch {
	case b == '\n' || b == '\r':
		ms, ok := c.value()
		c.Reset()
		return ms, ok
	case b == ' ' || b == '\t':
	case b == commandPrefix && !c.started && !c.invalid:
		c.started = true
	case b >= '0' && b <= '9' && c.started && c.n < maxDigits:
		c.digits[c.n] = b
		c.n++
	default:
		c.invalid = true
	}
	return 0, false
}

// Reset drops any partially received command.
func (c *CommandReader) Reset() {
	*c = CommandReader{}
}

func (c *CommandReader) value() (uint16, bool) {
	if !c.started || c.invalid || c.n == 0 {
		return 0, false
	}
	var v uint32
	for _, d := range c.digits[:c.n] {
		v = v*10 + uint32(d-'0')
	}
	if v < MinCommandMs || v > MaxCommandMs {
		return 0, false
	}
	return uint16(v), true
}
