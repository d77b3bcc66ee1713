package gate

// EdgeCounter is a free running hardware counter clocked by the external signal.
type EdgeCounter interface {
	// Arm zeroes the register, clears a pending overflow and starts counting
	// with the overflow interrupt enabled.
	Arm()
	// Stop stops counting and disables the overflow interrupt.
	Stop()
	// Count reads the 16-bit register.
	Count() uint16
	// OverflowPending reports a wrap the overflow handler has not serviced yet.
	OverflowPending() bool
}

// Ticker fires the tick handler once per millisecond while armed.
type Ticker interface {
	Arm()
	Stop()
}

// Clock is the platform bookkeeping timer that must be quiet during a gate.
type Clock interface {
	Suspend()
	Resume()
}
