package gate

// Error is a constant error type usable without fmt or errors on the MCU.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrInvalidConfiguration = Error("invalid gate duration")
	ErrGateActive           = Error("gate already active")
	ErrNotReady             = Error("measurement not ready")
)
