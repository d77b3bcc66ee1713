package fc

// Device defines the interface for frequency counter devices (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Readings() <-chan Reading
	SetGate(durationMs uint16) error
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
