package fc

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    float64
		wantErr bool
	}{
		{name: "valid line - 1 kHz", line: "Frequency: 1000 Hz.", want: 1000},
		{name: "valid line - zero", line: "Frequency: 0 Hz.", want: 0},
		{name: "valid line - 8 MHz", line: "Frequency: 8000000 Hz.", want: 8000000},
		{name: "valid line - fractional", line: "Frequency: 12.5 Hz.", want: 12.5},
		{name: "valid line - extra spaces", line: "Frequency:   440   Hz.", want: 440},
		{name: "invalid - banner", line: "Frequency Counter", wantErr: true},
		{name: "invalid - missing suffix", line: "Frequency: 1000", wantErr: true},
		{name: "invalid - missing prefix", line: "1000 Hz.", wantErr: true},
		{name: "invalid - non-numeric", line: "Frequency: abc Hz.", wantErr: true},
		{name: "invalid - negative", line: "Frequency: -10 Hz.", wantErr: true},
		{name: "invalid - empty value", line: "Frequency: Hz.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFormatGateCommand(t *testing.T) {
	assert.Equal(t, "G500\n", string(FormatGateCommand(500)))
	assert.Equal(t, "G10\n", string(FormatGateCommand(10)))
	assert.Equal(t, "G60000\n", string(FormatGateCommand(60000)))
}

func TestNew_Defaults(t *testing.T) {
	d := New("/dev/null", 0, 0, 500)
	assert.Equal(t, DefaultBaudRate, d.baudRate)
	assert.Equal(t, DefaultBufferSize, d.bufSize)
	assert.Equal(t, DefaultBufferSize, cap(d.readings))
	assert.False(t, d.IsConnected())

	assert.Error(t, d.SetGate(500), "not connected")
	assert.Error(t, d.SetGate(5), "out of range")
	assert.NoError(t, d.Close())
}

func TestConnect_GateOutOfRange(t *testing.T) {
	for _, ms := range []uint16{5, 60001} {
		d := New("/dev/null", 0, 0, ms)
		err := d.Connect()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of range")
		assert.False(t, d.IsConnected())
	}
}

// fakeConn is a serial connection fed through a pipe that records writes.
type fakeConn struct {
	*io.PipeReader
	mu      sync.Mutex
	written bytes.Buffer
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written.Write(p)
}

func (c *fakeConn) Written() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written.String()
}

func receive(t *testing.T, d *Serial) Reading {
	t.Helper()
	select {
	case r := <-d.Readings():
		return r
	case <-time.After(time.Second):
		t.Fatal("no reading received")
	}
	return Reading{}
}

func TestSerial_GateChangeDropsStaleLine(t *testing.T) {
	r, w := io.Pipe()
	conn := &fakeConn{PipeReader: r}

	d := New("test", 0, 0, 500)
	d.mu.Lock()
	d.start(conn)
	d.mu.Unlock()
	defer d.Close()

	assert.Equal(t, "G500\n", conn.Written())

	// The firmware may still be running its previous gate when connected
	_, err := io.WriteString(w, "Frequency Counter\nFrequency: 999 Hz.\nFrequency: 1000 Hz.\n")
	require.NoError(t, err)
	got := receive(t, d)
	assert.Equal(t, 1000.0, got.Frequency)
	assert.Equal(t, 500*time.Millisecond, got.Gate)

	require.NoError(t, d.SetGate(1000))
	assert.Equal(t, "G500\nG1000\n", conn.Written())

	_, err = io.WriteString(w, "Frequency: 1002 Hz.\nFrequency: 1001 Hz.\n")
	require.NoError(t, err)
	got = receive(t, d)
	assert.Equal(t, 1001.0, got.Frequency)
	assert.Equal(t, time.Second, got.Gate)

	select {
	case extra := <-d.Readings():
		t.Fatalf("unexpected reading %+v", extra)
	default:
	}
}
