package fc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/itohio/gofreq/pkg/gate"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate matches the firmware UART configuration.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the readings channel buffer.
	DefaultBufferSize = 100
	// MinGateMs and MaxGateMs bound the gate durations the firmware accepts.
	MinGateMs = gate.MinCommandMs
	MaxGateMs = gate.MaxCommandMs

	bannerLine = "Frequency Counter"
	linePrefix = "Frequency:"
	lineSuffix = "Hz."
)

// Reading is one completed gate as seen by the host.
type Reading struct {
	Timestamp time.Time
	Frequency float64       // Hz
	Gate      time.Duration // gate length the reading was taken with
}

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the counter MCU.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      io.ReadWriteCloser
	readings  chan Reading
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	gate      time.Duration
	// Lines still to drop after a gate command; the firmware finishes the
	// gate it is running before the new duration applies.
	stale int
}

// New creates a new Serial device with the specified port, baud rate, and buffer size.
// gateMs is the gate the firmware is expected to run; it is pushed on Connect.
func New(port string, baudRate int, bufSize int, gateMs uint16) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:      port,
		baudRate:  baudRate,
		bufSize:   bufSize,
		readings:  make(chan Reading, bufSize),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
		gate:      time.Duration(gateMs) * time.Millisecond,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect connects to the serial port and starts reading frequency lines.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	if d.gate > 0 {
		if ms := d.gate / time.Millisecond; ms < MinGateMs || ms > MaxGateMs {
			return fmt.Errorf("gate duration %d ms out of range %d..%d", ms, MinGateMs, MaxGateMs)
		}
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.start(port)

	return nil
}

// start pushes the gate duration and begins reading conn. Caller holds the lock.
func (d *Serial) start(conn io.ReadWriteCloser) {
	d.conn = conn
	d.connected = true

	if d.gate > 0 {
		if err := d.writeGate(uint16(d.gate / time.Millisecond)); err != nil {
			log.Printf("Failed to push gate duration: %v", err)
		}
	}

	go d.readLines(conn)
}

// Close closes the connection and stops reading.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false

	close(d.readings)

	return nil
}

// Readings returns the channel of completed gates.
func (d *Serial) Readings() <-chan Reading {
	return d.readings
}

// SetGate asks the firmware to use a new gate duration.
func (d *Serial) SetGate(durationMs uint16) error {
	if durationMs < MinGateMs || durationMs > MaxGateMs {
		return fmt.Errorf("gate duration %d ms out of range %d..%d", durationMs, MinGateMs, MaxGateMs)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return fmt.Errorf("not connected")
	}

	return d.writeGate(durationMs)
}

// writeGate sends "G<ms>\n" and marks the next line as taken with the old
// gate. Caller holds the lock.
func (d *Serial) writeGate(durationMs uint16) error {
	_, err := d.conn.Write(FormatGateCommand(durationMs))
	if err != nil {
		return fmt.Errorf("failed to send gate command: %w", err)
	}
	d.gate = time.Duration(durationMs) * time.Millisecond
	d.stale = 1
	return nil
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readingGate returns the gate of the line just received, or false while the
// line may still belong to the gate before the last command.
func (d *Serial) readingGate() (time.Duration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stale > 0 {
		d.stale--
		return 0, false
	}
	return d.gate, true
}

// readLines reads lines from conn and parses them into readings.
func (d *Serial) readLines(conn io.Reader) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readLines: %v", r)
		}
	}()

	scanner := bufio.NewScanner(conn)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					if err != io.EOF {
						log.Printf("Error reading from serial port: %v", err)
					}
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" || line == bannerLine {
				continue
			}

			hz, err := parseLine(line)
			if err != nil {
				log.Printf("Failed to parse line '%s': %v", line, err)
				continue
			}

			gateLen, ok := d.readingGate()
			if !ok {
				log.Printf("Dropping reading taken before gate change: %g Hz", hz)
				continue
			}

			reading := Reading{
				Timestamp: time.Now(),
				Frequency: hz,
				Gate:      gateLen,
			}

			select {
			case d.readings <- reading:
			case <-d.ctx.Done():
				return
			default:
				log.Printf("Readings channel full, dropping reading")
			}
		}
	}
}

// parseLine parses a report line from the MCU.
// Format: Frequency: <hz> Hz.
// Example: Frequency: 1000 Hz.
func parseLine(line string) (float64, error) {
	rest, ok := strings.CutPrefix(line, linePrefix)
	if !ok {
		return 0, fmt.Errorf("invalid line format: missing %q prefix", linePrefix)
	}
	rest, ok = strings.CutSuffix(strings.TrimSpace(rest), lineSuffix)
	if !ok {
		return 0, fmt.Errorf("invalid line format: missing %q suffix", lineSuffix)
	}

	hz, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frequency: %w", err)
	}
	if hz < 0 {
		return 0, fmt.Errorf("frequency out of range: %g", hz)
	}

	return hz, nil
}

// FormatGateCommand renders the gate duration command understood by the firmware.
func FormatGateCommand(durationMs uint16) []byte {
	return gate.AppendCommand(make([]byte, 0, 8), durationMs)
}
