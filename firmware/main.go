//go:build tinygo && avr

//go:generate tinygo flash -target=arduino

package main

import (
	"machine"
	"time"

	"github.com/itohio/gofreq/pkg/blink"
	"github.com/itohio/gofreq/pkg/gate"
)

var (
	uart = machine.UART0

	gateMs   uint16 = DEFAULT_GATE_MS
	commands gate.CommandReader
	led      = blink.New(BLINK_INTERVAL_MS * time.Millisecond)

	// Report line buffer, reused for every gate
	line [32]byte
	crlf = []byte("\r\n")
)

func main() {
	PIN_SIGNAL.Configure(machine.PinConfig{Mode: machine.PinInput})
	PIN_LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	configureInterrupts()
	screen := newDisplay()

	uart.Write([]byte("Frequency Counter\r\n"))

	start := time.Now()
	for {
		r, err := counter.Measure(gateMs)
		if err != nil {
			println("gate:", err.Error())
		} else {
			out := r.AppendLine(line[:0])
			uart.Write(out)
			uart.Write(crlf)
			screen.show(out, r.DurationMs)
		}

		// Timer0 is running again: serve the heartbeat and commands while settling
		settle := time.Now()
		for time.Since(settle) < SETTLE_DELAY_MS*time.Millisecond {
			if level, changed := led.Update(time.Since(start)); changed {
				PIN_LED.Set(level)
			}
			processSerial()
			time.Sleep(time.Millisecond)
		}
	}
}

// processSerial applies "G<ms>" gate commands from the host.
func processSerial() {
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}
		if ms, ok := commands.Feed(data); ok {
			gateMs = ms
		}
	}
}
