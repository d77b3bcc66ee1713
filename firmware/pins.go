//go:build tinygo && avr

package main

import "machine"

const (
	// Signal input: Timer1 external clock T1 is hardwired to D5 (PD5)
	PIN_SIGNAL = machine.D5

	// Heartbeat LED
	PIN_LED = machine.LED

	// Gate configuration
	DEFAULT_GATE_MS = 500 // 2 Hz resolution
	SETTLE_DELAY_MS = 200 // Pause between gates for reporting and serial commands

	// Heartbeat toggles while the counter idles between gates
	BLINK_INTERVAL_MS = 1000

	// Serial configuration
	// Longest line "Frequency: 8000000 Hz.\n" = 23 bytes, at most 100 lines/sec with a 10 ms gate
	// UART 8N1: 10 bits/byte = 23,000 baud minimum. 115200 gives ample headroom.
	UART_BAUD_RATE = 115200

	// SSD1306 128x32 on the I2C bus (A4/A5); the counter runs without it
	DISPLAY_ENABLED = true
	DISPLAY_WIDTH   = 128
	DISPLAY_HEIGHT  = 32
	DISPLAY_ADDRESS = 0x3C
)
