//go:build tinygo && avr

package main

import (
	"image/color"
	"machine"
	"strconv"
	"unsafe"

	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var white = color.RGBA{255, 255, 255, 255}

// display shows the last reading on an optional SSD1306.
type display struct {
	dev     ssd1306.Device
	enabled bool
}

func newDisplay() *display {
	d := &display{}
	if !DISPLAY_ENABLED {
		return d
	}

	if err := machine.I2C0.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz}); err != nil {
		println("display: i2c:", err.Error())
		return d
	}
	d.dev = ssd1306.NewI2C(machine.I2C0)
	d.dev.Configure(ssd1306.Config{
		Width:    DISPLAY_WIDTH,
		Height:   DISPLAY_HEIGHT,
		Address:  DISPLAY_ADDRESS,
		VccState: ssd1306.SWITCHCAPVCC,
	})
	d.dev.ClearDisplay()
	d.enabled = true
	return d
}

// status buffer for the second display row, reused for every gate
var status [16]byte

// show renders the report line and the gate length.
func (d *display) show(line []byte, gateMs uint16) {
	if !d.enabled {
		return
	}

	s := append(status[:0], "Gate "...)
	s = strconv.AppendUint(s, uint64(gateMs), 10)
	s = append(s, " ms"...)

	d.dev.ClearBuffer()
	tinyfont.WriteLine(&d.dev, &proggy.TinySZ8pt7b, 0, 12, text(line), white)
	tinyfont.WriteLine(&d.dev, &proggy.TinySZ8pt7b, 0, 28, text(s), white)
	d.dev.Display()
}

// text views b as a string without copying. b must not change while the
// string is in use.
func text(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}
