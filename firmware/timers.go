//go:build tinygo && avr

package main

import (
	"device/avr"
	"runtime/interrupt"

	"github.com/itohio/gofreq/pkg/gate"
)

var (
	_ gate.EdgeCounter = timer1{}
	_ gate.Ticker      = timer2{}
	_ gate.Clock       = (*timer0)(nil)
)

// timer1 counts rising edges on T1 (D5) as an external clock source.
type timer1 struct{}

func (timer1) Arm() {
	avr.TCCR1A.Set(0)
	avr.TCCR1B.Set(0)
	avr.TIMSK1.Set(avr.TIMSK1_TOIE1)
	// TCNT1 is written high byte first through the shared TEMP register
	avr.TCNT1H.Set(0)
	avr.TCNT1L.Set(0)
	// Writing one clears a stale overflow flag
	avr.TIFR1.Set(avr.TIFR1_TOV1)
	// External clock on T1, rising edge
	avr.TCCR1B.Set(avr.TCCR1B_CS10 | avr.TCCR1B_CS11 | avr.TCCR1B_CS12)
}

func (timer1) Stop() {
	avr.TCCR1B.Set(0)
	avr.TIMSK1.Set(0)
}

func (timer1) Count() uint16 {
	// Reading the low byte latches the high byte
	lo := avr.TCNT1L.Get()
	hi := avr.TCNT1H.Get()
	return uint16(hi)<<8 | uint16(lo)
}

func (timer1) OverflowPending() bool {
	return avr.TIFR1.HasBits(avr.TIFR1_TOV1)
}

// timer2 fires a compare match every millisecond:
// 16 MHz / 128 / (124+1) = 1 kHz.
type timer2 struct{}

func (timer2) Arm() {
	avr.TCCR2A.Set(0)
	avr.TCCR2B.Set(0)
	avr.TCCR2A.Set(avr.TCCR2A_WGM21) // CTC
	avr.TCNT2.Set(0)
	avr.OCR2A.Set(124)
	avr.TIMSK2.Set(avr.TIMSK2_OCIE2A)
	avr.GTCCR.Set(avr.GTCCR_PSRASY) // reset the asynchronous prescaler
	avr.TCCR2B.Set(avr.TCCR2B_CS20 | avr.TCCR2B_CS22)
}

func (timer2) Stop() {
	avr.TCCR2B.Set(0)
	avr.TIMSK2.Set(0)
}

// timer0 drives the runtime clock; its interrupt would jitter the gate.
type timer0 struct {
	tccr0a, tccr0b uint8
}

func (t *timer0) Suspend() {
	t.tccr0a = avr.TCCR0A.Get()
	t.tccr0b = avr.TCCR0B.Get()
	avr.TCCR0A.Set(0)
	avr.TCCR0B.Set(0)
}

func (t *timer0) Resume() {
	avr.TCCR0A.Set(t.tccr0a)
	avr.TCCR0B.Set(t.tccr0b)
}

// counter is the gate shared with both interrupt handlers.
var counter = gate.New(timer1{}, timer2{}, &timer0{})

func configureInterrupts() {
	overflow := interrupt.New(avr.IRQ_TIMER1_OVF, func(interrupt.Interrupt) {
		counter.HandleOverflow()
	})
	overflow.Enable()

	tick := interrupt.New(avr.IRQ_TIMER2_COMPA, func(interrupt.Interrupt) {
		counter.HandleTick()
	})
	tick.Enable()
}
