package main

import (
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/gofreq/pkg/config"
	"github.com/itohio/gofreq/pkg/meter"
	"github.com/itohio/gofreq/pkg/sample"
)

// runHeadless prints one report line per gate until interrupted.
func runHeadless(cfg *config.Config, useMock bool) {
	device := newDevice(cfg, useMock)
	if err := device.Connect(); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	m := meter.New(cfg)
	m.OnUpdate(func(samples []sample.Sample, steps []meter.Step, stats meter.Stats) {
		if len(samples) == 0 {
			return
		}
		fmt.Println(formatLine(samples[len(samples)-1], stats))
	})

	chain := startMeasurementChain(cfg, device, m)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sig:
	case <-chain.meterGoroutine:
		log.Printf("Device closed")
	}

	closeMeasurementChain(chain)
}

// formatLine renders a sample the way the firmware reports it, followed by
// the window statistics. Only digits the gate resolves are printed.
func formatLine(s sample.Sample, stats meter.Stats) string {
	return fmt.Sprintf("Frequency: %.*f Hz. (±%g, mean %.1f, σ %.1f, n %d)",
		decimals(s.Resolution), s.Frequency, s.Resolution, stats.Mean, stats.StdDev, stats.Count)
}

// decimals returns the number of fractional digits resolution supports.
func decimals(resolution float64) int {
	if resolution <= 0 || resolution >= 1 {
		return 0
	}
	// tolerate Log10 rounding at exact powers of ten
	return int(math.Ceil(-math.Log10(resolution) - 1e-9))
}
