package main

import (
	"github.com/itohio/gofreq/pkg/config"
	"github.com/itohio/gofreq/pkg/fc"
	"github.com/itohio/gofreq/pkg/meter"
	"github.com/itohio/gofreq/pkg/sample"
)

// measurementChain tracks the components of the measurement chain for graceful shutdown.
type measurementChain struct {
	device         fc.Device
	samplesStream  <-chan sample.Sample
	meterGoroutine chan struct{} // Closed when meter goroutine exits
}

// newDevice creates the configured device without connecting it.
func newDevice(cfg *config.Config, useMock bool) fc.Device {
	gateMs := uint16(cfg.Gate.DurationMs)
	if useMock {
		return fc.NewMock(&cfg.Mock, gateMs, cfg.Gate.SettleDelay)
	}
	return fc.New(cfg.Serial.Port, cfg.Serial.BaudRate, fc.DefaultBufferSize, gateMs)
}

// startMeasurementChain wires device readings through the converters into the meter.
// The device must already be connected.
func startMeasurementChain(cfg *config.Config, device fc.Device, m *meter.Meter) *measurementChain {
	m.ResetShutdown()

	// Increase buffer size to prevent channel full errors
	samplesStream := sample.NewConverter(500)(device.Readings())
	if cfg.Measurement.AverageSamples > 0 {
		samplesStream = sample.NewAveragingConverter(cfg.Measurement.AverageSamples, 500)(samplesStream)
	}

	meterDone := make(chan struct{})
	go func() {
		defer close(meterDone)
		m.ProcessSamples(samplesStream)
	}()

	return &measurementChain{
		device:         device,
		samplesStream:  samplesStream,
		meterGoroutine: meterDone,
	}
}

// closeMeasurementChain gracefully closes the measurement chain.
// Waits for the meter goroutine to drain the converters.
func closeMeasurementChain(chain *measurementChain) {
	if chain == nil {
		return
	}

	// Closing the device closes the readings channel and the converters behind it
	if chain.device != nil {
		chain.device.Close()
	}

	if chain.meterGoroutine != nil {
		<-chain.meterGoroutine
	}
}
