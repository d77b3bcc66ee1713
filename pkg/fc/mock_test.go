package fc

import (
	"testing"
	"time"

	"github.com/itohio/gofreq/pkg/config"
	"github.com/itohio/gofreq/pkg/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastMockConfig(hz float64) *config.MockConfig {
	return &config.MockConfig{
		Frequency:       hz,
		DriftPeriod:     time.Second,
		Realtime:        false,
		OverflowLatency: 2 * time.Microsecond,
	}
}

func TestMock_Readings(t *testing.T) {
	dev := NewMock(fastMockConfig(123456), 100, 0)
	require.NoError(t, dev.Connect())
	defer dev.Close()

	for range 5 {
		select {
		case r := <-dev.Readings():
			assert.InDelta(t, 123456, r.Frequency, gate.Resolution(100))
			assert.Equal(t, 100*time.Millisecond, r.Gate)
		case <-time.After(2 * time.Second):
			t.Fatal("no reading from mock")
		}
	}
}

func TestMock_SetGate(t *testing.T) {
	dev := NewMock(fastMockConfig(5000), 50, 0)

	assert.Error(t, dev.SetGate(100), "not connected")

	require.NoError(t, dev.Connect())
	defer dev.Close()

	assert.Error(t, dev.SetGate(1))
	assert.Error(t, dev.SetGate(60001))
	require.NoError(t, dev.SetGate(200))

	deadline := time.After(3 * time.Second)
	for {
		select {
		case r := <-dev.Readings():
			if r.Gate == 200*time.Millisecond {
				assert.InDelta(t, 5000, r.Frequency, gate.Resolution(200))
				return
			}
		case <-deadline:
			t.Fatal("gate change never applied")
		}
	}
}

func TestMock_ConnectTwice(t *testing.T) {
	dev := NewMock(fastMockConfig(1000), 10, 0)
	require.NoError(t, dev.Connect())
	defer dev.Close()

	assert.True(t, dev.IsConnected())
	assert.Error(t, dev.Connect())
}

func TestMock_frequencyAt(t *testing.T) {
	cfg := fastMockConfig(1000)
	cfg.Drift = 100
	cfg.DriftPeriod = 4 * time.Second
	dev := NewMock(cfg, 100, 0)

	assert.InDelta(t, 1000, dev.frequencyAt(0), 1e-9)
	assert.InDelta(t, 1100, dev.frequencyAt(time.Second), 1e-9)
	assert.InDelta(t, 900, dev.frequencyAt(3*time.Second), 1e-9)

	cfg.Drift = 5000
	assert.Equal(t, 0.0, dev.frequencyAt(3*time.Second))
}

func TestNewMock_Defaults(t *testing.T) {
	dev := NewMock(nil, 0, 0)
	assert.Equal(t, uint16(500), dev.gateMs)
	assert.Equal(t, float64(1000), dev.cfg.Frequency)
	assert.False(t, dev.IsConnected())
}
