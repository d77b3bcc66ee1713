package config

import (
	"fmt"
	"os"
	"time"

	"github.com/itohio/gofreq/pkg/gate"
	"gopkg.in/yaml.v3"
)

const (
	// MinFrequency and MaxFrequency bound the signals the counter resolves.
	MinFrequency = 10.0
	MaxFrequency = 8e6
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Gate        GateConfig        `yaml:"gate"`
	Measurement MeasurementConfig `yaml:"measurement"`
	Mock        MockConfig        `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// GateConfig describes the counting window requested from the counter.
type GateConfig struct {
	DurationMs  int           `yaml:"duration_ms"`  // Gate length in milliseconds
	SettleDelay time.Duration `yaml:"settle_delay"` // Pause between gates
}

// MeasurementConfig contains host side processing parameters.
type MeasurementConfig struct {
	WindowSeconds  float64 `yaml:"window_seconds"`
	AverageSamples int     `yaml:"average_samples"` // Number of readings to average (0 = disabled, default)
	StepThreshold  float64 `yaml:"step_threshold"`  // Frequency step, in gate resolutions, reported as a change
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	Frequency       float64       `yaml:"frequency"`        // Simulated signal frequency (Hz)
	Drift           float64       `yaml:"drift"`            // Peak frequency wander (Hz)
	DriftPeriod     time.Duration `yaml:"drift_period"`     // Period of the wander
	Realtime        bool          `yaml:"realtime"`         // Pace the simulated gate to the wall clock
	OverflowLatency time.Duration `yaml:"overflow_latency"` // Simulated overflow interrupt latency
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyUSB0", // Arduino Uno/Nano; "COM3" on Windows
			BaudRate: 115200,
		},
		Gate: GateConfig{
			DurationMs:  500,
			SettleDelay: 200 * time.Millisecond,
		},
		Measurement: MeasurementConfig{
			WindowSeconds:  30,
			AverageSamples: 0, // No averaging by default
			StepThreshold:  5,
		},
		Mock: MockConfig{
			Frequency:       1000,
			Drift:           0,
			DriftPeriod:     20 * time.Second,
			Realtime:        true,
			OverflowLatency: 2 * time.Microsecond,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values the counter cannot honour.
func (c *Config) Validate() error {
	if c.Gate.DurationMs < gate.MinCommandMs || c.Gate.DurationMs > gate.MaxCommandMs {
		return fmt.Errorf("invalid gate duration %d ms: must be within %d..%d",
			c.Gate.DurationMs, gate.MinCommandMs, gate.MaxCommandMs)
	}
	if c.Gate.SettleDelay < 0 {
		return fmt.Errorf("invalid settle delay %v", c.Gate.SettleDelay)
	}
	if c.Mock.Frequency < MinFrequency || c.Mock.Frequency > MaxFrequency {
		return fmt.Errorf("invalid mock frequency %g Hz: must be within %g..%g", c.Mock.Frequency, MinFrequency, MaxFrequency)
	}
	if c.Measurement.AverageSamples < 0 {
		return fmt.Errorf("invalid average samples %d", c.Measurement.AverageSamples)
	}
	return nil
}

// GateDuration returns the gate length as a duration.
func (c *Config) GateDuration() time.Duration {
	return time.Duration(c.Gate.DurationMs) * time.Millisecond
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Gate.DurationMs == 0 {
		c.Gate.DurationMs = def.Gate.DurationMs
	}

	if c.Measurement.WindowSeconds == 0 {
		c.Measurement.WindowSeconds = def.Measurement.WindowSeconds
	}
	if c.Measurement.StepThreshold == 0 {
		c.Measurement.StepThreshold = def.Measurement.StepThreshold
	}

	if c.Mock.Frequency == 0 {
		c.Mock.Frequency = def.Mock.Frequency
	}
	if c.Mock.DriftPeriod == 0 {
		c.Mock.DriftPeriod = def.Mock.DriftPeriod
	}
}
