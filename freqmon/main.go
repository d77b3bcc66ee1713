package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gofreq/pkg/config"
	"github.com/itohio/gofreq/pkg/fc"
	"github.com/itohio/gofreq/pkg/meter"
	"github.com/itohio/gofreq/pkg/sample"
	"github.com/itohio/gofreq/pkg/scope"
)

func main() {
	var (
		portFlag           = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyUSB0)")
		configFlag         = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag           = flag.Bool("mock", false, "Use simulated counter instead of serial port")
		gateFlag           = flag.Int("gate", 0, "Gate duration in milliseconds (overrides config)")
		averageSamplesFlag = flag.Int("average-samples", -1, "Number of readings to average (0 = disabled, overrides config)")
		headlessFlag       = flag.Bool("headless", false, "Print readings to stdout instead of opening a window")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override serial port if provided via command line
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	if *gateFlag > 0 {
		if *gateFlag < fc.MinGateMs || *gateFlag > fc.MaxGateMs {
			log.Fatalf("Gate duration %d ms out of range %d..%d", *gateFlag, fc.MinGateMs, fc.MaxGateMs)
		}
		cfg.Gate.DurationMs = *gateFlag
	}

	// Override average samples if provided via command line
	if *averageSamplesFlag >= 0 {
		cfg.Measurement.AverageSamples = *averageSamplesFlag
	}

	if *headlessFlag {
		runHeadless(cfg, *mockFlag)
		return
	}

	application := app.NewWithID("com.itohio.gofreq")

	window := application.NewWindow("Frequency Counter")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		meter:      meter.New(cfg),
		window:     window,
		useMock:    *mockFlag,
	}

	toolbar := createToolbar(state)

	state.scopeWidget = scope.New(cfg)

	// Register callback with the meter once; it survives reconnects.
	// Throttle updates to ~60 FPS (16.67ms between updates) to ensure smooth UI
	state.meter.OnUpdate(state.onMeterUpdate)

	content := container.NewBorder(
		toolbar,
		nil,
		nil,
		nil,
		state.scopeWidget,
	)

	window.SetContent(content)
	window.SetOnClosed(func() {
		closeMeasurementChain(state.chain)
	})
	window.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	configPath  string
	device      fc.Device
	meter       *meter.Meter
	scopeWidget *scope.ScopeWidget
	window      fyne.Window
	connectBtn  *widget.Button
	gateSelect  *widget.Select
	statusLabel *widget.Label
	useMock     bool
	chain       *measurementChain // Current measurement chain (nil if not connected)

	// Throttling for scope updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// gateOptions are offered by the toolbar selector, in milliseconds.
var gateOptions = []string{"10", "100", "500", "1000", "2000", "10000"}

// createToolbar creates the application toolbar with Connect, Settings and gate selection.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	resetBtn := widget.NewButtonWithIcon("", theme.ContentClearIcon(), func() {
		state.meter.Reset()
		state.scopeWidget.UpdateData(nil, nil, meter.Stats{})
	})

	gateSelect := widget.NewSelect(gateOptions, func(selected string) {
		ms, err := strconv.Atoi(selected)
		if err != nil {
			return
		}
		applyGate(state, ms)
	})
	gateSelect.PlaceHolder = "Gate (ms)"
	gateSelect.SetSelected(strconv.Itoa(state.cfg.Gate.DurationMs))
	state.gateSelect = gateSelect

	state.statusLabel = widget.NewLabel("Disconnected")

	return container.NewBorder(
		nil, // top
		nil, // bottom
		container.NewHBox(connectBtn, settingsBtn, resetBtn), // left
		container.NewHBox(widget.NewLabel("Gate, ms"), gateSelect), // right
		state.statusLabel, // center
	)
}

// applyGate stores a new gate duration and pushes it to a connected device.
func applyGate(state *appState, ms int) {
	if ms < fc.MinGateMs || ms > fc.MaxGateMs {
		dialog.ShowError(fmt.Errorf("gate duration %d ms out of range %d..%d", ms, fc.MinGateMs, fc.MaxGateMs), state.window)
		return
	}
	if state.cfg.Gate.DurationMs == ms {
		return
	}
	state.cfg.Gate.DurationMs = ms

	if state.device != nil && state.device.IsConnected() {
		if err := state.device.SetGate(uint16(ms)); err != nil {
			dialog.ShowError(fmt.Errorf("failed to set gate: %w", err), state.window)
			return
		}
	}

	// Readings of different gates do not share a resolution
	state.meter.Reset()
	log.Printf("Gate set to %d ms (resolution %g Hz)", ms, 1000/float64(ms))
}

// onMeterUpdate forwards meter updates to the scope, throttled to the frame rate.
func (state *appState) onMeterUpdate(samples []sample.Sample, steps []meter.Step, stats meter.Stats) {
	const updateInterval = 16 * time.Millisecond // ~60 FPS

	state.updateMu.Lock()
	now := time.Now()
	if now.Sub(state.lastUpdateTime) < updateInterval {
		state.updateMu.Unlock()
		return
	}
	state.lastUpdateTime = now
	state.updateMu.Unlock()

	var status string
	if len(samples) > 0 {
		last := samples[len(samples)-1]
		status = fmt.Sprintf("%.0f Hz ±%g Hz", last.Frequency, last.Resolution)
	}

	// Update scope widget on main thread
	// Scope widget handles downsampling internally, so pass full data
	fyne.Do(func() {
		state.scopeWidget.UpdateData(samples, steps, stats)
		if status != "" {
			state.statusLabel.SetText(status)
		}
	})
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		// Disconnect - gracefully close measurement chain
		closeMeasurementChain(state.chain)
		state.chain = nil
		state.device = nil
		state.connectBtn.SetIcon(theme.LoginIcon())
		state.statusLabel.SetText("Disconnected")
		if state.useMock {
			log.Printf("Disconnected from simulated counter")
		} else {
			log.Printf("Disconnected from serial port")
		}
		return
	}

	device := newDevice(state.cfg, state.useMock)
	if err := device.Connect(); err != nil {
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to start simulated counter: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}
	state.device = device
	state.connectBtn.SetIcon(theme.LogoutIcon())
	state.statusLabel.SetText("Waiting for first gate")
	if state.useMock {
		log.Printf("Connected to simulated counter at %g Hz", state.cfg.Mock.Frequency)
	} else {
		log.Printf("Connected to serial port: %s", state.cfg.Serial.Port)
	}

	state.chain = startMeasurementChain(state.cfg, device, state.meter)
}

// reconnect restarts the measurement chain so changed settings take effect.
func reconnect(state *appState) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}
	handleConnect(state) // disconnect
	handleConnect(state) // connect with new settings
}
