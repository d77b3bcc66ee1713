package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gofreq/pkg/config"
	"github.com/itohio/gofreq/pkg/fc"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createGateTab(state),
		createMeasurementTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 400))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 400))
	d.Show()
}

// saveConfig validates and persists the configuration, reporting failures in a dialog.
func saveConfig(state *appState) bool {
	if err := state.cfg.Validate(); err != nil {
		dialog.ShowError(err, state.window)
		return false
	}
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
		return false
	}
	return true
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := fc.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			changed := false
			if portSelect.Selected != "" {
				selectedPort := portMap[portSelect.Selected]
				if selectedPort == "" {
					selectedPort = portSelect.Selected // Fallback to selected text
				}
				changed = state.cfg.Serial.Port != selectedPort
				state.cfg.Serial.Port = selectedPort
			}
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				changed = changed || state.cfg.Serial.BaudRate != baud
				state.cfg.Serial.BaudRate = baud
			}
			if !saveConfig(state) {
				return
			}

			// If the port changed while connected, restart the measurement chain
			if changed && !state.useMock {
				reconnect(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createGateTab creates the Gate configuration tab.
func createGateTab(state *appState) *container.TabItem {
	durationEntry := widget.NewEntry()
	durationEntry.SetText(strconv.Itoa(state.cfg.Gate.DurationMs))

	settleEntry := widget.NewEntry()
	settleEntry.SetText(state.cfg.Gate.SettleDelay.String())

	resolution := widget.NewLabel(resolutionText(state.cfg.Gate.DurationMs))
	durationEntry.OnChanged = func(s string) {
		if ms, err := strconv.Atoi(s); err == nil {
			resolution.SetText(resolutionText(ms))
		}
	}

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Duration (ms)", Widget: durationEntry},
			{Text: "Resolution", Widget: resolution},
			{Text: "Settle Delay", Widget: settleEntry, HintText: "e.g. 200ms"},
		},
		OnSubmit: func() {
			settleChanged := false
			if d, err := time.ParseDuration(settleEntry.Text); err == nil && d >= 0 {
				settleChanged = state.cfg.Gate.SettleDelay != d
				state.cfg.Gate.SettleDelay = d
			}
			if ms, err := strconv.Atoi(durationEntry.Text); err == nil {
				applyGate(state, ms)
				state.gateSelect.SetSelected(strconv.Itoa(state.cfg.Gate.DurationMs))
			}
			if !saveConfig(state) {
				return
			}

			// The settle delay lives in the simulated firmware loop
			if settleChanged && state.useMock {
				reconnect(state)
			}
		},
	}

	return container.NewTabItem("Gate", form)
}

// resolutionText describes the frequency resolution of a gate.
func resolutionText(ms int) string {
	if ms <= 0 {
		return "-"
	}
	return fmt.Sprintf("%g Hz", 1000/float64(ms))
}

// createMeasurementTab creates the Measurement configuration tab.
func createMeasurementTab(state *appState) *container.TabItem {
	windowEntry := widget.NewEntry()
	windowEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Measurement.WindowSeconds))

	averageEntry := widget.NewEntry()
	averageEntry.SetText(strconv.Itoa(state.cfg.Measurement.AverageSamples))

	stepEntry := widget.NewEntry()
	stepEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Measurement.StepThreshold))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window (s)", Widget: windowEntry},
			{Text: "Average Samples", Widget: averageEntry, HintText: "0 disables averaging"},
			{Text: "Step Threshold", Widget: stepEntry, HintText: "in gate resolutions"},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(windowEntry.Text, 64); err == nil && v > 0 {
				state.cfg.Measurement.WindowSeconds = v
			}
			if v, err := strconv.Atoi(averageEntry.Text); err == nil && v >= 0 {
				state.cfg.Measurement.AverageSamples = v
			}
			if v, err := strconv.ParseFloat(stepEntry.Text, 64); err == nil && v >= 0 {
				state.cfg.Measurement.StepThreshold = v
			}
			if !saveConfig(state) {
				return
			}
			dialog.ShowInformation("Settings", "Measurement settings apply after reconnecting.", state.window)
		},
	}

	return container.NewTabItem("Measurement", form)
}

// createMockTab creates the Mock configuration tab.
func createMockTab(state *appState) *container.TabItem {
	freqEntry := widget.NewEntry()
	freqEntry.SetText(strconv.FormatFloat(state.cfg.Mock.Frequency, 'f', -1, 64))

	driftEntry := widget.NewEntry()
	driftEntry.SetText(strconv.FormatFloat(state.cfg.Mock.Drift, 'f', -1, 64))

	periodEntry := widget.NewEntry()
	periodEntry.SetText(state.cfg.Mock.DriftPeriod.String())

	latencyEntry := widget.NewEntry()
	latencyEntry.SetText(state.cfg.Mock.OverflowLatency.String())

	realtimeCheck := widget.NewCheck("", nil)
	realtimeCheck.SetChecked(state.cfg.Mock.Realtime)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Frequency (Hz)", Widget: freqEntry,
				HintText: fmt.Sprintf("%g..%g", config.MinFrequency, config.MaxFrequency)},
			{Text: "Drift (Hz)", Widget: driftEntry},
			{Text: "Drift Period", Widget: periodEntry},
			{Text: "Overflow Latency", Widget: latencyEntry},
			{Text: "Real Time", Widget: realtimeCheck},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(freqEntry.Text, 64); err == nil {
				state.cfg.Mock.Frequency = v
			}
			if v, err := strconv.ParseFloat(driftEntry.Text, 64); err == nil {
				state.cfg.Mock.Drift = v
			}
			if d, err := time.ParseDuration(periodEntry.Text); err == nil && d > 0 {
				state.cfg.Mock.DriftPeriod = d
			}
			if d, err := time.ParseDuration(latencyEntry.Text); err == nil && d >= 0 {
				state.cfg.Mock.OverflowLatency = d
			}
			state.cfg.Mock.Realtime = realtimeCheck.Checked
			if !saveConfig(state) {
				return
			}
			if state.useMock {
				reconnect(state)
			}
		},
	}

	return container.NewTabItem("Mock", form)
}
