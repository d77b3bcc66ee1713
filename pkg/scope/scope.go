package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gofreq/pkg/config"
	"github.com/itohio/gofreq/pkg/meter"
	"github.com/itohio/gofreq/pkg/sample"
)

// ScopeWidget is a custom Fyne widget that plots frequency against time.
type ScopeWidget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu      sync.RWMutex
	samples []sample.Sample
	steps   []meter.Step
	stats   meter.Stats

	// Display buffer (reused for downsampling)
	displaySamples []sample.Sample

	// Auto-scaling
	yMin, yMax float64
	xMin, xMax time.Time

	// Display settings
	maxDisplayPoints int
}

// New creates a new ScopeWidget instance.
func New(cfg *config.Config) *ScopeWidget {
	s := &ScopeWidget{
		cfg:              cfg,
		samples:          make([]sample.Sample, 0),
		steps:            make([]meter.Step, 0),
		displaySamples:   make([]sample.Sample, 0, 1000),
		maxDisplayPoints: 1000, // Limit points for efficient rendering
	}
	s.ExtendBaseWidget(s)
	s.Refresh()
	return s
}

// UpdateData updates the widget with new measurement data.
// This should be called from the measurement callback using fyne.Do().
func (s *ScopeWidget) UpdateData(samples []sample.Sample, steps []meter.Step, stats meter.Stats) {
	s.mu.Lock()

	s.displaySamples = sample.DownsampleSamples(s.displaySamples, samples, s.maxDisplayPoints)

	s.samples = samples
	s.steps = steps
	s.stats = stats

	s.updateAutoScale()

	s.mu.Unlock()

	// Refresh outside the lock to avoid deadlock with the renderer
	s.Refresh()
}

// updateAutoScale calculates axis ranges from current data.
func (s *ScopeWidget) updateAutoScale() {
	window := time.Duration(s.cfg.Measurement.WindowSeconds * float64(time.Second))

	if len(s.displaySamples) == 0 {
		s.yMin, s.yMax = 0, 1
		s.xMin = time.Now()
		s.xMax = s.xMin.Add(window)
		return
	}

	s.yMin = s.displaySamples[0].Frequency
	s.yMax = s.displaySamples[0].Frequency
	res := s.displaySamples[0].Resolution
	for _, smp := range s.displaySamples {
		s.yMin = min(s.yMin, smp.Frequency)
		s.yMax = max(s.yMax, smp.Frequency)
		res = max(res, smp.Resolution)
	}

	// Never zoom in below a few counts of resolution
	span := s.yMax - s.yMin
	if minSpan := 4 * res; span < minSpan {
		mid := (s.yMax + s.yMin) / 2
		s.yMin = mid - minSpan/2
		s.yMax = mid + minSpan/2
		span = minSpan
	}
	if span == 0 {
		span = 1
	}
	s.yMin -= span * 0.1
	s.yMax += span * 0.1

	s.xMin = s.displaySamples[0].Timestamp
	s.xMax = s.displaySamples[len(s.displaySamples)-1].Timestamp
	if s.xMax.Sub(s.xMin) < window {
		s.xMax = s.xMin.Add(window)
	}
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:    s,
		grid:     grid,
		objects:  []fyne.CanvasObject{grid},
		lastSize: fyne.Size{Width: 0, Height: 0},
	}
}
