package scope

import (
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/chewxy/math32"
	"github.com/itohio/gofreq/pkg/meter"
	"github.com/itohio/gofreq/pkg/sample"
)

var (
	gridColor  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	traceColor = color.RGBA{R: 255, G: 165, B: 0, A: 255}   // Orange
	stepColor  = color.RGBA{R: 0, G: 100, B: 200, A: 255}   // Dark blue
	statsColor = color.RGBA{R: 200, G: 200, B: 200, A: 255} // Light gray
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	grid *canvas.Rectangle

	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// plotArea is the rectangle inside the axis margins.
type plotArea struct {
	x, y, w, h float32
	yMin, yMax float64
	xMin, xMax time.Time
}

func (p plotArea) pos(t time.Time, hz float64) fyne.Position {
	span := p.xMax.Sub(p.xMin).Seconds()
	fx := float32(t.Sub(p.xMin).Seconds() / span)
	fy := float32((hz - p.yMin) / (p.yMax - p.yMin))
	return fyne.NewPos(p.x+fx*p.w, p.y+p.h-fy*p.h)
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh rebuilds the canvas objects from the current data.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.displaySamples
	steps := r.scope.steps
	stats := r.scope.stats
	area := plotArea{
		yMin: r.scope.yMin,
		yMax: r.scope.yMax,
		xMin: r.scope.xMin,
		xMax: r.scope.xMax,
	}
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.grid}

	marginLeft := float32(80.0)
	marginRight := float32(20.0)
	marginTop := float32(20.0)
	marginBottom := float32(40.0)

	area.x = marginLeft
	area.y = marginTop
	area.w = size.Width - marginLeft - marginRight
	area.h = size.Height - marginTop - marginBottom
	if area.w <= 0 || area.h <= 0 || area.yMax <= area.yMin || !area.xMax.After(area.xMin) {
		return
	}

	r.drawGrid(area)
	r.drawTrace(area, samples)
	r.drawSteps(area, samples, steps)
	r.drawStats(area, stats)
}

// drawGrid draws horizontal lines at round frequency values and ten time divisions.
func (r *scopeRenderer) drawGrid(a plotArea) {
	for _, v := range gridValues(float32(a.yMin), float32(a.yMax), 8) {
		p := a.pos(a.xMin, float64(v))
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(a.x, p.Y)
		line.Position2 = fyne.NewPos(a.x+a.w, p.Y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		text := canvas.NewText(formatFrequency(float64(v)), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(a.x-5, p.Y-6))
		r.objects = append(r.objects, text)
	}

	numVLines := 10
	span := a.xMax.Sub(a.xMin)
	for i := range numVLines + 1 {
		x := a.x + float32(i)*a.w/float32(numVLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, a.y)
		line.Position2 = fyne.NewPos(x, a.y+a.h)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		offset := span * time.Duration(i) / time.Duration(numVLines)
		text := canvas.NewText(formatTime(offset), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, a.y+a.h+5))
		r.objects = append(r.objects, text)
	}
}

// drawTrace draws the frequency curve.
func (r *scopeRenderer) drawTrace(a plotArea, samples []sample.Sample) {
	if len(samples) < 2 {
		return
	}

	prev := a.pos(samples[0].Timestamp, samples[0].Frequency)
	for _, s := range samples[1:] {
		p := a.pos(s.Timestamp, s.Frequency)
		line := canvas.NewLine(traceColor)
		line.Position1 = prev
		line.Position2 = p
		line.StrokeWidth = 1.5
		r.objects = append(r.objects, line)
		prev = p
	}
}

// drawSteps marks detected frequency changes with vertical lines.
func (r *scopeRenderer) drawSteps(a plotArea, samples []sample.Sample, steps []meter.Step) {
	for _, st := range steps {
		if st.Time.Before(a.xMin) || st.Time.After(a.xMax) {
			continue
		}
		p := a.pos(st.Time, a.yMin)
		line := canvas.NewLine(stepColor)
		line.Position1 = fyne.NewPos(p.X, a.y)
		line.Position2 = fyne.NewPos(p.X, a.y+a.h)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		text := canvas.NewText(formatFrequency(st.To-st.From), traceColor)
		text.TextSize = 11
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(p.X-30, a.y+2))
		r.objects = append(r.objects, text)
	}
}

// drawStats prints the window statistics in the top left corner.
func (r *scopeRenderer) drawStats(a plotArea, st meter.Stats) {
	if st.Count == 0 {
		return
	}
	label := "mean " + formatFrequency(st.Mean) +
		"  σ " + formatFrequency(st.StdDev) +
		"  n " + strconv.Itoa(st.Count)
	text := canvas.NewText(label, statsColor)
	text.TextSize = 11
	text.Alignment = fyne.TextAlignLeading
	text.Move(fyne.NewPos(a.x+10, a.y+10))
	r.objects = append(r.objects, text)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}

// niceStep rounds span/divisions up to 1, 2 or 5 times a power of ten.
func niceStep(span float32, divisions int) float32 {
	if span <= 0 || divisions <= 0 {
		return 1
	}
	raw := span / float32(divisions)
	mag := math32.Pow(10, math32.Floor(math32.Log10(raw)))
	switch f := raw / mag; {
	case f <= 1:
		return mag
	case f <= 2:
		return 2 * mag
	case f <= 5:
		return 5 * mag
	}
	return 10 * mag
}

// gridValues returns round values within [lo, hi].
func gridValues(lo, hi float32, divisions int) []float32 {
	step := niceStep(hi-lo, divisions)
	values := make([]float32, 0, divisions+2)
	for v := math32.Ceil(lo/step) * step; v <= hi; v += step {
		values = append(values, v)
	}
	return values
}

func formatFrequency(hz float64) string {
	abs := hz
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e6:
		return strconv.FormatFloat(hz/1e6, 'f', 3, 64) + " MHz"
	case abs >= 1e3:
		return strconv.FormatFloat(hz/1e3, 'f', 3, 64) + " kHz"
	}
	return strconv.FormatFloat(hz, 'f', 1, 64) + " Hz"
}

func formatTime(d time.Duration) string {
	if d < time.Second {
		return strconv.FormatFloat(d.Seconds(), 'f', 2, 64) + "s"
	}
	return strconv.FormatFloat(d.Seconds(), 'f', 1, 64) + "s"
}
