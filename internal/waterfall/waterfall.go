// SPDX-License-Identifier: MIT
/*
Package waterfall renders a scrolling time-frequency image from spectra.

Time runs left to right: the newest spectrum is always the rightmost
column. Frequency runs bottom to top, covering bins [0, topBin] stretched
to the image height.

Brightness is normalized per channel against a running peak that decays by
2^(-1/decayColumns) after every drawn column, so a loud transient fades
out of the normalization over time.

Each history entry keeps only the visible bins [0, topBin] of its spectrum,
the full bin count they were cut from and the peak the column was drawn
with. Resize repaints from history with those peaks and reproduces the
scrolled image exactly.
*/
package waterfall

import (
	"image"
	"image/color"
	"math"

	"spectroscope/internal/config"
	"spectroscope/internal/log"
	"spectroscope/internal/spectral"
)

// Options configures a Waterfall.
type Options struct {
	Width, Height int
	SampleRate    float64
	TopFreq       float64   // highest displayed frequency in Hz
	Markers       []float64 // frequencies in Hz drawn with full red
	Palette       Palette   // defaults to Stereo
	DecayColumns  float64   // columns for the peak to halve, default 100
}

// OptionsFromConfig builds options from the display section of cfg.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	p, err := ParsePalette(cfg.Display.Palette)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Width:        cfg.Display.Width,
		Height:       cfg.Display.Height,
		SampleRate:   cfg.Audio.SampleRate,
		TopFreq:      cfg.Display.TopFreq,
		Markers:      append([]float64(nil), cfg.Display.Markers...),
		Palette:      p,
		DecayColumns: cfg.Display.PeakDecayColumns,
	}, nil
}

type entry struct {
	channels [][]float64 // [channel][0..topBin]
	bins     int         // bin count of the source spectrum
	peak     []float64   // normalization peak used when the column was drawn
}

// visible copies the bins of s that render reads.
func (w *Waterfall) visible(s *spectral.Spectrum) entry {
	bins := s.Bins()
	top := TopBin(w.sampleRate, w.topFreq, bins)
	e := entry{channels: make([][]float64, len(s.Channels)), bins: bins}
	for ch, mags := range s.Channels {
		e.channels[ch] = append([]float64(nil), mags[:min(top+1, len(mags))]...)
	}
	return e
}

// Waterfall owns the rendered image, the spectral history and the peak
// state. It is not safe for concurrent use.
type Waterfall struct {
	width, height int
	sampleRate    float64
	topFreq       float64
	markers       []float64
	palette       Palette
	decay         float64 // per-column peak multiplier

	img     *image.RGBA
	history []entry // oldest first, len <= width
	peak    []float64
	columns uint64

	rs        resampler
	intensity []float64   // one channel's normalized bins
	rows      [][]float64 // resampled intensity per channel
}

// New creates a waterfall. Width and height are clamped to at least 1.
func New(opts Options) *Waterfall {
	if opts.Palette == nil {
		opts.Palette = Stereo{}
	}
	if opts.DecayColumns <= 0 {
		opts.DecayColumns = config.DefaultPeakDecayColumns
	}
	w := &Waterfall{
		sampleRate: opts.SampleRate,
		topFreq:    opts.TopFreq,
		markers:    append([]float64(nil), opts.Markers...),
		palette:    opts.Palette,
		decay:      math.Exp2(-1 / opts.DecayColumns),
	}
	w.allocate(max(opts.Width, 1), max(opts.Height, 1))
	log.Debugf("Waterfall: %dx%d, top %.0f Hz, markers %v, %s palette", w.width, w.height, w.topFreq, w.markers, w.palette.Name())
	return w
}

func (w *Waterfall) allocate(width, height int) {
	w.width, w.height = width, height
	w.img = image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(w.img.Pix); i += 4 {
		w.img.Pix[i+3] = 0xff
	}
}

// AddSpectrum appends s to the history, scrolls the image one column to
// the left and draws s in the rightmost column.
func (w *Waterfall) AddSpectrum(s *spectral.Spectrum) {
	w.history = append(w.history, w.visible(s))
	if over := len(w.history) - w.width; over > 0 {
		clear(w.history[:over])
		w.history = w.history[over:]
	}

	w.scroll()
	w.history[len(w.history)-1].peak = w.DrawColumn(s, w.width-1)
}

// DrawColumn raises the peak to the frame maxima, renders s at column x
// and then applies one step of peak decay. It returns the peak the column
// was normalized with.
func (w *Waterfall) DrawColumn(s *spectral.Spectrum, x int) []float64 {
	if len(w.peak) < len(s.Channels) {
		w.peak = append(w.peak, make([]float64, len(s.Channels)-len(w.peak))...)
	}
	for ch, mags := range s.Channels {
		for _, m := range mags {
			if a := math.Abs(m); a > w.peak[ch] {
				w.peak[ch] = a
			}
		}
	}

	used := append([]float64(nil), w.peak...)
	w.render(s.Channels, s.Bins(), x, used)

	for ch := range w.peak {
		w.peak[ch] *= w.decay
	}
	w.columns++
	return used
}

// render draws channels, taken from a spectrum of bins bins, at column x
// normalized against peak. Only channels[ch][0..topBin] is read. It does
// not touch the peak state.
func (w *Waterfall) render(channels [][]float64, bins, x int, peak []float64) {
	if x < 0 || x >= w.width || len(channels) == 0 {
		return
	}

	top := TopBin(w.sampleRate, w.topFreq, bins)

	for len(w.rows) < len(channels) {
		w.rows = append(w.rows, nil)
	}
	if cap(w.intensity) < top+1 {
		w.intensity = make([]float64, top+1)
	}
	src := w.intensity[:top+1]

	for ch, mags := range channels {
		var scale float64
		if ch < len(peak) && peak[ch] > 0 {
			scale = 255 / peak[ch]
		}
		for i := range src {
			src[i] = math.Abs(mags[i]) * scale
		}
		if len(w.rows[ch]) != w.height {
			w.rows[ch] = make([]float64, w.height)
		}
		w.rs.resample(w.rows[ch], src)
	}

	left := w.rows[0]
	right := left
	if len(channels) > 1 {
		right = w.rows[1]
	}

	pix, stride := w.img.Pix, w.img.Stride
	for y := range w.height {
		c := w.palette.Color(clampByte(left[y]), clampByte(right[y]))
		w.set(pix, stride, x, y, c)
	}

	for _, f := range w.markers {
		m := MarkerBin(w.sampleRate, f, bins)
		if m < 0 || m > top {
			continue
		}
		y := markerRow(m, top, w.height)
		pix[y*stride+x*4] = 0xff
	}
}

func (w *Waterfall) set(pix []uint8, stride, x, y int, c color.RGBA) {
	i := y*stride + x*4
	pix[i+0] = c.R
	pix[i+1] = c.G
	pix[i+2] = c.B
	pix[i+3] = 0xff
}

// scroll moves every row one pixel left, discarding the leftmost column.
func (w *Waterfall) scroll() {
	pix, stride := w.img.Pix, w.img.Stride
	rowBytes := w.width * 4
	for y := range w.height {
		row := pix[y*stride : y*stride+rowBytes]
		copy(row, row[4:])
	}
}

// Resize changes the image size, clamped to at least 1x1, and repaints
// from history newest-first. It is a no-op when the size is unchanged and
// reports whether anything changed.
func (w *Waterfall) Resize(width, height int) bool {
	width, height = max(width, 1), max(height, 1)
	if width == w.width && height == w.height {
		return false
	}

	if over := len(w.history) - width; over > 0 {
		clear(w.history[:over])
		w.history = w.history[over:]
	}
	w.allocate(width, height)

	n := len(w.history)
	for i := range n {
		e := w.history[n-1-i]
		w.render(e.channels, e.bins, width-1-i, e.peak)
	}
	log.Debugf("Waterfall: resized to %dx%d, repainted %d columns", width, height, n)
	return true
}

// Image returns the rendered image. It is reallocated by Resize.
func (w *Waterfall) Image() *image.RGBA { return w.img }

// Size returns the current width and height.
func (w *Waterfall) Size() (width, height int) { return w.width, w.height }

// Peak returns a copy of the current per-channel peak.
func (w *Waterfall) Peak() []float64 { return append([]float64(nil), w.peak...) }

// HistoryLen returns the number of retained spectra.
func (w *Waterfall) HistoryLen() int { return len(w.history) }

// Columns returns the number of columns drawn since creation.
func (w *Waterfall) Columns() uint64 { return w.columns }

// TopBin returns the highest visible bin for topFreq:
// round((2*topFreq/sampleRate) * bins), clamped to [0, bins-1].
func TopBin(sampleRate, topFreq float64, bins int) int {
	if bins <= 0 {
		return 0
	}
	b := int(math.Round(2 * topFreq / sampleRate * float64(bins)))
	return min(max(b, 0), bins-1)
}

// MarkerBin returns round((2*freq/sampleRate) * bins).
func MarkerBin(sampleRate, freq float64, bins int) int {
	return int(math.Round(2 * freq / sampleRate * float64(bins)))
}

// markerRow maps bin m of [0, top] onto the row showing it, bin 0 at the
// bottom.
func markerRow(m, top, height int) int {
	if top == 0 || height == 1 {
		return height - 1
	}
	return height - 1 - int(math.Round(float64(m)*float64(height-1)/float64(top)))
}

func clampByte(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
