package spectral

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
	"time"
)

// OverflowEvent reports that the engine fell behind the producer and
// truncated the buffer to the newest window.
type OverflowEvent struct {
	Seq     uint64 // frame after which the truncation happened
	Dropped int    // chunks discarded by truncation
	Kept    int    // chunks left, one window
	Time    time.Time
}

func (e OverflowEvent) String() string {
	return fmt.Sprintf("overflow after frame %d: dropped %d chunks, kept %d", e.Seq, e.Dropped, e.Kept)
}

// Frame is one analysis window's complex spectrum, fftSize/2+1 bins per
// channel, bin index increasing with frequency.
type Frame struct {
	Seq        uint64
	FFTSize    int // size latched when the window began
	SampleRate float64
	Coeffs     [][]complex128 // [channel][bin]
	Overflow   *OverflowEvent // set when this emission triggered truncation
}

// Bins returns the number of bins per channel.
func (f *Frame) Bins() int {
	return f.FFTSize/2 + 1
}

// BinFrequency returns the center frequency of bin in Hz.
func (f *Frame) BinFrequency(bin int) float64 {
	return float64(bin) * f.SampleRate / float64(f.FFTSize)
}

// Spectrum reduces the complex coefficients to per-channel magnitudes.
func (f *Frame) Spectrum(m Magnitude) *Spectrum {
	s := &Spectrum{
		Seq:        f.Seq,
		FFTSize:    f.FFTSize,
		SampleRate: f.SampleRate,
		Channels:   make([][]float64, len(f.Coeffs)),
	}
	for ch, coeffs := range f.Coeffs {
		mags := make([]float64, len(coeffs))
		for i, c := range coeffs {
			mags[i] = m.Apply(c)
		}
		s.Channels[ch] = mags
	}
	return s
}

// Spectrum holds non-negative per-channel magnitudes for one frame.
type Spectrum struct {
	Seq        uint64
	FFTSize    int
	SampleRate float64
	Channels   [][]float64 // [channel][bin]
}

// Bins returns the number of bins per channel.
func (s *Spectrum) Bins() int {
	if len(s.Channels) == 0 {
		return 0
	}
	return len(s.Channels[0])
}

// Magnitude selects how a complex bin is reduced to a brightness value.
type Magnitude int

const (
	// MagnitudeSqrt is sqrt(|X|), compressing the dynamic range.
	MagnitudeSqrt Magnitude = iota
	// MagnitudeAbs is |X|.
	MagnitudeAbs
)

func (m Magnitude) String() string {
	switch m {
	case MagnitudeSqrt:
		return "sqrt"
	case MagnitudeAbs:
		return "abs"
	default:
		return fmt.Sprintf("Magnitude(%d)", int(m))
	}
}

// ParseMagnitude converts "sqrt" or "abs" (case-insensitive) to a
// Magnitude. Unknown names return MagnitudeSqrt and an error.
func ParseMagnitude(name string) (Magnitude, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqrt", "":
		return MagnitudeSqrt, nil
	case "abs", "linear":
		return MagnitudeAbs, nil
	default:
		return MagnitudeSqrt, fmt.Errorf("unknown magnitude reduction: %q", name)
	}
}

// Apply reduces one coefficient.
func (m Magnitude) Apply(c complex128) float64 {
	if m == MagnitudeAbs {
		return cmplx.Abs(c)
	}
	return math.Sqrt(cmplx.Abs(c))
}
