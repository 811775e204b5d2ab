// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"sync/atomic"

	"spectroscope/internal/config"
)

// Floor returned by DBFS for silent input.
const SilenceDBFS = -120.0

// Meter holds the peak absolute sample of the most recent period for each
// channel. The capture goroutine writes, the presenter reads.
type Meter struct {
	peaks [config.MaxChannels]atomic.Uint32 // float32 bits
}

// Update scans one interleaved period. Clearing the sign bit gives |s|,
// and the IEEE bit patterns of non-negative floats order like unsigned
// integers, so the scan needs no float comparisons.
func (m *Meter) Update(interleaved []float32, channels int) {
	var peaks [config.MaxChannels]uint32
	channels = min(channels, config.MaxChannels)
	for i := 0; i+channels <= len(interleaved); i += channels {
		for ch := range channels {
			bits := math.Float32bits(interleaved[i+ch]) &^ (1 << 31)
			if bits > peaks[ch] {
				peaks[ch] = bits
			}
		}
	}
	for ch := range channels {
		m.peaks[ch].Store(peaks[ch])
	}
}

// Peak returns the last period's peak for channel ch.
func (m *Meter) Peak(ch int) float32 {
	if ch < 0 || ch >= config.MaxChannels {
		return 0
	}
	return math.Float32frombits(m.peaks[ch].Load())
}

// DBFS returns the last period's peak for channel ch in dB relative to
// full scale, floored at SilenceDBFS.
func (m *Meter) DBFS(ch int) float64 {
	p := float64(m.Peak(ch))
	if p <= 0 {
		return SilenceDBFS
	}
	return max(20*math.Log10(p), SilenceDBFS)
}
