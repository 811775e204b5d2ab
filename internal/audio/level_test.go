// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"testing"
)

func TestMeterUpdate(t *testing.T) {
	var m Meter
	m.Update([]float32{0.1, -0.2, -0.5, 0.05, 0.25, 0.1}, 2)

	if got := m.Peak(0); got != 0.5 {
		t.Errorf("left peak = %v, want 0.5", got)
	}
	if got := m.Peak(1); got != 0.2 {
		t.Errorf("right peak = %v, want 0.2", got)
	}
	if got := m.Peak(5); got != 0 {
		t.Errorf("out of range peak = %v, want 0", got)
	}

	// Each period replaces the previous peak.
	m.Update([]float32{0.1, 0.1}, 2)
	if got := m.Peak(0); float64(got) != float64(float32(0.1)) {
		t.Errorf("left peak after second period = %v, want 0.1", got)
	}
}

func TestMeterDBFS(t *testing.T) {
	var m Meter
	if got := m.DBFS(0); got != SilenceDBFS {
		t.Errorf("silent DBFS = %v, want %v", got, SilenceDBFS)
	}
	m.Update([]float32{0.5}, 1)
	if got := m.DBFS(0); math.Abs(got-(-6.0206)) > 0.001 {
		t.Errorf("DBFS(0.5) = %v, want -6.02", got)
	}
}

func TestMeterNoAllocs(t *testing.T) {
	var m Meter
	buf := make([]float32, 256)
	for i := range buf {
		buf[i] = float32(math.Sin(float64(i)))
	}
	allocs := testing.AllocsPerRun(100, func() {
		m.Update(buf, 2)
	})
	if allocs > 0 {
		t.Errorf("Meter.Update allocated: %.1f allocs", allocs)
	}
}
