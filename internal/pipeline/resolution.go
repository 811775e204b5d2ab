package pipeline

import (
	"fmt"
	"sync/atomic"

	"spectroscope/pkg/bitint"
)

// Resolution is the runtime-adjustable FFT size. Writers are the key
// handlers; the engine reads it once at the start of every window.
type Resolution struct {
	size     atomic.Int64
	min, max int
}

// NewResolution returns a resolution bounded to [lo, hi]. All three values
// must be powers of two.
func NewResolution(initial, lo, hi int) (*Resolution, error) {
	if !bitint.IsPowerOfTwo(lo) || !bitint.IsPowerOfTwo(hi) || lo > hi {
		return nil, fmt.Errorf("invalid resolution bounds [%d, %d]", lo, hi)
	}
	r := &Resolution{min: lo, max: hi}
	if err := r.Set(initial); err != nil {
		return nil, err
	}
	return r, nil
}

// FFTSize returns the current size in samples.
func (r *Resolution) FFTSize() int {
	return int(r.size.Load())
}

// Bounds returns the inclusive size limits.
func (r *Resolution) Bounds() (lo, hi int) {
	return r.min, r.max
}

// Set replaces the size. n must be a power of two within bounds.
func (r *Resolution) Set(n int) error {
	if !bitint.IsPowerOfTwo(n) || n < r.min || n > r.max {
		return fmt.Errorf("fft size %d must be a power of 2 within [%d, %d]", n, r.min, r.max)
	}
	r.size.Store(int64(n))
	return nil
}

// Double doubles the size unless already at the upper bound. It returns the
// resulting size and whether it changed.
func (r *Resolution) Double() (int, bool) {
	return r.scale(func(n int) int { return n * 2 })
}

// Halve halves the size unless already at the lower bound.
func (r *Resolution) Halve() (int, bool) {
	return r.scale(func(n int) int { return n / 2 })
}

func (r *Resolution) scale(f func(int) int) (int, bool) {
	for {
		cur := r.size.Load()
		next := int64(bitint.ClampPowerOfTwo(f(int(cur)), r.min, r.max))
		if next == cur {
			return int(cur), false
		}
		if r.size.CompareAndSwap(cur, next) {
			return int(next), true
		}
	}
}
