package waterfall

import "gonum.org/v1/gonum/interp"

// fitPredictor is the part of interp.FritschButland the resampler uses.
type fitPredictor interface {
	Fit(xs, ys []float64) error
	Predict(x float64) float64
}

// resampler stretches a run of bins onto a column of pixels with a
// monotone cubic, so the curve never overshoots the bin values.
type resampler struct {
	xs []float64 // 0, 1, ... n-1
	fp fitPredictor
}

// resample fills dst with src sampled at len(dst) evenly spaced positions
// from src[0] (dst[len-1], bottom row) to src[len-1] (dst[0], top row).
// dst is cleared when the curve cannot be fitted.
func (r *resampler) resample(dst, src []float64) {
	n, h := len(src), len(dst)
	if n == 0 || h == 0 {
		clear(dst)
		return
	}
	if n == 1 {
		for i := range dst {
			dst[i] = src[0]
		}
		return
	}

	if len(r.xs) != n {
		r.xs = make([]float64, n)
		for i := range r.xs {
			r.xs[i] = float64(i)
		}
	}
	if r.fp == nil {
		r.fp = &interp.FritschButland{}
	}
	if err := r.fp.Fit(r.xs, src); err != nil {
		clear(dst)
		return
	}

	if h == 1 {
		dst[0] = r.fp.Predict(float64(n-1) / 2)
		return
	}
	scale := float64(n-1) / float64(h-1)
	for y := range dst {
		dst[y] = r.fp.Predict(float64(h-1-y) * scale)
	}
}
