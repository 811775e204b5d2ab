package waterfall

import (
	"errors"
	"testing"
)

// failingFit fails every Fit and records Predict calls.
type failingFit struct {
	predicted int
}

func (f *failingFit) Fit(xs, ys []float64) error { return errors.New("singular") }

func (f *failingFit) Predict(x float64) float64 {
	f.predicted++
	return 1
}

func TestResample(t *testing.T) {
	var rs resampler

	t.Run("constant", func(t *testing.T) {
		dst := make([]float64, 17)
		rs.resample(dst, []float64{7, 7, 7, 7, 7})
		for y, v := range dst {
			if v != 7 {
				t.Fatalf("dst[%d] = %g, want 7", y, v)
			}
		}
	})

	t.Run("endpoints", func(t *testing.T) {
		dst := make([]float64, 9)
		rs.resample(dst, []float64{1, 4, 2, 8})
		if dst[len(dst)-1] != 1 || dst[0] != 8 {
			t.Errorf("bottom = %g, top = %g, want 1 and 8", dst[len(dst)-1], dst[0])
		}
	})

	t.Run("monotone without overshoot", func(t *testing.T) {
		src := []float64{0, 0, 10, 200, 255, 255}
		dst := make([]float64, 64)
		rs.resample(dst, src)
		for y := 1; y < len(dst); y++ {
			// dst runs top (high bin) to bottom (low bin).
			if dst[y] > dst[y-1] {
				t.Fatalf("dst[%d] = %g > dst[%d] = %g", y, dst[y], y-1, dst[y-1])
			}
		}
		for y, v := range dst {
			if v < 0 || v > 255 {
				t.Fatalf("dst[%d] = %g overshoots [0, 255]", y, v)
			}
		}
	})

	t.Run("single bin", func(t *testing.T) {
		dst := make([]float64, 4)
		rs.resample(dst, []float64{3})
		for _, v := range dst {
			if v != 3 {
				t.Fatalf("dst = %v, want all 3", dst)
			}
		}
	})

	t.Run("single row", func(t *testing.T) {
		dst := make([]float64, 1)
		rs.resample(dst, []float64{0, 10, 20})
		if dst[0] != 10 {
			t.Errorf("dst[0] = %g, want the middle bin 10", dst[0])
		}
	})

	t.Run("empty source", func(t *testing.T) {
		dst := []float64{1, 2, 3}
		rs.resample(dst, nil)
		for _, v := range dst {
			if v != 0 {
				t.Fatalf("dst = %v, want zeros", dst)
			}
		}
	})

	t.Run("fit failure clears", func(t *testing.T) {
		fit := &failingFit{}
		r := resampler{fp: fit}
		dst := []float64{1, 2, 3, 4}
		r.resample(dst, []float64{0, 10, 20})
		for _, v := range dst {
			if v != 0 {
				t.Fatalf("dst = %v, want zeros", dst)
			}
		}
		if fit.predicted != 0 {
			t.Errorf("Predict called %d times on an unfitted curve", fit.predicted)
		}
	})
}
