// SPDX-License-Identifier: MIT
package utils

import (
	"math"
	"os"
	"testing"
)

const (
	testSize       = 1024
	testSampleRate = 48000
	testFrequency  = 440.0 // A4 note
)

var testMagnitudes []float64

func TestMain(m *testing.M) {
	testMagnitudes = make([]float64, testSize)

	// Creates a "hill" with peak at position testSize/4.
	for i := range testMagnitudes {
		testMagnitudes[i] = math.Exp(-0.01 * math.Pow(float64(i-testSize/4), 2))
	}

	os.Exit(m.Run())
}

func TestStereoSine(t *testing.T) {
	tests := []struct {
		name    string
		leftHz  float64
		rightHz float64
	}{
		{"Both channels", testFrequency, 2 * testFrequency},
		{"Left only", testFrequency, 0},
		{"Right only", 0, testFrequency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StereoSine(testSize, testSampleRate, tt.leftHz, tt.rightHz, 0.5)

			if len(result) != 2*testSize {
				t.Fatalf("StereoSine() length = %d, want %d", len(result), 2*testSize)
			}

			var leftEnergy, rightEnergy float64
			for i := range testSize {
				leftEnergy += float64(result[2*i] * result[2*i])
				rightEnergy += float64(result[2*i+1] * result[2*i+1])
			}

			if (tt.leftHz > 0) != (leftEnergy > 0) {
				t.Errorf("left channel energy = %f for %.1fHz", leftEnergy, tt.leftHz)
			}
			if (tt.rightHz > 0) != (rightEnergy > 0) {
				t.Errorf("right channel energy = %f for %.1fHz", rightEnergy, tt.rightHz)
			}
		})
	}
}

func TestStereoSineZeroCrossings(t *testing.T) {
	result := StereoSine(testSize, testSampleRate, testFrequency, 0, 1)

	crossCount := 0
	for i := 1; i < testSize; i++ {
		prev, cur := result[2*(i-1)], result[2*i]
		if (prev < 0 && cur >= 0) || (prev >= 0 && cur < 0) {
			crossCount++
		}
	}

	samplesPerCycle := testSampleRate / testFrequency
	expected := float64(testSize) / (samplesPerCycle / 2)
	tolerance := 0.2 * expected
	if math.Abs(float64(crossCount)-expected) > tolerance {
		t.Errorf("zero crossings = %d, expected approximately %.1f±%.1f", crossCount, expected, tolerance)
	}
}

func TestComplexWave(t *testing.T) {
	result := ComplexWave(testSize, 2, testSampleRate)
	if len(result) != 2*testSize {
		t.Fatalf("ComplexWave() length = %d, want %d", len(result), 2*testSize)
	}
	for i := range testSize {
		if result[2*i] != result[2*i+1] {
			t.Fatalf("frame %d: channels differ (%f != %f)", i, result[2*i], result[2*i+1])
		}
	}
}

func TestPeriods(t *testing.T) {
	buffer := make([]float32, 2*(3*128+5))
	for i := range buffer {
		buffer[i] = float32(i)
	}

	periods := Periods(buffer, 128, 2)
	if len(periods) != 3 {
		t.Fatalf("Periods() = %d periods, want 3", len(periods))
	}
	for i, p := range periods {
		if len(p) != 256 {
			t.Errorf("period %d length = %d, want 256", i, len(p))
		}
		if p[0] != float32(i*256) {
			t.Errorf("period %d starts with %f, want %d", i, p[0], i*256)
		}
	}

	if got := Periods(buffer, 0, 2); got != nil {
		t.Errorf("Periods() with zero period size = %v, want nil", got)
	}
}

func TestFindPeakBin(t *testing.T) {
	tests := []struct {
		name     string
		mags     []float64
		start    int
		end      int
		expected int
	}{
		{"Full Range", testMagnitudes, 0, testSize - 1, testSize / 4},
		{"Partial Range Start", testMagnitudes, testSize / 8, testSize - 1, testSize / 4},
		{"Partial Range End", testMagnitudes, 0, testSize / 3, testSize / 4},
		{"Negative Start", testMagnitudes, -10, testSize - 1, testSize / 4},
		{"Out of Range End", testMagnitudes, 0, testSize * 2, testSize / 4},
		{"Empty Slice", []float64{}, 0, 10, 0},
		{"Single Value", []float64{1.0}, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := FindPeakBin(tt.mags, tt.start, tt.end); result != tt.expected {
				t.Errorf("FindPeakBin() = %d, want %d", result, tt.expected)
			}
		})
	}

	allocs := testing.AllocsPerRun(100, func() {
		FindPeakBin(testMagnitudes, 0, len(testMagnitudes)-1)
	})

	if allocs > 0 {
		t.Errorf("FindPeakBin allocated memory: got %.1f allocs, want 0", allocs)
	}
}

func BenchmarkStereoSine(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		StereoSine(testSize, testSampleRate, testFrequency, 2*testFrequency, 0.5)
	}
}
