// Package utils holds synthetic signal helpers shared by the package tests
// and by the offline fixtures: interleaved float32 tones, silence, period
// slicing and spectral peak search.
package utils

import "math"

// StereoSine returns frames of interleaved stereo float32 audio carrying a
// sine at leftHz on channel 0 and rightHz on channel 1. A zero frequency
// yields silence on that channel.
func StereoSine(frames int, sampleRate, leftHz, rightHz, amplitude float64) []float32 {
	buffer := make([]float32, frames*2)
	for i := range frames {
		t := float64(i) / sampleRate
		if leftHz > 0 {
			buffer[2*i] = float32(amplitude * math.Sin(2*math.Pi*leftHz*t))
		}
		if rightHz > 0 {
			buffer[2*i+1] = float32(amplitude * math.Sin(2*math.Pi*rightHz*t))
		}
	}
	return buffer
}

// ComplexWave returns an interleaved buffer with a 440Hz fundamental plus
// its second and third harmonics on every channel.
func ComplexWave(frames, channels int, sampleRate float64) []float32 {
	buffer := make([]float32, frames*channels)
	for i := range frames {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		for c := range channels {
			buffer[i*channels+c] = float32(signal * 0.9)
		}
	}
	return buffer
}

// Periods slices an interleaved buffer into consecutive periods of
// periodSize frames. A trailing partial period is dropped.
func Periods(interleaved []float32, periodSize, channels int) [][]float32 {
	width := periodSize * channels
	if width <= 0 {
		return nil
	}
	n := len(interleaved) / width
	out := make([][]float32, n)
	for i := range n {
		out[i] = interleaved[i*width : (i+1)*width]
	}
	return out
}

// FindPeakBin returns the index of the largest magnitude in
// [startBin, endBin]. Out of range bounds are clamped.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
