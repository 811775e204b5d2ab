// SPDX-License-Identifier: MIT
package bitint

import (
	"fmt"
	"testing"
)

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected int
	}{
		{-10, 1},       // Negative number
		{0, 1},         // Zero
		{8, 8},         // Already power of two
		{10, 16},       // Not power of two
		{1000, 1024},   // Large number
		{65535, 65536}, // Just below the FFT ceiling
		{65536, 65536}, // The FFT ceiling itself
		{3, 4},         // Small non-power
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%d", tt.n, tt.expected), func(t *testing.T) {
			result := NextPowerOfTwo(tt.n)
			if result != tt.expected {
				t.Errorf("NextPowerOfTwo(%d) = %d, expected %d", tt.n, result, tt.expected)
			}
		})
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected bool
	}{
		{-2, false},     // Negative number
		{0, false},      // Zero
		{1, true},       // One
		{8, true},       // Power of two
		{10, false},     // Not power of two
		{1 << 20, true}, // Large power of two
		{384, false},    // Multiple of a period but not a power
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%t", tt.n, tt.expected), func(t *testing.T) {
			result := IsPowerOfTwo(tt.n)
			if result != tt.expected {
				t.Errorf("IsPowerOfTwo(%d) = %v, expected %v", tt.n, result, tt.expected)
			}
		})
	}
}

func TestLog2(t *testing.T) {
	tests := []struct {
		n        int
		expected int
	}{
		{0, -1},
		{-4, -1},
		{1, 0},
		{2, 1},
		{128, 7},
		{129, 7},
		{8192, 13},
		{65536, 16},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%d", tt.n, tt.expected), func(t *testing.T) {
			if got := Log2(tt.n); got != tt.expected {
				t.Errorf("Log2(%d) = %d, expected %d", tt.n, got, tt.expected)
			}
		})
	}
}

func TestClampPowerOfTwo(t *testing.T) {
	tests := []struct {
		n, lo, hi int
		expected  int
	}{
		{64, 128, 65536, 128},        // Below floor
		{128, 128, 65536, 128},       // At floor
		{5000, 128, 65536, 8192},     // Rounded up
		{1 << 17, 128, 65536, 65536}, // Above ceiling
		{0, 128, 65536, 128},         // Degenerate input
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d[%d,%d]", tt.n, tt.lo, tt.hi), func(t *testing.T) {
			if got := ClampPowerOfTwo(tt.n, tt.lo, tt.hi); got != tt.expected {
				t.Errorf("ClampPowerOfTwo(%d, %d, %d) = %d, expected %d",
					tt.n, tt.lo, tt.hi, got, tt.expected)
			}
		})
	}
}

func BenchmarkNextPowerOfTwo(b *testing.B) {
	var i int
	b.ReportAllocs()
	for b.Loop() {
		NextPowerOfTwo(i % 10000)
		i++
	}
}

func BenchmarkIsPowerOfTwo(b *testing.B) {
	var i int
	b.ReportAllocs()
	for b.Loop() {
		IsPowerOfTwo(i % 10000)
		i++
	}
}
