// SPDX-License-Identifier: MIT
package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func chunkOf(chunkLen int, v float32) []float32 {
	c := make([]float32, chunkLen)
	for i := range c {
		c[i] = v
	}
	return c
}

func mustRing(t testing.TB, capacity, chunkLen int) *Ring {
	t.Helper()
	r, err := NewRing(capacity, chunkLen)
	if err != nil {
		t.Fatalf("NewRing(%d, %d) error = %v", capacity, chunkLen, err)
	}
	return r
}

func TestNewRingRejectsInvalidSizes(t *testing.T) {
	if _, err := NewRing(0, 4); err == nil {
		t.Error("NewRing with zero capacity succeeded")
	}
	if _, err := NewRing(4, 0); err == nil {
		t.Error("NewRing with zero chunk length succeeded")
	}
}

func TestRingPushAndCopyOrder(t *testing.T) {
	r := mustRing(t, 4, 2)
	for i := range 3 {
		if _, err := r.Push(chunkOf(2, float32(i))); err != nil {
			t.Fatalf("Push(%d) error = %v", i, err)
		}
	}
	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}

	dst := make([]float32, 6)
	if n := r.CopyOldest(dst, 3); n != 3 {
		t.Fatalf("CopyOldest() = %d, want 3", n)
	}
	want := []float32{0, 0, 1, 1, 2, 2}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst = %v, want %v", dst, want)
		}
	}
	if r.Len() != 3 {
		t.Errorf("CopyOldest consumed chunks: Len() = %d", r.Len())
	}
}

func TestRingPushWrongLength(t *testing.T) {
	r := mustRing(t, 2, 4)
	if _, err := r.Push(make([]float32, 3)); err == nil {
		t.Error("Push with short chunk succeeded")
	}
}

func TestRingOverwriteWhenFull(t *testing.T) {
	r := mustRing(t, 3, 1)
	for i := range 5 {
		overwrote, err := r.Push([]float32{float32(i)})
		if err != nil {
			t.Fatal(err)
		}
		if want := i >= 3; overwrote != want {
			t.Errorf("Push(%d) overwrote = %v, want %v", i, overwrote, want)
		}
	}

	stats := r.Stats()
	if stats.Buffered != 3 || stats.Pushed != 5 || stats.Overwritten != 2 {
		t.Errorf("Stats() = %+v, want 3 buffered, 5 pushed, 2 overwritten", stats)
	}

	dst := make([]float32, 3)
	r.CopyOldest(dst, 3)
	if dst[0] != 2 || dst[1] != 3 || dst[2] != 4 {
		t.Errorf("oldest after wraparound = %v, want [2 3 4]", dst)
	}
}

func TestRingAdvance(t *testing.T) {
	tests := []struct {
		name        string
		fill        int
		step        int
		limit       int
		keep        int
		wantDropped int
		wantLen     int
		wantOldest  float32
	}{
		{"step only", 10, 3, 20, 5, 0, 7, 3},
		{"step larger than buffered", 2, 8, 20, 5, 0, 0, -1},
		{"at limit is kept", 13, 3, 10, 5, 0, 10, 3},
		{"above limit truncates", 14, 3, 10, 5, 6, 5, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustRing(t, 32, 1)
			for i := range tt.fill {
				r.Push([]float32{float32(i)})
			}

			if got := r.Advance(tt.step, tt.limit, tt.keep); got != tt.wantDropped {
				t.Errorf("Advance() dropped = %d, want %d", got, tt.wantDropped)
			}
			if r.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", r.Len(), tt.wantLen)
			}
			if tt.wantLen > 0 {
				dst := make([]float32, 1)
				r.CopyOldest(dst, 1)
				if dst[0] != tt.wantOldest {
					t.Errorf("oldest = %v, want %v", dst[0], tt.wantOldest)
				}
			}
		})
	}
}

func TestRingWaitFor(t *testing.T) {
	r := mustRing(t, 8, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- r.WaitFor(ctx, 4) }()

	for i := range 4 {
		select {
		case err := <-errc:
			t.Fatalf("WaitFor returned early after %d chunks: %v", i, err)
		default:
		}
		r.Push([]float32{float32(i)})
	}

	if err := <-errc; err != nil {
		t.Fatalf("WaitFor() error = %v", err)
	}
}

func TestRingWaitForClosed(t *testing.T) {
	r := mustRing(t, 8, 1)
	r.Push([]float32{1})

	var wg sync.WaitGroup
	var err error
	wg.Add(1)
	go func() {
		defer wg.Done()
		err = r.WaitFor(context.Background(), 2)
	}()
	r.Close()
	wg.Wait()

	if !errors.Is(err, ErrClosed) {
		t.Errorf("WaitFor() after Close = %v, want ErrClosed", err)
	}
	if err := r.WaitFor(context.Background(), 1); err != nil {
		t.Errorf("buffered chunk not drainable after Close: %v", err)
	}
	if _, err := r.Push([]float32{2}); !errors.Is(err, ErrClosed) {
		t.Errorf("Push() after Close = %v, want ErrClosed", err)
	}
	r.Close() // idempotent
}

func TestRingWaitForCancelled(t *testing.T) {
	r := mustRing(t, 8, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.WaitFor(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("WaitFor() = %v, want context.Canceled", err)
	}
	if err := r.WaitFor(ctx, 9); err == nil {
		t.Error("WaitFor() beyond capacity succeeded")
	}
}

func TestRingReset(t *testing.T) {
	r := mustRing(t, 4, 1)
	for range 4 {
		r.Push([]float32{1})
	}
	r.Reset()
	if r.Len() != 0 {
		t.Errorf("Len() after Reset = %d", r.Len())
	}
	for _, s := range r.slots {
		if s != nil {
			t.Fatal("Reset kept slot memory")
		}
	}
}

func TestRingConcurrentProducerConsumer(t *testing.T) {
	const (
		chunks   = 2000
		window   = 8
		chunkLen = 4
	)
	r := mustRing(t, 64, chunkLen)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		defer r.Close()
		for i := range chunks {
			r.Push(chunkOf(chunkLen, float32(i)))
		}
	}()

	dst := make([]float32, window*chunkLen)
	for {
		if err := r.WaitFor(ctx, window); err != nil {
			if errors.Is(err, ErrClosed) {
				break
			}
			t.Fatalf("WaitFor() error = %v", err)
		}
		r.CopyOldest(dst, window)
		for i := 1; i < window; i++ {
			if dst[i*chunkLen] <= dst[(i-1)*chunkLen] {
				t.Fatalf("chunks out of order: %v", dst)
			}
		}
		r.Advance(2, 2*window, window)
	}
}

func BenchmarkRingPush(b *testing.B) {
	r := mustRing(b, 2048, 256)
	chunk := make([]float32, 256)
	b.ReportAllocs()
	for b.Loop() {
		r.Push(chunk)
	}
}
