// SPDX-License-Identifier: MIT
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned by WaitFor once the producer has closed the ring and
// fewer chunks than requested remain.
var ErrClosed = errors.New("pipeline: ring closed")

// Ring is a fixed-capacity circular deque of equally sized audio chunks.
// The producer appends at the tail, the consumer reads and discards from the
// head. All access goes through one mutex; a one-slot channel wakes a
// consumer blocked in WaitFor.
type Ring struct {
	mu       sync.Mutex
	slots    [][]float32 // allocated on first use
	chunkLen int
	head     int // index of the oldest chunk
	size     int // chunks currently held
	closed   bool

	pushed      uint64
	overwritten uint64

	notify chan struct{}
	done   chan struct{}
}

// NewRing creates a ring holding up to capacity chunks of chunkLen
// interleaved samples each.
func NewRing(capacity, chunkLen int) (*Ring, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("ring capacity must be positive, got %d", capacity)
	}
	if chunkLen <= 0 {
		return nil, fmt.Errorf("ring chunk length must be positive, got %d", chunkLen)
	}
	return &Ring{
		slots:    make([][]float32, capacity),
		chunkLen: chunkLen,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// Cap returns the chunk capacity.
func (r *Ring) Cap() int { return len(r.slots) }

// ChunkLen returns the number of interleaved samples per chunk.
func (r *Ring) ChunkLen() int { return r.chunkLen }

// Push copies chunk into the tail slot. When the ring is full the oldest
// chunk is overwritten and counted. Pushes after Close are dropped.
// It reports whether a chunk was overwritten.
func (r *Ring) Push(chunk []float32) (bool, error) {
	if len(chunk) != r.chunkLen {
		return false, fmt.Errorf("chunk has %d samples, ring expects %d", len(chunk), r.chunkLen)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false, ErrClosed
	}

	overwrote := false
	if r.size == len(r.slots) {
		r.head = (r.head + 1) % len(r.slots)
		r.size--
		r.overwritten++
		overwrote = true
	}

	tail := (r.head + r.size) % len(r.slots)
	if r.slots[tail] == nil {
		r.slots[tail] = make([]float32, r.chunkLen)
	}
	copy(r.slots[tail], chunk)
	r.size++
	r.pushed++
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
	return overwrote, nil
}

// Len returns the number of unconsumed chunks.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// WaitFor blocks until at least n chunks are buffered, the context is done,
// or the ring is closed with fewer than n chunks left.
func (r *Ring) WaitFor(ctx context.Context, n int) error {
	if n > len(r.slots) {
		return fmt.Errorf("wait for %d chunks exceeds ring capacity %d", n, len(r.slots))
	}
	for {
		r.mu.Lock()
		size, closed := r.size, r.closed
		r.mu.Unlock()

		if size >= n {
			return nil
		}
		if closed {
			return ErrClosed
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.notify:
		case <-r.done:
		}
	}
}

// CopyOldest copies the oldest n chunks, in order, into dst and returns the
// number of chunks copied. dst must hold n*ChunkLen samples.
func (r *Ring) CopyOldest(dst []float32, n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n = min(n, r.size, len(dst)/r.chunkLen)
	for i := range n {
		slot := r.slots[(r.head+i)%len(r.slots)]
		copy(dst[i*r.chunkLen:(i+1)*r.chunkLen], slot)
	}
	return n
}

// Advance discards the oldest step chunks. If more than limit chunks remain
// afterwards, the ring is truncated to the newest keep chunks in the same
// critical section. It returns the number of chunks dropped by truncation.
func (r *Ring) Advance(step, limit, keep int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.discard(min(max(step, 0), r.size))

	if r.size <= limit {
		return 0
	}
	dropped := r.size - max(keep, 0)
	r.discard(dropped)
	return dropped
}

func (r *Ring) discard(n int) {
	r.head = (r.head + n) % len(r.slots)
	r.size -= n
}

// Close marks the end of production and wakes any waiting consumer.
// Buffered chunks remain readable.
func (r *Ring) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	close(r.done)
}

// Closed reports whether Close has been called.
func (r *Ring) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Reset drops all buffered chunks and releases the slot memory.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.slots)
	r.head = 0
	r.size = 0
}

// RingStats is a snapshot of the ring counters.
type RingStats struct {
	Buffered    int
	Pushed      uint64
	Overwritten uint64
}

// Stats returns the current counters.
func (r *Ring) Stats() RingStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RingStats{
		Buffered:    r.size,
		Pushed:      r.pushed,
		Overwritten: r.overwritten,
	}
}
