// SPDX-License-Identifier: MIT
/*
Package spectral turns the chunk ring into a stream of overlapping,
windowed real FFT spectra.

Each call to Engine.Next:

 1. latches the FFT size from the session resolution
 2. waits for fftSize/periodSize chunks                    (Filling)
 3. copies the oldest window and deinterleaves it          (Ready)
 4. multiplies by the taper and runs a real FFT per channel
 5. drops stepPeriods chunks; if the backlog still exceeds
    two windows it keeps only the newest window            (Overflowed)

A size change made while a window is filling applies to the next window.
*/
package spectral

import (
	"context"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"spectroscope/internal/config"
	"spectroscope/internal/log"
	"spectroscope/internal/pipeline"

	"gonum.org/v1/gonum/dsp/fourier"
)

// State is the engine's position in the emission cycle.
type State int32

const (
	Filling    State = iota // waiting for a full window of chunks
	Ready                   // window complete, transforming
	Overflowed              // the last advance truncated the backlog
)

func (s State) String() string {
	switch s {
	case Filling:
		return "filling"
	case Ready:
		return "ready"
	case Overflowed:
		return "overflowed"
	default:
		return "unknown"
	}
}

// Options configures an Engine.
type Options struct {
	Window     WindowFunc
	OnOverflow func(OverflowEvent) // called synchronously from Next
}

// Pre-allocated buffers for one FFT size.
type workspace struct {
	fft    *fourier.FFT
	window []float64 // taper coefficients
	input  []float64 // windowed single-channel block
	raw    []float32 // interleaved window copied out of the ring
}

// Engine produces spectra from a session. Next must not be called
// concurrently; State and Overflows may be read from any goroutine.
type Engine struct {
	session    *pipeline.Session
	window     WindowFunc
	onOverflow func(OverflowEvent)

	workspaces map[int]*workspace
	seq        uint64

	state     atomic.Int32
	overflows atomic.Uint64
	lastSize  atomic.Int64
}

// NewEngine creates an engine reading from s.
func NewEngine(s *pipeline.Session, opts Options) (*Engine, error) {
	if s == nil || s.Ring == nil || s.Resolution == nil {
		return nil, fmt.Errorf("engine requires a session with a ring and a resolution")
	}
	if s.PeriodSize <= 0 || s.Channels <= 0 || s.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid session: period %d, channels %d, rate %g", s.PeriodSize, s.Channels, s.SampleRate)
	}
	if s.StepPeriods <= 0 {
		return nil, fmt.Errorf("step must be positive, got %d", s.StepPeriods)
	}

	e := &Engine{
		session:    s,
		window:     opts.Window,
		onOverflow: opts.OnOverflow,
		workspaces: make(map[int]*workspace),
	}
	e.lastSize.Store(int64(s.Resolution.FFTSize()))

	log.Infof("Engine: %s window, fft size %d, step %d periods, %d ch at %.0f Hz",
		e.window, s.Resolution.FFTSize(), s.StepPeriods, s.Channels, s.SampleRate)
	return e, nil
}

// Next blocks until the next spectrum is available. It returns
// pipeline.ErrClosed once the producer has finished and less than a window
// remains, or the context error on cancellation.
func (e *Engine) Next(ctx context.Context) (*Frame, error) {
	s := e.session
	fftSize := s.Resolution.FFTSize()
	chunks := s.WindowChunks(fftSize)

	if prev := int(e.lastSize.Swap(int64(fftSize))); prev != fftSize {
		log.Infof("Engine: fft size %d -> %d (%d bins, %.2f Hz/bin)", prev, fftSize, fftSize/2+1, s.SampleRate/float64(fftSize))
	}

	e.state.Store(int32(Filling))
	if err := s.Ring.WaitFor(ctx, chunks); err != nil {
		return nil, err
	}
	e.state.Store(int32(Ready))

	ws := e.workspace(fftSize, chunks*s.ChunkLen())
	s.Ring.CopyOldest(ws.raw, chunks)

	frame := &Frame{
		Seq:        e.seq,
		FFTSize:    fftSize,
		SampleRate: s.SampleRate,
		Coeffs:     make([][]complex128, s.Channels),
	}
	for ch := range s.Channels {
		for i := range fftSize {
			ws.input[i] = float64(ws.raw[i*s.Channels+ch]) * ws.window[i]
		}
		frame.Coeffs[ch] = ws.fft.Coefficients(nil, ws.input)
	}

	if dropped := s.Ring.Advance(s.Step(chunks), config.OverflowFactor*chunks, chunks); dropped > 0 {
		ev := OverflowEvent{Seq: e.seq, Dropped: dropped, Kept: chunks, Time: time.Now()}
		frame.Overflow = &ev
		e.state.Store(int32(Overflowed))
		n := e.overflows.Add(1)
		log.Warnf("Engine: %s (%d total)", ev, n)
		if e.onOverflow != nil {
			e.onOverflow(ev)
		}
	}

	e.seq++
	return frame, nil
}

// All returns a range-over-func view of Next. Iteration stops after the
// first error, which is yielded with a nil frame.
func (e *Engine) All(ctx context.Context) iter.Seq2[*Frame, error] {
	return func(yield func(*Frame, error) bool) {
		for {
			f, err := e.Next(ctx)
			if !yield(f, err) || err != nil {
				return
			}
		}
	}
}

// State returns the current state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Overflows returns the number of truncations so far.
func (e *Engine) Overflows() uint64 {
	return e.overflows.Load()
}

// Window returns the taper in use.
func (e *Engine) Window() WindowFunc {
	return e.window
}

func (e *Engine) workspace(fftSize, rawLen int) *workspace {
	if ws, ok := e.workspaces[fftSize]; ok {
		return ws
	}
	ws := &workspace{
		fft:    fourier.NewFFT(fftSize),
		window: windowCoefficients(fftSize, e.window),
		input:  make([]float64, fftSize),
		raw:    make([]float32, rawLen),
	}
	e.workspaces[fftSize] = ws
	return ws
}
