// SPDX-License-Identifier: MIT
/*
Package audio captures interleaved float32 periods and feeds them to the
pipeline ring.

A Source owns one Capturer (a PortAudio input stream or a WAV file) and a
producer goroutine. The goroutine is the only writer of the ring:

	for each cycle:
	    Read exactly periodSize frames   (blocks on the device)
	    update the level meter
	    Push one chunk into the ring     (overwrites the oldest when full)

A failed or short read ends the loop with a *CaptureError. End of file ends
it cleanly. Either way the ring is closed so the consumer drains what is
left and then sees pipeline.ErrClosed.

Teardown is split so the caller controls ordering:

	src.Stop()      // cancel and join the producer
	session.Release()
	src.Close()     // release the device
*/
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"spectroscope/internal/log"
	"spectroscope/internal/pipeline"
)

// Source runs the capture loop for one session.
type Source struct {
	capturer   Capturer
	ring       *pipeline.Ring
	periodSize int
	channels   int
	buf        []float32 // one interleaved period, reused every cycle

	meter       Meter
	cycles      atomic.Uint64
	overwritten atomic.Uint64

	mu        sync.Mutex // protects cancel, done and err
	cancel    context.CancelFunc
	done      chan struct{}
	err       error
	closeOnce sync.Once
	closeErr  error
}

// NewSource binds a capturer to the session's ring.
func NewSource(c Capturer, s *pipeline.Session) *Source {
	return &Source{
		capturer:   c,
		ring:       s.Ring,
		periodSize: s.PeriodSize,
		channels:   s.Channels,
		buf:        make([]float32, s.ChunkLen()),
	}
}

// Start launches the capture goroutine. It returns an error if the source
// was already started.
func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return errors.New("source already started")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	log.Infof("Source: capturing from %s (%d frames x %d ch per period)", s.capturer.Name(), s.periodSize, s.channels)
	go s.run(ctx, s.done)
	return nil
}

func (s *Source) run(ctx context.Context, done chan struct{}) {
	err := s.loop(ctx)

	s.ring.Close()
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()

	if err != nil {
		log.Errorf("Source: %v", err)
	} else {
		log.Infof("Source: capture loop finished after %d periods", s.cycles.Load())
	}
	close(done)
}

func (s *Source) loop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		cycle := s.cycles.Load()
		n, err := s.capturer.Read(s.buf)
		if errors.Is(err, io.EOF) {
			log.Infof("Source: end of input")
			return nil
		}
		if err != nil {
			return &CaptureError{Cycle: cycle, Frames: n, Want: s.periodSize, Err: err}
		}
		if n != s.periodSize {
			return &CaptureError{Cycle: cycle, Frames: n, Want: s.periodSize}
		}

		s.meter.Update(s.buf, s.channels)

		overwrote, err := s.ring.Push(s.buf)
		if err != nil {
			return fmt.Errorf("push period %d: %w", cycle, err)
		}
		if overwrote {
			if c := s.overwritten.Add(1); c == 1 || c%1000 == 0 {
				log.Warnf("Source: consumer stalled, %d periods overwritten", c)
			}
		}
		s.cycles.Add(1)
	}
}

// Done is closed when the capture loop has exited.
func (s *Source) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Wait blocks until the capture loop exits and returns its error. End of
// input and cancellation return nil.
func (s *Source) Wait() error {
	done := s.Done()
	if done == nil {
		return nil
	}
	<-done
	return s.Err()
}

// Err returns the loop error once it has exited.
func (s *Source) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stop signals the capture loop to end and blocks until it has exited. It
// does not release the device; see Close. Safe to call more than once.
func (s *Source) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if done == nil {
		return nil
	}
	cancel()
	<-done
	log.Debugf("Source: stopped")
	return s.Err()
}

// Close stops the loop if it is still running, then closes the capturer.
func (s *Source) Close() error {
	s.Stop()
	s.closeOnce.Do(func() {
		s.closeErr = s.capturer.Close()
		log.Debugf("Source: released %s", s.capturer.Name())
	})
	return s.closeErr
}

// Cycles returns the number of periods pushed so far.
func (s *Source) Cycles() uint64 { return s.cycles.Load() }

// Overwritten returns the number of periods lost because the ring was full.
func (s *Source) Overwritten() uint64 { return s.overwritten.Load() }

// Meter returns the input level meter.
func (s *Source) Meter() *Meter { return &s.meter }
