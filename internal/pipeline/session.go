/*
Package pipeline holds the state shared between the capture goroutine and
the consumer: the chunk ring, the adjustable analysis resolution and the
fixed stream parameters. A Session is created once per run and handed to
the source, the spectral engine and the presenter.

	AudioSource --Push--> Ring --WaitFor/CopyOldest/Advance--> Engine
	                        ^
	Presenter --Double/Halve--> Resolution --FFTSize (latched)--> Engine
*/
package pipeline

import (
	"fmt"

	"spectroscope/internal/config"
)

// Session is the pipeline context object.
type Session struct {
	SampleRate  float64
	PeriodSize  int // frames per chunk
	Channels    int
	StepPeriods int // chunks dropped after each emitted window

	Ring       *Ring
	Resolution *Resolution
}

// NewSession builds a session from a validated configuration.
func NewSession(cfg *config.Config) (*Session, error) {
	a := cfg.Audio

	res, err := NewResolution(cfg.Analysis.FFTSize, a.PeriodSize, config.MaxFFTSize)
	if err != nil {
		return nil, fmt.Errorf("resolution: %w", err)
	}
	ring, err := NewRing(cfg.RingCapacity(), a.PeriodSize*a.Channels)
	if err != nil {
		return nil, fmt.Errorf("ring: %w", err)
	}

	return &Session{
		SampleRate:  a.SampleRate,
		PeriodSize:  a.PeriodSize,
		Channels:    a.Channels,
		StepPeriods: cfg.Analysis.StepPeriods,
		Ring:        ring,
		Resolution:  res,
	}, nil
}

// ChunkLen returns the number of interleaved samples per chunk.
func (s *Session) ChunkLen() int {
	return s.PeriodSize * s.Channels
}

// WindowChunks returns the number of chunks in a window of fftSize samples.
func (s *Session) WindowChunks(fftSize int) int {
	return fftSize / s.PeriodSize
}

// Step returns the chunks to drop after a window of windowChunks chunks.
// A runtime halving can make the window shorter than the configured step,
// in which case the whole window is dropped.
func (s *Session) Step(windowChunks int) int {
	return min(s.StepPeriods, windowChunks)
}

// Release drops all buffered audio. Call it only after the producer has
// stopped.
func (s *Session) Release() {
	s.Ring.Reset()
}
