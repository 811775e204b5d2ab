// SPDX-License-Identifier: MIT
/*
Package app wires one run of the pipeline:

	Capturer -> Source -> Session (Ring, Resolution) -> Engine -> Presenter -> Waterfall

Run supervises the producer and the presenter with an errgroup. A capture
failure stops the presenter; quitting the presenter cancels the producer.
Teardown always happens in the same order: join the producer, release the
ring, close the capturer.
*/
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"spectroscope/internal/audio"
	"spectroscope/internal/config"
	"spectroscope/internal/log"
	"spectroscope/internal/pipeline"
	"spectroscope/internal/spectral"
	"spectroscope/internal/tui"
	"spectroscope/internal/waterfall"
	"spectroscope/pkg/build"

	"golang.org/x/sync/errgroup"
)

// App owns every pipeline component for one run.
type App struct {
	cfg       *config.Config
	session   *pipeline.Session
	source    *audio.Source
	engine    *spectral.Engine
	waterfall *waterfall.Waterfall
	magnitude spectral.Magnitude

	newPresenter func(a *App, ctx context.Context) Presenter
	teardown     sync.Once
}

// Presenter consumes frames until its context ends, the input is
// exhausted, or Stop is called.
type Presenter interface {
	Run(ctx context.Context) error
	Stop(err error)
}

// New builds the pipeline around c. The capturer is owned by the App from
// here on and released by Run.
func New(cfg *config.Config, c audio.Capturer) (*App, error) {
	win, err := spectral.ParseWindowFunc(cfg.Analysis.Window)
	if err != nil {
		return nil, err
	}
	mag, err := spectral.ParseMagnitude(cfg.Analysis.Magnitude)
	if err != nil {
		return nil, err
	}
	wopts, err := waterfall.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	sess, err := pipeline.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	a := &App{
		cfg:       cfg,
		session:   sess,
		source:    audio.NewSource(c, sess),
		waterfall: waterfall.New(wopts),
		magnitude: mag,
	}
	a.engine, err = spectral.NewEngine(sess, spectral.Options{
		Window: win,
		OnOverflow: func(ev spectral.OverflowEvent) {
			log.Debugf("App: ring %+v after overflow %d", sess.Ring.Stats(), ev.Seq)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	a.newPresenter = newTerminal
	if cfg.Headless {
		a.newPresenter = newHeadless
	}
	return a, nil
}

// Run starts capture and blocks until the presenter exits, the context is
// cancelled or capture fails. End of input is not an error. The App cannot
// be run twice.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)
	if err := a.source.Start(gctx); err != nil {
		return err
	}
	p := a.newPresenter(a, gctx)

	g.Go(func() error {
		err := a.source.Wait()
		if err != nil {
			p.Stop(err)
		}
		return err
	})
	g.Go(func() error {
		defer cancel()
		return p.Run(gctx)
	})

	err := g.Wait()
	log.Infof("App: %d periods captured, %d spectra drawn, %d overflows, %d periods overwritten",
		a.source.Cycles(), a.waterfall.Columns(), a.engine.Overflows(), a.source.Overwritten())
	return err
}

// Close tears the pipeline down: stop the producer, release the ring, then
// close the capturer. Safe to call more than once.
func (a *App) Close() error {
	var err error
	a.teardown.Do(func() {
		a.source.Stop()
		a.session.Release()
		err = a.source.Close()
		if err != nil {
			log.Warnf("App: closing input: %v", err)
		}
	})
	return err
}

// Stats returns the counters shown by the presenter.
func (a *App) Stats() tui.Stats {
	m := a.source.Meter()
	return tui.Stats{
		Overflows:   a.engine.Overflows(),
		Overwritten: a.source.Overwritten(),
		LevelDBFS:   [2]float64{m.DBFS(0), m.DBFS(1)},
	}
}

// Waterfall returns the waterfall drawn by the presenter.
func (a *App) Waterfall() *waterfall.Waterfall { return a.waterfall }

// Session returns the pipeline session.
func (a *App) Session() *pipeline.Session { return a.session }

// headless drains the engine into the waterfall without a terminal.
type headless struct {
	a      *App
	stopMu sync.Mutex
	stop   context.CancelFunc
}

func newHeadless(a *App, _ context.Context) Presenter {
	return &headless{a: a}
}

func (h *headless) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	h.stopMu.Lock()
	h.stop = cancel
	h.stopMu.Unlock()

	for f, err := range h.a.engine.All(ctx) {
		if err != nil {
			if errors.Is(err, pipeline.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		h.a.waterfall.AddSpectrum(f.Spectrum(h.a.magnitude))
		if f.Seq%100 == 0 {
			log.Debugf("App: spectrum %d, fft %d, engine %s", f.Seq, f.FFTSize, h.a.engine.State())
		}
	}
	return nil
}

func (h *headless) Stop(error) {
	h.stopMu.Lock()
	defer h.stopMu.Unlock()
	if h.stop != nil {
		h.stop()
	}
}

// terminal runs the bubbletea spectrogram. Log lines are redirected away
// from the screen while it runs.
type terminal struct {
	a       *App
	program *tuiProgram
}

func newTerminal(a *App, ctx context.Context) Presenter {
	m := tui.NewModel(ctx, tui.Options{
		Title:      build.GetBuildFlags().Name,
		Frames:     a.engine,
		Resolution: a.session.Resolution,
		Waterfall:  a.waterfall,
		Magnitude:  a.magnitude,
		Stats:      a.Stats,
	})
	return &terminal{a: a, program: newTUIProgram(m)}
}

func (t *terminal) Run(ctx context.Context) error {
	restore, err := redirectLog(t.a.cfg.LogFile)
	if err != nil {
		t.program.abandon()
		return err
	}
	defer restore()
	return t.program.run(ctx)
}

// Stop asks the program to quit with err. It does not block when Run
// failed before the program started.
func (t *terminal) Stop(err error) {
	t.program.send(tui.StopMsg{Err: err})
}

// redirectLog sends log output to path, or discards it when path is empty,
// and returns a function restoring the previous destination.
func redirectLog(path string) (func(), error) {
	prev := log.Writer()
	if path == "" {
		log.SetOutput(io.Discard)
		return func() { log.SetOutput(prev) }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(prev)
		f.Close()
	}, nil
}
