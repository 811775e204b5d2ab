package app

import (
	"context"
	"sync"

	"spectroscope/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
)

// tuiProgram adapts a tea.Program to the presenter lifecycle.
//
// tea.Program.Send blocks until the program runs, so send waits for run to
// begin and gives up once the program is abandoned without running.
type tuiProgram struct {
	p *tea.Program

	started     chan struct{}
	abandoned   chan struct{}
	startOnce   sync.Once
	abandonOnce sync.Once
}

func newTUIProgram(m tui.Model) *tuiProgram {
	return &tuiProgram{
		p:         tui.NewProgram(m),
		started:   make(chan struct{}),
		abandoned: make(chan struct{}),
	}
}

// run blocks until the program quits or ctx is cancelled, and returns the
// error the model stopped with.
func (t *tuiProgram) run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, t.p.Quit)
	defer stop()

	t.startOnce.Do(func() { close(t.started) })
	final, err := t.p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(tui.Model); ok {
		return m.Err()
	}
	return nil
}

// abandon marks a program that will never run, releasing pending sends.
func (t *tuiProgram) abandon() {
	t.abandonOnce.Do(func() { close(t.abandoned) })
}

// send delivers msg once the program has started. Once Run has returned,
// tea.Program.Send drops the message.
func (t *tuiProgram) send(msg tea.Msg) {
	select {
	case <-t.started:
		t.p.Send(msg)
	case <-t.abandoned:
	}
}
