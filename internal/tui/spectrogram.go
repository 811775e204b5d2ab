/*
Package tui is the terminal presenter. The spectrogram model is the
pipeline consumer: one outstanding command pulls the next frame from the
engine, and every frame, resize and key press is applied inside Update,
the only place the waterfall is touched.
*/
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"spectroscope/internal/log"
	"spectroscope/internal/pipeline"
	"spectroscope/internal/spectral"
	"spectroscope/internal/waterfall"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FrameSource yields spectral frames. It is satisfied by *spectral.Engine.
type FrameSource interface {
	Next(ctx context.Context) (*spectral.Frame, error)
}

// Stats are the pipeline counters shown in the status bar.
type Stats struct {
	Overflows   uint64     // backlog truncations by the engine
	Overwritten uint64     // periods lost to a full ring
	LevelDBFS   [2]float64 // input peak per channel
}

// Options configures a spectrogram model.
type Options struct {
	Title      string
	Frames     FrameSource
	Resolution *pipeline.Resolution
	Waterfall  *waterfall.Waterfall
	Magnitude  spectral.Magnitude
	Stats      func() Stats // optional
}

type (
	frameMsg struct{ frame *spectral.Frame }
	endMsg   struct{}
	errMsg   struct{ err error }
)

// StopMsg asks the model to quit. A non-nil Err is kept and returned by
// Err after the program exits.
type StopMsg struct{ Err error }

// Model is the bubbletea model for the live spectrogram.
type Model struct {
	ctx        context.Context
	title      string
	frames     FrameSource
	resolution *pipeline.Resolution
	waterfall  *waterfall.Waterfall
	magnitude  spectral.Magnitude
	stats      func() Stats

	keys     keyMap
	help     help.Model
	renderer *cellRenderer

	ready         bool
	width, height int
	last          *spectral.Frame
	lastOverflow  *spectral.OverflowEvent
	ended         bool
	err           error
}

// NewModel creates the spectrogram model. ctx bounds every pending frame
// request.
func NewModel(ctx context.Context, opts Options) Model {
	return Model{
		ctx:        ctx,
		title:      opts.Title,
		frames:     opts.Frames,
		resolution: opts.Resolution,
		waterfall:  opts.Waterfall,
		magnitude:  opts.Magnitude,
		stats:      opts.Stats,
		keys:       newKeyMap(),
		help:       help.New(),
		renderer:   newCellRenderer(lipgloss.ColorProfile()),
	}
}

// Init starts pulling frames.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle(m.title), m.nextFrame())
}

// nextFrame blocks on the engine in the command goroutine.
func (m Model) nextFrame() tea.Cmd {
	ctx, frames := m.ctx, m.frames
	return func() tea.Msg {
		f, err := frames.Next(ctx)
		switch {
		case err == nil:
			return frameMsg{frame: f}
		case errors.Is(err, pipeline.ErrClosed):
			return endMsg{}
		case ctx.Err() != nil:
			return nil
		default:
			return errMsg{err: err}
		}
	}
}

// Update handles frames, resizes and keys.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resizeWaterfall()
		return m, nil

	case frameMsg:
		m.last = msg.frame
		if msg.frame.Overflow != nil {
			m.lastOverflow = msg.frame.Overflow
		}
		m.waterfall.AddSpectrum(msg.frame.Spectrum(m.magnitude))
		return m, m.nextFrame()

	case endMsg:
		m.ended = true
		log.Infof("Presenter: end of input after %d columns", m.waterfall.Columns())
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, tea.Quit

	case StopMsg:
		m.err = msg.Err
		return m, tea.Quit

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Finer):
			if n, ok := m.resolution.Double(); ok {
				log.Debugf("Presenter: fft size requested %d", n)
			}
		case key.Matches(msg, m.keys.Coarser):
			if n, ok := m.resolution.Halve(); ok {
				log.Debugf("Presenter: fft size requested %d", n)
			}
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			if m.ready {
				m.resizeWaterfall()
			}
		}
	}
	return m, nil
}

// chromeLines returns the number of terminal rows below the image: the
// status bar and the key help, which grows when the full help is shown.
func (m Model) chromeLines() int {
	return 1 + lipgloss.Height(m.help.View(m.keys))
}

// resizeWaterfall fits the image into the rows left above the chrome, two
// pixels per cell.
func (m Model) resizeWaterfall() {
	rows := max(m.height-m.chromeLines(), 1)
	m.waterfall.Resize(m.width, rows*2)
}

// View renders the waterfall, the status bar and the key help.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var sb strings.Builder
	sb.WriteString(m.renderer.render(m.waterfall.Image()))
	sb.WriteByte('\n')
	sb.WriteString(m.statusLine())
	sb.WriteByte('\n')
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) statusLine() string {
	fftSize := m.resolution.FFTSize()
	if m.last != nil {
		fftSize = m.last.FFTSize
	}
	parts := []string{fmt.Sprintf("fft %d", fftSize)}
	if pending := m.resolution.FFTSize(); pending != fftSize {
		parts[0] += fmt.Sprintf(" -> %d", pending)
	}
	if m.last != nil {
		parts = append(parts,
			fmt.Sprintf("%d bins", m.last.Bins()),
			fmt.Sprintf("%.2f Hz/bin", m.last.SampleRate/float64(m.last.FFTSize)))
	}

	if m.stats != nil {
		s := m.stats()
		parts = append(parts,
			fmt.Sprintf("overflows %d", s.Overflows),
			fmt.Sprintf("overwritten %d", s.Overwritten),
			fmt.Sprintf("in %.1f/%.1f dBFS", s.LevelDBFS[0], s.LevelDBFS[1]))
	}

	if peak := m.waterfall.Peak(); len(peak) > 0 {
		p := make([]string, len(peak))
		for i, v := range peak {
			p[i] = fmt.Sprintf("%.3g", v)
		}
		parts = append(parts, "peak "+strings.Join(p, "/"))
	}

	line := statusStyle.Render(strings.Join(parts, " | "))
	if m.ended {
		line += " " + warnStyle.Render("end of input")
	}
	return line
}

// Err returns the error that stopped the model, if any.
func (m Model) Err() error { return m.err }

// Ended reports whether the frame source has been exhausted.
func (m Model) Ended() bool { return m.ended }

// NewProgram wraps m in a program on the alternate screen. Other
// goroutines stop it by sending StopMsg.
func NewProgram(m Model, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
}
