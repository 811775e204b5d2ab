package audio

import "spectroscope/internal/config"

// Capturer yields interleaved float32 periods. Read fills dst with up to
// len(dst)/channels frames and returns the number of frames read. io.EOF
// signals the end of a finite input.
type Capturer interface {
	Read(dst []float32) (int, error)
	Close() error
	Name() string
}

// StreamParams describes the stream a capturer must deliver.
type StreamParams struct {
	DeviceID   int
	SampleRate float64
	PeriodSize int // frames per Read
	Channels   int
	LowLatency bool
	Pace       bool // file input only: block to real time between periods
}

// ParamsFromConfig extracts the stream parameters from cfg.
func ParamsFromConfig(cfg *config.Config) StreamParams {
	return StreamParams{
		DeviceID:   cfg.Audio.InputDevice,
		SampleRate: cfg.Audio.SampleRate,
		PeriodSize: cfg.Audio.PeriodSize,
		Channels:   cfg.Audio.Channels,
		LowLatency: cfg.Audio.LowLatency,
		Pace:       cfg.Audio.Pace,
	}
}

// Open returns a WAV capturer when path is set, otherwise a device
// capturer.
func Open(path string, p StreamParams) (Capturer, error) {
	if path != "" {
		return OpenWAV(path, p)
	}
	return OpenDevice(p)
}
