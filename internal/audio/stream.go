// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"sync/atomic"

	"spectroscope/internal/log"

	"github.com/gordonklaus/portaudio"
)

// paStream is the subset of *portaudio.Stream used for blocking capture.
type paStream interface {
	Start() error
	Read() error
	Stop() error
	Close() error
}

// openStream is replaced in tests.
var openStream = func(p portaudio.StreamParameters, buf []float32) (paStream, error) {
	s, err := portaudio.OpenStream(p, buf)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// DeviceCapturer reads periods from a PortAudio blocking input stream.
type DeviceCapturer struct {
	stream   paStream
	buf      []float32 // filled by stream.Read
	channels int
	name     string

	overflows atomic.Uint64
}

// OpenDevice opens and starts a float32 input stream on the configured
// device. Any failure is reported as ErrDeviceUnavailable.
func OpenDevice(p StreamParams) (*DeviceCapturer, error) {
	info, err := InputDevice(p.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	if info.MaxInputChannels < p.Channels {
		return nil, deviceUnavailable("device %q has %d input channels, need %d", info.Name, info.MaxInputChannels, p.Channels)
	}

	var params portaudio.StreamParameters
	if p.LowLatency {
		params = portaudio.LowLatencyParameters(info, nil)
	} else {
		params = portaudio.HighLatencyParameters(info, nil)
	}
	params.Input.Channels = p.Channels
	params.Output.Channels = 0
	params.SampleRate = p.SampleRate
	params.FramesPerBuffer = p.PeriodSize

	buf := make([]float32, p.PeriodSize*p.Channels)
	stream, err := openStream(params, buf)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %w", ErrDeviceUnavailable, info.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: start %q: %w", ErrDeviceUnavailable, info.Name, err)
	}

	log.Infof("Device: opened %q (%d ch, %.0f Hz, %d frames/period, latency %s)",
		info.Name, p.Channels, p.SampleRate, p.PeriodSize, params.Input.Latency)

	return &DeviceCapturer{
		stream:   stream,
		buf:      buf,
		channels: p.Channels,
		name:     info.Name,
	}, nil
}

// Read blocks until one period is available and copies it into dst.
// An input overflow still delivers a full buffer; it is counted, not
// returned.
func (d *DeviceCapturer) Read(dst []float32) (int, error) {
	if err := d.stream.Read(); err != nil {
		if !errors.Is(err, portaudio.InputOverflowed) {
			return 0, err
		}
		n := d.overflows.Add(1)
		log.Debugf("Device: input overflowed (%d total)", n)
	}
	n := copy(dst, d.buf)
	return n / d.channels, nil
}

// Overflows returns the number of hardware input overflows seen so far.
func (d *DeviceCapturer) Overflows() uint64 {
	return d.overflows.Load()
}

// Name returns the device name.
func (d *DeviceCapturer) Name() string { return d.name }

// Close stops and closes the stream.
func (d *DeviceCapturer) Close() error {
	stopErr := d.stream.Stop()
	closeErr := d.stream.Close()
	if err := errors.Join(stopErr, closeErr); err != nil {
		return fmt.Errorf("close %q: %w", d.name, err)
	}
	return nil
}
