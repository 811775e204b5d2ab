// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"testing"

	"github.com/gordonklaus/portaudio"
)

type fakeStream struct {
	buf      []float32
	readErrs []error
	reads    int
	started  bool
	stopped  bool
	closed   bool
	startErr error
}

func (s *fakeStream) Start() error {
	s.started = true
	return s.startErr
}

func (s *fakeStream) Read() error {
	s.reads++
	for i := range s.buf {
		s.buf[i] = float32(s.reads)
	}
	if len(s.readErrs) > 0 {
		err := s.readErrs[0]
		s.readErrs = s.readErrs[1:]
		return err
	}
	return nil
}

func (s *fakeStream) Stop() error  { s.stopped = true; return nil }
func (s *fakeStream) Close() error { s.closed = true; return nil }

// mockStream installs a fake PortAudio stream and records the parameters it
// was opened with.
func mockStream(t *testing.T, fs *fakeStream, openErr error) *portaudio.StreamParameters {
	t.Helper()
	orig := openStream
	t.Cleanup(func() { openStream = orig })

	var got portaudio.StreamParameters
	openStream = func(p portaudio.StreamParameters, buf []float32) (paStream, error) {
		got = p
		if openErr != nil {
			return nil, openErr
		}
		fs.buf = buf
		return fs, nil
	}
	return &got
}

func TestOpenDevice(t *testing.T) {
	mockPortAudio(t, testDeviceInfos(), 0)
	fs := &fakeStream{readErrs: []error{nil, portaudio.InputOverflowed}}
	params := mockStream(t, fs, nil)

	d, err := OpenDevice(StreamParams{DeviceID: -1, SampleRate: 48000, PeriodSize: 128, Channels: 2, LowLatency: true})
	if err != nil {
		t.Fatalf("OpenDevice() error = %v", err)
	}
	if !fs.started {
		t.Error("stream not started")
	}
	if params.FramesPerBuffer != 128 || params.SampleRate != 48000 || params.Input.Channels != 2 || params.Output.Channels != 0 {
		t.Errorf("stream parameters = %+v", *params)
	}
	if params.Input.Latency != testDeviceInfos()[0].DefaultLowInputLatency {
		t.Errorf("latency = %s, want low latency", params.Input.Latency)
	}
	if d.Name() != "Built-in Microphone" {
		t.Errorf("Name() = %q", d.Name())
	}

	dst := make([]float32, 256)
	for i := range 2 {
		n, err := d.Read(dst)
		if err != nil {
			t.Fatalf("Read %d error = %v", i, err)
		}
		if n != 128 || dst[0] != float32(i+1) {
			t.Fatalf("Read %d = %d frames, dst[0]=%v", i, n, dst[0])
		}
	}
	if d.Overflows() != 1 {
		t.Errorf("Overflows() = %d, want 1", d.Overflows())
	}

	fs.readErrs = []error{portaudio.TimedOut}
	if _, err := d.Read(dst); !errors.Is(err, portaudio.TimedOut) {
		t.Errorf("Read() = %v, want TimedOut", err)
	}

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if !fs.stopped || !fs.closed {
		t.Error("Close() did not stop and close the stream")
	}
}

func TestOpenDeviceUnavailable(t *testing.T) {
	tests := []struct {
		name     string
		params   StreamParams
		defIdx   int
		openErr  error
		startErr error
	}{
		{"no default input", StreamParams{DeviceID: -1, Channels: 2}, -1, nil, nil},
		{"output only device", StreamParams{DeviceID: 1, Channels: 2}, 0, nil, nil},
		{"too many channels", StreamParams{DeviceID: 2, Channels: 2}, 0, nil, nil},
		{"open fails", StreamParams{DeviceID: 0, Channels: 2}, 0, portaudio.InvalidSampleRate, nil},
		{"start fails", StreamParams{DeviceID: 0, Channels: 2}, 0, nil, portaudio.DeviceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPortAudio(t, testDeviceInfos(), tt.defIdx)
			fs := &fakeStream{startErr: tt.startErr}
			mockStream(t, fs, tt.openErr)

			tt.params.SampleRate = 48000
			tt.params.PeriodSize = 128
			_, err := OpenDevice(tt.params)
			if !errors.Is(err, ErrDeviceUnavailable) {
				t.Fatalf("OpenDevice() = %v, want ErrDeviceUnavailable", err)
			}
			if tt.startErr != nil && !fs.closed {
				t.Error("stream left open after failed start")
			}
		})
	}
}
