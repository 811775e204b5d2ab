package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"spectroscope/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatFloat = 3

// WAVCapturer replays an integer PCM WAV file as if it were a capture
// device. Mono files feed every output channel. The final partial period
// is padded with silence; the next Read returns io.EOF.
type WAVCapturer struct {
	file *os.File
	dec  *wav.Decoder
	name string

	pcm       *audio.IntBuffer
	fileChans int
	channels  int
	offset    float32 // 8-bit WAV is unsigned
	scale     float32

	pace   bool
	period time.Duration
	next   time.Time
	sleep  func(time.Duration)

	eof bool
}

// OpenWAV opens path for replay with the session parameters p. A file
// that cannot be decoded, or whose sample rate differs from
// p.SampleRate, is reported as ErrDeviceUnavailable.
func OpenWAV(path string, p StreamParams) (*WAVCapturer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, deviceUnavailable("%s is not a valid WAV file", path)
	}
	if dec.WavAudioFormat == wavFormatFloat {
		f.Close()
		return nil, deviceUnavailable("%s: floating point WAV is not supported", path)
	}
	if float64(dec.SampleRate) != p.SampleRate {
		f.Close()
		return nil, deviceUnavailable("%s is %d Hz, session runs at %.0f Hz", path, dec.SampleRate, p.SampleRate)
	}
	if err := dec.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceUnavailable, path, err)
	}

	fileChans := int(dec.NumChans)
	depth := int(dec.BitDepth)
	c := &WAVCapturer{
		file: f,
		dec:  dec,
		name: filepath.Base(path),
		pcm: &audio.IntBuffer{
			Format:         dec.Format(),
			Data:           make([]int, p.PeriodSize*fileChans),
			SourceBitDepth: depth,
		},
		fileChans: fileChans,
		channels:  p.Channels,
		scale:     1 / float32(int64(1)<<(depth-1)),
		pace:      p.Pace,
		period:    time.Duration(float64(p.PeriodSize) / p.SampleRate * float64(time.Second)),
		sleep:     time.Sleep,
	}
	if depth == 8 {
		c.offset = 128
	}

	dur, _ := dec.Duration()
	log.Infof("WAV: replaying %s (%d ch, %d Hz, %d bit, %s)", c.name, fileChans, dec.SampleRate, depth, dur)
	return c, nil
}

// Read decodes the next period into dst.
func (c *WAVCapturer) Read(dst []float32) (int, error) {
	if c.eof {
		return 0, io.EOF
	}
	want := len(dst) / c.channels
	need := want * c.fileChans
	if need > len(c.pcm.Data) {
		c.pcm.Data = make([]int, need)
	}

	filled := 0
	for filled < need {
		view := audio.IntBuffer{Data: c.pcm.Data[filled:need]}
		n, err := c.dec.PCMBuffer(&view)
		if err != nil {
			return 0, fmt.Errorf("decode %s: %w", c.name, err)
		}
		if n == 0 {
			break
		}
		filled += n
	}

	frames := filled / c.fileChans
	if frames == 0 {
		c.eof = true
		return 0, io.EOF
	}
	if frames < want {
		c.eof = true
	}

	for i := range want {
		for ch := range c.channels {
			if i >= frames {
				dst[i*c.channels+ch] = 0
				continue
			}
			src := min(ch, c.fileChans-1)
			dst[i*c.channels+ch] = (float32(c.pcm.Data[i*c.fileChans+src]) - c.offset) * c.scale
		}
	}

	c.wait()
	return want, nil
}

// wait blocks until the period's real-time deadline when pacing.
func (c *WAVCapturer) wait() {
	if !c.pace {
		return
	}
	now := time.Now()
	if c.next.IsZero() || now.Sub(c.next) > c.period*8 {
		c.next = now
	}
	c.next = c.next.Add(c.period)
	if d := c.next.Sub(now); d > 0 {
		c.sleep(d)
	}
}

// Name returns the file name.
func (c *WAVCapturer) Name() string { return c.name }

// Close closes the underlying file.
func (c *WAVCapturer) Close() error {
	return c.file.Close()
}
