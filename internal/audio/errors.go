package audio

import (
	"errors"
	"fmt"
)

// ErrDeviceUnavailable is returned when no usable input can be opened.
// The pipeline never starts.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// ErrCapture matches any *CaptureError via errors.Is.
var ErrCapture = errors.New("audio capture failed")

// CaptureError reports a failed or short read in the capture loop. It is
// fatal: the source stops and the pipeline is torn down.
type CaptureError struct {
	Cycle  uint64 // zero-based capture cycle that failed
	Frames int    // frames actually read
	Want   int    // frames requested (the period size)
	Err    error  // underlying cause, nil for a short read
}

func (e *CaptureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("capture cycle %d: %v", e.Cycle, e.Err)
	}
	return fmt.Sprintf("capture cycle %d: short read (%d of %d frames)", e.Cycle, e.Frames, e.Want)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// Is reports whether target is ErrCapture.
func (e *CaptureError) Is(target error) bool { return target == ErrCapture }

func deviceUnavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDeviceUnavailable, fmt.Sprintf(format, args...))
}
