package config

// Core configuration constants that define the boundaries and defaults
// for the capture, analysis and display stages.
const (
	// Audio capture defaults
	DefaultDeviceID   = MinDeviceID // System default input device
	DefaultSampleRate = 48000       // Hz
	DefaultPeriodSize = 128         // Frames per capture call
	DefaultChannels   = 2           // Stereo
	DefaultLowLatency = false       // Standard latency mode
	DefaultPace       = true        // Replay WAV input in real time

	// Analysis defaults
	DefaultFFTSize     = 8192      // Samples per analysis window
	DefaultStepPeriods = 8         // Periods advanced per emitted spectrum
	DefaultWindow      = "hamming" // Taper applied before the FFT
	DefaultMagnitude   = "sqrt"    // sqrt(|X|) compresses the dynamic range

	// Display defaults
	DefaultWidth            = 768      // Columns of spectral history
	DefaultHeight           = 512      // Rows per column
	DefaultTopFreq          = 1375.0   // Highest displayed frequency (Hz)
	DefaultPalette          = "stereo" // Two-channel color mapping
	DefaultPeakDecayColumns = 100.0    // Peak halves every 100 columns

	DefaultLogLevel = "info"

	// Hardware and processing limits
	MinDeviceID   = -1     // -1 represents system default device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MinPeriodSize = 16     // Smallest capture period (power of 2)
	MaxPeriodSize = 8192   // Largest capture period (power of 2)
	MaxFFTSize    = 65536  // Upper bound for runtime resolution changes
	MaxChannels   = 2      // Stereo is the widest layout rendered

	// OverflowFactor is the backlog, in windows, above which the engine
	// truncates the buffer to a single window.
	OverflowFactor = 2

	// RingWindows sizes the chunk ring in units of the largest window.
	RingWindows = 4
)

// DefaultMarkers are the highlighted frequencies (Hz) used when none are
// configured.
func DefaultMarkers() []float64 {
	return []float64{175, 220}
}
