// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"spectroscope/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	LogLevel string         `yaml:"log_level"`         // Logging level ("debug", "info", "warn", "error").
	LogFile  string         `yaml:"log_file"`          // Log destination while the terminal UI runs (empty discards).
	Command  string         `yaml:"command,omitempty"` // A one-off command to execute instead of running the pipeline (e.g., "list").
	Headless bool           `yaml:"headless"`          // Drain spectra without the terminal UI.
	Audio    AudioConfig    `yaml:"audio"`             // Capture settings.
	Analysis AnalysisConfig `yaml:"analysis"`          // Spectral engine settings.
	Display  DisplayConfig  `yaml:"display"`           // Waterfall settings.
}

// AudioConfig holds settings related to audio capture.
type AudioConfig struct {
	InputDevice int     `yaml:"input_device"` // PortAudio device index for audio input (-1 for default).
	InputFile   string  `yaml:"input_file"`   // WAV file replayed instead of a device when set.
	Pick        bool    `yaml:"pick"`         // Choose the input device interactively before starting.
	SampleRate  float64 `yaml:"sample_rate"`  // Sample rate in Hz.
	PeriodSize  int     `yaml:"period_size"`  // Frames per capture call (power of 2).
	Channels    int     `yaml:"channels"`     // 1 for mono, 2 for stereo.
	LowLatency  bool    `yaml:"low_latency"`  // Request low latency settings from the device.
	Pace        bool    `yaml:"pace"`         // Replay file input in real time.
}

// AnalysisConfig holds settings for the sliding-window spectral engine.
type AnalysisConfig struct {
	FFTSize     int    `yaml:"fft_size"`     // Initial window size in samples (power of 2).
	StepPeriods int    `yaml:"step_periods"` // Periods dropped after each emitted spectrum.
	Window      string `yaml:"window"`       // Taper name ("hamming", "hann", "blackman", ...).
	Magnitude   string `yaml:"magnitude"`    // Bin reduction ("sqrt" or "abs").
}

// DisplayConfig holds settings for the waterfall renderer.
type DisplayConfig struct {
	Width            int       `yaml:"width"`              // Initial columns (replaced by the terminal size in the UI).
	Height           int       `yaml:"height"`             // Initial rows.
	TopFreq          float64   `yaml:"top_freq"`           // Highest displayed frequency in Hz.
	Markers          []float64 `yaml:"markers"`            // Frequencies (Hz) highlighted in red.
	Palette          string    `yaml:"palette"`            // Color mapping ("stereo" or "heat").
	PeakDecayColumns float64   `yaml:"peak_decay_columns"` // Columns for the normalization peak to halve.
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			InputDevice: DefaultDeviceID,
			SampleRate:  DefaultSampleRate,
			PeriodSize:  DefaultPeriodSize,
			Channels:    DefaultChannels,
			LowLatency:  DefaultLowLatency,
			Pace:        DefaultPace,
		},
		Analysis: AnalysisConfig{
			FFTSize:     DefaultFFTSize,
			StepPeriods: DefaultStepPeriods,
			Window:      DefaultWindow,
			Magnitude:   DefaultMagnitude,
		},
		Display: DisplayConfig{
			Width:            DefaultWidth,
			Height:           DefaultHeight,
			TopFreq:          DefaultTopFreq,
			Markers:          DefaultMarkers(),
			Palette:          DefaultPalette,
			PeakDecayColumns: DefaultPeakDecayColumns,
		},
	}
}

// LoadConfig loads configuration with Load and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Load reads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides. The result is not validated, so callers layering further overrides
// validate once at the end.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{
			"config.yaml",
			"spectroscope.yaml",
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides AFTER loading from file.
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the numeric invariants the pipeline relies on. Names of
// windows, magnitudes and palettes are checked by the packages that own
// them when the pipeline is built.
func (c *Config) Validate() error {
	var errs []error

	a := c.Audio
	if a.InputDevice < MinDeviceID {
		errs = append(errs, fmt.Errorf("audio.input_device must be >= %d, got %d", MinDeviceID, a.InputDevice))
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be within [%d, %d], got %g", MinSampleRate, MaxSampleRate, a.SampleRate))
	}
	if !bitint.IsPowerOfTwo(a.PeriodSize) || a.PeriodSize < MinPeriodSize || a.PeriodSize > MaxPeriodSize {
		errs = append(errs, fmt.Errorf("audio.period_size must be a power of 2 within [%d, %d], got %d", MinPeriodSize, MaxPeriodSize, a.PeriodSize))
	}
	if a.Channels < 1 || a.Channels > MaxChannels {
		errs = append(errs, fmt.Errorf("audio.channels must be 1 or 2, got %d", a.Channels))
	}

	n := c.Analysis
	if !bitint.IsPowerOfTwo(n.FFTSize) || n.FFTSize < a.PeriodSize || n.FFTSize > MaxFFTSize {
		errs = append(errs, fmt.Errorf("analysis.fft_size must be a power of 2 within [period_size=%d, %d], got %d", a.PeriodSize, MaxFFTSize, n.FFTSize))
	}
	if n.StepPeriods < 1 {
		errs = append(errs, fmt.Errorf("analysis.step_periods must be positive, got %d", n.StepPeriods))
	} else if n.StepPeriods*a.PeriodSize > n.FFTSize {
		errs = append(errs, fmt.Errorf("analysis.step_periods * audio.period_size (%d) must not exceed analysis.fft_size (%d)", n.StepPeriods*a.PeriodSize, n.FFTSize))
	}

	d := c.Display
	if d.TopFreq <= 0 {
		errs = append(errs, fmt.Errorf("display.top_freq must be positive, got %g", d.TopFreq))
	}
	for _, m := range d.Markers {
		if m < 0 {
			errs = append(errs, fmt.Errorf("display.markers must be non-negative, got %g", m))
			break
		}
	}
	if d.PeakDecayColumns <= 0 {
		errs = append(errs, fmt.Errorf("display.peak_decay_columns must be positive, got %g", d.PeakDecayColumns))
	}

	return errors.Join(errs...)
}

// applyEnvOverrides applies SPECTROSCOPE_* environment variables on top of
// the file values. Malformed numbers are reported rather than ignored.
func (c *Config) applyEnvOverrides() error {
	if val, ok := os.LookupEnv("SPECTROSCOPE_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("SPECTROSCOPE_INPUT_FILE"); ok {
		c.Audio.InputFile = val
	}
	if val, ok := os.LookupEnv("SPECTROSCOPE_DEVICE"); ok {
		id, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return fmt.Errorf("SPECTROSCOPE_DEVICE: %w", err)
		}
		c.Audio.InputDevice = id
	}
	if val, ok := os.LookupEnv("SPECTROSCOPE_SAMPLE_RATE"); ok {
		rate, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return fmt.Errorf("SPECTROSCOPE_SAMPLE_RATE: %w", err)
		}
		c.Audio.SampleRate = rate
	}
	if val, ok := os.LookupEnv("SPECTROSCOPE_FFT_SIZE"); ok {
		size, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return fmt.Errorf("SPECTROSCOPE_FFT_SIZE: %w", err)
		}
		c.Analysis.FFTSize = size
	}
	if val, ok := os.LookupEnv("SPECTROSCOPE_TOP_FREQ"); ok {
		freq, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return fmt.Errorf("SPECTROSCOPE_TOP_FREQ: %w", err)
		}
		c.Display.TopFreq = freq
	}
	return nil
}
