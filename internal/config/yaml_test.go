// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Analysis.FFTSize != DefaultFFTSize || cfg.Audio.PeriodSize != DefaultPeriodSize {
		t.Errorf("defaults not applied: fft_size=%d period_size=%d", cfg.Analysis.FFTSize, cfg.Audio.PeriodSize)
	}
	if len(cfg.Display.Markers) != 2 || cfg.Display.Markers[0] != 175 || cfg.Display.Markers[1] != 220 {
		t.Errorf("default markers = %v, want [175 220]", cfg.Display.Markers)
	}
}

func TestLoadConfig_DefaultLocation(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "spectroscope.yaml"), []byte("display:\n  top_freq: 4000\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Display.TopFreq != 4000 {
		t.Errorf("top_freq = %g, want 4000", cfg.Display.TopFreq)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("expected unmarshal error, got %v", err)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
log_level: debug
audio:
  period_size: 256
analysis:
  fft_size: 4096
  window: hann
display:
  markers: [440]
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.LogLevel)
	}
	if cfg.Audio.PeriodSize != 256 || cfg.Analysis.FFTSize != 4096 {
		t.Errorf("period_size=%d fft_size=%d, want 256/4096", cfg.Audio.PeriodSize, cfg.Analysis.FFTSize)
	}
	if cfg.Analysis.Window != "hann" {
		t.Errorf("window = %q, want hann", cfg.Analysis.Window)
	}
	if cfg.Audio.SampleRate != DefaultSampleRate || cfg.Audio.Channels != DefaultChannels {
		t.Errorf("untouched audio fields changed: %+v", cfg.Audio)
	}
	if cfg.Display.TopFreq != DefaultTopFreq || cfg.Display.Palette != DefaultPalette {
		t.Errorf("untouched display fields changed: %+v", cfg.Display)
	}
	if len(cfg.Display.Markers) != 1 || cfg.Display.Markers[0] != 440 {
		t.Errorf("markers = %v, want [440]", cfg.Display.Markers)
	}
	if got := cfg.WindowChunks(); got != 16 {
		t.Errorf("WindowChunks() = %d, want 16", got)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeTempConfig(t, "analysis:\n  fft_size: 4096\n")
	t.Setenv("SPECTROSCOPE_FFT_SIZE", "16384")
	t.Setenv("SPECTROSCOPE_TOP_FREQ", "2000")
	t.Setenv("SPECTROSCOPE_DEVICE", " 3 ")
	t.Setenv("SPECTROSCOPE_LOG_LEVEL", "warn")
	t.Setenv("SPECTROSCOPE_INPUT_FILE", "tone.wav")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Analysis.FFTSize != 16384 {
		t.Errorf("fft_size = %d, want env value 16384", cfg.Analysis.FFTSize)
	}
	if cfg.Display.TopFreq != 2000 {
		t.Errorf("top_freq = %g, want 2000", cfg.Display.TopFreq)
	}
	if cfg.Audio.InputDevice != 3 {
		t.Errorf("input_device = %d, want 3", cfg.Audio.InputDevice)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log_level = %q, want warn", cfg.LogLevel)
	}
	if !cfg.FileInput() {
		t.Error("FileInput() = false with SPECTROSCOPE_INPUT_FILE set")
	}
}

func TestLoadConfig_MalformedEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPECTROSCOPE_SAMPLE_RATE", "fast")

	if _, err := LoadConfig(""); err == nil || !strings.Contains(err.Error(), "SPECTROSCOPE_SAMPLE_RATE") {
		t.Errorf("expected sample rate parse error, got %v", err)
	}
}

func TestLoad_DefersValidation(t *testing.T) {
	path := writeTempConfig(t, "analysis:\n  fft_size: 100\n")
	t.Setenv("SPECTROSCOPE_TOP_FREQ", "-5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Analysis.FFTSize != 100 || cfg.Display.TopFreq != -5 {
		t.Errorf("fft_size = %d, top_freq = %g, want the raw file and env values", cfg.Analysis.FFTSize, cfg.Display.TopFreq)
	}

	_, err = LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig() accepted an invalid configuration")
	}
	for _, want := range []string{"analysis.fft_size", "display.top_freq"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("LoadConfig() error %q does not mention %s", err, want)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad device", func(c *Config) { c.Audio.InputDevice = -2 }, "input_device"},
		{"low sample rate", func(c *Config) { c.Audio.SampleRate = 100 }, "sample_rate"},
		{"period not pow2", func(c *Config) { c.Audio.PeriodSize = 100 }, "period_size"},
		{"three channels", func(c *Config) { c.Audio.Channels = 3 }, "channels"},
		{"fft below period", func(c *Config) { c.Analysis.FFTSize = 64 }, "fft_size"},
		{"fft above max", func(c *Config) { c.Analysis.FFTSize = 2 * MaxFFTSize }, "fft_size"},
		{"fft not pow2", func(c *Config) { c.Analysis.FFTSize = 5000 }, "fft_size"},
		{"zero step", func(c *Config) { c.Analysis.StepPeriods = 0 }, "step_periods"},
		{"step larger than window", func(c *Config) { c.Analysis.FFTSize = 512 }, "step_periods"},
		{"negative top freq", func(c *Config) { c.Display.TopFreq = -1 }, "top_freq"},
		{"negative marker", func(c *Config) { c.Display.Markers = []float64{100, -5} }, "markers"},
		{"zero decay", func(c *Config) { c.Display.PeakDecayColumns = 0 }, "peak_decay_columns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errSub == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.errSub)
			}
		})
	}
}

func TestRingCapacity(t *testing.T) {
	t.Parallel()
	cfg := Default()
	if got, want := cfg.RingCapacity(), RingWindows*MaxFFTSize/DefaultPeriodSize; got != want {
		t.Errorf("RingCapacity() = %d, want %d", got, want)
	}
}
