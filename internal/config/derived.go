package config

// WindowChunks returns the number of capture periods in one analysis window.
func (c *Config) WindowChunks() int {
	return c.Analysis.FFTSize / c.Audio.PeriodSize
}

// RingCapacity returns the chunk capacity of the capture ring, sized for
// RingWindows windows of the largest selectable FFT size.
func (c *Config) RingCapacity() int {
	return RingWindows * MaxFFTSize / c.Audio.PeriodSize
}

// FileInput reports whether audio is replayed from a WAV file.
func (c *Config) FileInput() bool {
	return c.Audio.InputFile != ""
}
