package cmd

import (
	"fmt"
	"io"
	"strconv"

	"spectroscope/internal/config"
	"spectroscope/pkg/bitint"
	"spectroscope/pkg/build"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Commands returned in Config.Command.
const (
	CommandRun  = ""
	CommandList = "list"
	CommandHelp = "help" // help or version was printed, nothing to run
)

// powerOfTwo is a pflag.Value accepting only positive powers of two.
type powerOfTwo int

var _ pflag.Value = (*powerOfTwo)(nil)

func (p *powerOfTwo) String() string { return strconv.Itoa(int(*p)) }

func (p *powerOfTwo) Set(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%q is not an integer", s)
	}
	if !bitint.IsPowerOfTwo(n) {
		return fmt.Errorf("%d is not a power of 2", n)
	}
	*p = powerOfTwo(n)
	return nil
}

func (p *powerOfTwo) Type() string { return "pow2" }

// flagValues holds the raw flag targets. They are copied into the loaded
// configuration only when the user set them.
type flagValues struct {
	configPath string
	device     int
	input      string
	pick       bool
	sampleRate float64
	period     powerOfTwo
	channels   int
	lowLatency bool
	fftSize    powerOfTwo
	step       int
	window     string
	magnitude  string
	topFreq    float64
	markers    []float64
	palette    string
	decay      float64
	noPace     bool
	headless   bool
	logLevel   string
	logFile    string
	verbose    bool
}

// ParseArgs parses args (without the program name) and returns the
// configuration to run: defaults, then the config file, then environment
// overrides, then explicitly set flags. Help and version output go to out.
func ParseArgs(args []string, out io.Writer) (*config.Config, error) {
	buildInfo := build.GetBuildFlags()
	v := flagValues{
		period:  powerOfTwo(config.DefaultPeriodSize),
		fftSize: powerOfTwo(config.DefaultFFTSize),
	}

	var options *config.Config
	load := func(cmd *cobra.Command, command string) error {
		cfg, err := config.Load(v.configPath)
		if err != nil {
			return err
		}
		applyFlags(cfg, cmd.Flags(), &v)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg.Command = command
		options = cfg
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.String(),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd, CommandRun)
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd, CommandList)
		},
	}
	rootCmd.AddCommand(listCmd)

	flags := rootCmd.PersistentFlags()

	flags.StringVarP(&v.configPath, "config", "f", "",
		"Configuration file (default: config.yaml in the working directory)")

	// Audio input
	flags.IntVarP(&v.device, "device", "d", config.DefaultDeviceID,
		"Input device ID (-1 for the default). Use 'list' to see available devices.")
	flags.StringVarP(&v.input, "input", "i", "",
		"Replay a WAV file instead of capturing from a device")
	flags.BoolVar(&v.pick, "pick", false,
		"Choose the input device interactively")
	flags.Float64VarP(&v.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	flags.VarP(&v.period, "period", "p",
		"Frames per capture period (power of 2)")
	flags.IntVarP(&v.channels, "channels", "c", config.DefaultChannels,
		"Number of channels to capture (1=mono, 2=stereo)")
	flags.BoolVarP(&v.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use the device's low latency settings")
	flags.BoolVar(&v.noPace, "no-pace", false,
		"Replay file input as fast as possible")

	// Analysis
	flags.VarP(&v.fftSize, "fft-size", "n",
		"Initial FFT size in samples (power of 2, adjustable at runtime)")
	flags.IntVar(&v.step, "step", config.DefaultStepPeriods,
		"Periods to advance after each spectrum")
	flags.StringVar(&v.window, "window", config.DefaultWindow,
		"Window function (hamming, hann, blackman, blackman-nuttall, bartlett-hann, lanczos, nuttall, rectangular)")
	flags.StringVar(&v.magnitude, "magnitude", config.DefaultMagnitude,
		"Bin magnitude (sqrt or abs)")

	// Display
	flags.Float64VarP(&v.topFreq, "top-freq", "t", config.DefaultTopFreq,
		"Highest displayed frequency in Hz")
	flags.Float64SliceVarP(&v.markers, "marker", "m", config.DefaultMarkers(),
		"Marker frequency in Hz (repeatable)")
	flags.StringVar(&v.palette, "palette", config.DefaultPalette,
		"Color palette (stereo or heat)")
	flags.Float64Var(&v.decay, "decay", config.DefaultPeakDecayColumns,
		"Columns for the brightness peak to halve")
	flags.BoolVar(&v.headless, "headless", false,
		"Run without the terminal UI")

	// Logging
	flags.StringVar(&v.logLevel, "log-level", config.DefaultLogLevel,
		"Log level (debug, info, warn, error)")
	flags.StringVar(&v.logFile, "log-file", "",
		"Write logs to this file while the terminal UI runs")
	flags.BoolVarP(&v.verbose, "verbose", "v", false,
		"Show verbose output (same as --log-level debug)")

	rootCmd.MarkFlagsMutuallyExclusive("pick", "input")

	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	if options == nil {
		cfg := config.Default()
		cfg.Command = CommandHelp
		return cfg, nil
	}
	return options, nil
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(cfg *config.Config, fs *pflag.FlagSet, v *flagValues) {
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}

	set("device", func() { cfg.Audio.InputDevice = v.device })
	set("input", func() { cfg.Audio.InputFile = v.input })
	set("pick", func() { cfg.Audio.Pick = v.pick })
	set("sample-rate", func() { cfg.Audio.SampleRate = v.sampleRate })
	set("period", func() { cfg.Audio.PeriodSize = int(v.period) })
	set("channels", func() { cfg.Audio.Channels = v.channels })
	set("low-latency", func() { cfg.Audio.LowLatency = v.lowLatency })
	set("no-pace", func() { cfg.Audio.Pace = !v.noPace })

	set("fft-size", func() { cfg.Analysis.FFTSize = int(v.fftSize) })
	set("step", func() { cfg.Analysis.StepPeriods = v.step })
	set("window", func() { cfg.Analysis.Window = v.window })
	set("magnitude", func() { cfg.Analysis.Magnitude = v.magnitude })

	set("top-freq", func() { cfg.Display.TopFreq = v.topFreq })
	set("marker", func() { cfg.Display.Markers = append([]float64(nil), v.markers...) })
	set("palette", func() { cfg.Display.Palette = v.palette })
	set("decay", func() { cfg.Display.PeakDecayColumns = v.decay })
	set("headless", func() { cfg.Headless = v.headless })

	set("log-level", func() { cfg.LogLevel = v.logLevel })
	set("log-file", func() { cfg.LogFile = v.logFile })
	if v.verbose {
		cfg.LogLevel = "debug"
	}
}
