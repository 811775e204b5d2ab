package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"spectroscope/cmd"
	"spectroscope/internal/app"
	"spectroscope/internal/audio"
	"spectroscope/internal/config"
	"spectroscope/internal/log"
	"spectroscope/internal/tui"
	"spectroscope/pkg/build"
)

// Exit codes for classified failures.
const (
	exitConfig            = 1
	exitDeviceUnavailable = 2
	exitCaptureFailed     = 3
)

// main is the entry point for the spectrogram.
// The program flow is divided into three phases:
//
// 1. Startup:
//   - Initialize build information
//   - Parse flags, config file and environment
//   - Initialize PortAudio unless replaying a file
//   - Execute one-off commands (device listing, picker)
//
// 2. Run:
//   - Open the capturer and build the pipeline
//   - Capture, analyze and present until quit, signal or failure
//
// 3. Shutdown:
//   - Join the producer, release the ring, close the input
//   - Terminate PortAudio
func main() {
	if err := build.Initialize(); err != nil {
		log.Fatalf("%v", err)
	}

	cfg, err := cmd.ParseArgs(os.Args[1:], os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if cfg.Command == cmd.CommandHelp {
		return
	}

	level, ok := log.ParseLevel(cfg.LogLevel)
	if !ok {
		log.Warnf("Unknown log level %q, using %s", cfg.LogLevel, level)
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		exitWith(err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.Command == cmd.CommandList || !cfg.FileInput() {
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()
	}

	switch cfg.Command {
	case cmd.CommandList:
		return audio.ListDevices(os.Stdout)
	case cmd.CommandRun:
	default:
		return fmt.Errorf("unknown command: %q", cfg.Command)
	}

	if cfg.Audio.Pick {
		if err := pickDevice(cfg); err != nil {
			return err
		}
	}

	c, err := audio.Open(cfg.Audio.InputFile, audio.ParamsFromConfig(cfg))
	if err != nil {
		return err
	}
	a, err := app.New(cfg, c)
	if err != nil {
		c.Close()
		return err
	}
	return a.Run(ctx)
}

// pickDevice asks the user for the input device and sample rate.
func pickDevice(cfg *config.Config) error {
	devices, err := audio.HostDevices()
	if err != nil {
		return err
	}
	sel, err := tui.PickDevice(devices, cfg.Audio.SampleRate)
	if err != nil {
		return err
	}
	log.Infof("Using device [%d] %s at %.0f Hz", sel.DeviceID, sel.Name, sel.SampleRate)
	cfg.Audio.InputDevice = sel.DeviceID
	cfg.Audio.SampleRate = sel.SampleRate
	return nil
}

// exitWith logs err with its classification and exits.
func exitWith(err error) {
	switch {
	case errors.Is(err, tui.ErrPickCancelled):
		log.Infof("%v", err)
		os.Exit(0)
	case errors.Is(err, audio.ErrDeviceUnavailable):
		log.FatalCodef(exitDeviceUnavailable, "device unavailable: %v", err)
	case errors.Is(err, audio.ErrCapture):
		log.FatalCodef(exitCaptureFailed, "capture failed: %v", err)
	default:
		log.FatalCodef(exitConfig, "%v", err)
	}
}
