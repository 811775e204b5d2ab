// SPDX-License-Identifier: MIT
//
// Package build exposes the build metadata embedded into the spectroscope
// binary at link time:
//
//	go build -ldflags "-X spectroscope/pkg/build.buildName=spectroscope \
//	  -X spectroscope/pkg/build.buildVersion=0.3.0 ..."
//
// A binary built without any of the flags (go run, go test) is treated as
// a development build and reports development defaults. A binary built with
// only some of them is rejected by Initialize.
package build

import (
	"fmt"
	"strings"
)

const (
	devName        = "spectroscope"
	devDescription = "Real-time stereo audio spectrogram (waterfall) visualizer"
	devValue       = "dev"
)

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String formats the version line shown by --version.
func (f *ldFlags) String() string {
	if f.Commit == devValue && f.Time == devValue {
		return f.Version
	}
	return fmt.Sprintf("%s (commit %s, built %s)", f.Version, f.Commit, f.Time)
}

// Package-level variables for build information. These are populated by
// -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        devName,
		Description: devDescription,
		Time:        devValue,
		Commit:      devValue,
		Version:     devValue,
	}
)

// Initialize validates and copies build information from the ldflags
// variables into the build flags. A development build (no flags at all)
// keeps the defaults. Returns an error naming the first missing flag when
// the set is only partially provided.
func Initialize() error {
	provided := []string{buildName, buildTime, buildCommit, buildVersion}
	if strings.Join(provided, "") == "" {
		return nil
	}

	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
