// Package app wires configuration, engine, benchmarks, calibration and the
// HTTP server into the nttbench command.
package app

import (
	"fmt"
	"io"
	"runtime"
	"slices"

	"github.com/agbru/nttgpu/internal/device"
)

// Build-time variables set via -ldflags, e.g.
//
//	go build -ldflags="-X github.com/agbru/nttgpu/internal/app.Version=v0.3.0 -X github.com/agbru/nttgpu/internal/app.Commit=abc123"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionFlags = []string{"--version", "-version", "-V"}

// HasVersionFlag reports whether args contain a version flag anywhere, so
// that "nttbench -server -version" prints the version.
func HasVersionFlag(args []string) bool {
	return slices.ContainsFunc(args, func(a string) bool { return slices.Contains(versionFlags, a) })
}

// VersionData is the version information of the binary and its host.
type VersionData struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPU       string `json:"cpu"`
	Cores     int    `json:"cores"`
}

// GetVersionInfo returns the current version information.
func GetVersionInfo() VersionData {
	model, cores := device.HostFingerprint()
	return VersionData{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		CPU:       model,
		Cores:     cores,
	}
}

// PrintVersion writes the version information to out.
func PrintVersion(out io.Writer) {
	v := GetVersionInfo()
	fmt.Fprintf(out, "nttbench %s\n", v.Version)
	fmt.Fprintf(out, "  Commit:     %s\n", v.Commit)
	fmt.Fprintf(out, "  Built:      %s\n", v.BuildDate)
	fmt.Fprintf(out, "  Go version: %s\n", v.GoVersion)
	fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", v.OS, v.Arch)
	fmt.Fprintf(out, "  CPU:        %s (%d logical cores)\n", v.CPU, v.Cores)
}
