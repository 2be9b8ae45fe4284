// Package buildinfo contains build information.
//
// Build information should be set during compilation by passing
// -ldflags "-X github.com/loomtk/loom/pkg/buildinfo.VersionSuffix=value" to
// "go build".
package buildinfo

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/loomtk/loom/pkg/prog"
)

// Version identifies the version of loomdemo. On development commits, it
// identifies the next release.
const Version = "0.1.0"

// VersionSuffix is appended to Version to build the full version string. It
// can be overridden when building.
var VersionSuffix = "-dev.unknown"

// Program is the buildinfo subprogram, handling the -version and -buildinfo
// flags.
type Program struct{}

func (Program) Run(fds [3]*os.File, f *prog.Flags, _ []string) error {
	switch {
	case f.BuildInfo:
		info := struct {
			Version   string `json:"version"`
			GoVersion string `json:"goversion"`
		}{Version + VersionSuffix, runtime.Version()}
		if f.JSON {
			b, err := json.Marshal(info)
			if err != nil {
				return err
			}
			fmt.Fprintln(fds[1], string(b))
		} else {
			fmt.Fprintln(fds[1], "Version:", info.Version)
			fmt.Fprintln(fds[1], "Go version:", info.GoVersion)
		}
	case f.Version:
		fmt.Fprintln(fds[1], Version+VersionSuffix)
	default:
		return prog.ErrNotSuitable
	}
	return nil
}
