// Command cpu_features prints the host description helix logs at startup,
// as JSON, for attaching to bug reports.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/goccy/go-json"

	"github.com/samcharles93/helix/internal/device"
	"github.com/samcharles93/helix/internal/version"
)

type output struct {
	Helix     string      `json:"helix"`
	GoVersion string      `json:"go_version"`
	GoOS      string      `json:"go_os"`
	Devices   string      `json:"devices"`
	CPU       device.Info `json:"cpu"`
}

func main() {
	out := output{
		Helix:     version.String(),
		GoVersion: runtime.Version(),
		GoOS:      runtime.GOOS,
		Devices:   device.Available(),
		CPU:       device.Describe(),
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	_, _ = os.Stdout.Write(append(b, '\n'))
}
