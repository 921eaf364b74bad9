// Package device resolves the execution device requested on the command
// line and describes the host it runs on.
package device

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

const (
	CPU  = "cpu"
	CUDA = "cuda"
	Auto = "auto"
)

var ErrUnavailable = errors.New("device not available in this build")

// Normalize lower-cases and validates a device name; empty means Auto.
func Normalize(name string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(name))
	if d == "" {
		return Auto, nil
	}
	switch d {
	case CPU, CUDA, Auto:
		return d, nil
	default:
		return "", fmt.Errorf("unknown device %q (expected auto, cpu, or cuda)", name)
	}
}

// Resolve maps a requested device onto one this build can run on.
func Resolve(name string) (string, error) {
	d, err := Normalize(name)
	if err != nil {
		return "", err
	}
	switch d {
	case Auto, CPU:
		return CPU, nil
	default:
		return "", fmt.Errorf("%s: %w", d, ErrUnavailable)
	}
}

// Available returns a comma-separated list of usable devices.
func Available() string {
	return CPU
}

// Info describes the host CPU.
type Info struct {
	Brand         string   `json:"brand"`
	Vendor        string   `json:"vendor"`
	PhysicalCores int      `json:"physical_cores"`
	LogicalCores  int      `json:"logical_cores"`
	GoArch        string   `json:"go_arch"`
	Features      []string `json:"features"`
}

var reportedFeatures = []struct {
	name string
	id   cpuid.FeatureID
}{
	{"SSE4.2", cpuid.SSE42},
	{"AVX", cpuid.AVX},
	{"AVX2", cpuid.AVX2},
	{"FMA3", cpuid.FMA3},
	{"AVX512F", cpuid.AVX512F},
	{"AVX512DQ", cpuid.AVX512DQ},
	{"AVX512BW", cpuid.AVX512BW},
	{"AVXVNNI", cpuid.AVXVNNI},
	{"ASIMD", cpuid.ASIMD},
	{"SVE", cpuid.SVE},
}

// Describe reports what cpuid knows about the host.
func Describe() Info {
	info := Info{
		Brand:         cpuid.CPU.BrandName,
		Vendor:        cpuid.CPU.VendorString,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		GoArch:        runtime.GOARCH,
	}
	if info.LogicalCores == 0 {
		info.LogicalCores = runtime.NumCPU()
	}
	for _, f := range reportedFeatures {
		if cpuid.CPU.Supports(f.id) {
			info.Features = append(info.Features, f.name)
		}
	}
	return info
}

// LogArgs flattens Info into slog-style key/value pairs.
func (i Info) LogArgs() []any {
	return []any{
		"cpu", i.Brand,
		"cores", i.PhysicalCores,
		"threads", i.LogicalCores,
		"arch", i.GoArch,
		"features", strings.Join(i.Features, ","),
	}
}
