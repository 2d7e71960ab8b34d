package device

import (
	"runtime"
	"strings"
	"sync"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sys/cpu"
)

// hostInfo describes the processor backing CPU devices.
type hostInfo struct {
	name          string
	vendor        string
	physicalCores int
	logicalCores  int
	features      []string
}

var (
	hostOnce sync.Once
	host     hostInfo
)

// detectHost probes the processor once per process.
func detectHost() hostInfo {
	hostOnce.Do(func() {
		host = hostInfo{
			name:          strings.TrimSpace(cpuid.CPU.BrandName),
			vendor:        cpuid.CPU.VendorString,
			physicalCores: cpuid.CPU.PhysicalCores,
			logicalCores:  cpuid.CPU.LogicalCores,
		}
		if host.name == "" {
			host.name = runtime.GOARCH + " processor"
		}
		if host.logicalCores <= 0 {
			host.logicalCores = runtime.NumCPU()
		}

		// Wide multiplies (BMI2 MULX, ADX) and SIMD width drive the
		// throughput of 64-bit modular multiplication.
		switch runtime.GOARCH {
		case "amd64", "386":
			add := func(ok bool, name string) {
				if ok {
					host.features = append(host.features, name)
				}
			}
			add(cpu.X86.HasAVX2, "avx2")
			add(cpu.X86.HasAVX512F && cpu.X86.HasAVX512DQ, "avx512")
			add(cpu.X86.HasBMI2, "bmi2")
			add(cpu.X86.HasADX, "adx")
		case "arm64":
			if cpu.ARM64.HasASIMD {
				host.features = append(host.features, "asimd")
			}
			if cpu.ARM64.HasSVE {
				host.features = append(host.features, "sve")
			}
		}
	})
	return host
}

// HostFingerprint identifies the processor for persisted tuning profiles.
func HostFingerprint() (model string, cores int) {
	h := detectHost()
	return h.name, h.logicalCores
}
