// Package cpuspec recommends interpreter thread counts for the local CPU.
package cpuspec

import (
	"regexp"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// CPUSpec contains information about CPU specifications
type CPUSpec struct {
	BrandName        string
	PerformanceCores int
}

// GetCPUSpec returns CPU specifications including the number of performance cores
func GetCPUSpec() CPUSpec {
	brandName := cpuid.CPU.BrandName

	return CPUSpec{
		BrandName:        brandName,
		PerformanceCores: determinePerformanceCores(brandName),
	}
}

// GetOptimalThreadCount returns the recommended number of threads for inference.
// On hybrid architectures only performance cores are counted, as scheduling
// interpreter threads onto efficiency cores slows the whole invocation down.
func (c CPUSpec) GetOptimalThreadCount() int {
	// Actual available CPU count matters in VMs and containers
	availableCPUs := runtime.NumCPU()

	if c.PerformanceCores > 0 {
		return min(c.PerformanceCores, availableCPUs)
	}

	return cpuid.CPU.LogicalCores
}

var intelHybridRegex = regexp.MustCompile(`intel.*core.*(?:i[3579]-1[2-4]\d{3}|ultra\s+[579])`)

func determinePerformanceCores(brandName string) int {
	brandName = strings.ToLower(brandName)

	// Apple Silicon exposes performance core count directly in the brand string tiers
	if strings.Contains(brandName, "apple m") {
		switch {
		case strings.Contains(brandName, "max"), strings.Contains(brandName, "ultra"):
			return 8
		case strings.Contains(brandName, "pro"):
			return 6
		default:
			return 4
		}
	}

	// Intel hybrid parts (12th gen onward, Core Ultra): assume half of the
	// logical cores are hyperthreaded P-cores. Exact per-SKU tables are not
	// worth maintaining; this errs low which is safe for inference.
	if intelHybridRegex.MatchString(brandName) {
		if cpuid.CPU.PhysicalCores > 0 {
			return max(1, cpuid.CPU.PhysicalCores/2)
		}
	}

	// Unknown or homogeneous CPU
	return 0
}
