package backend

import (
	"os"
	"runtime"
)

// Provider identifies the execution provider a model runs on.
type Provider string

const (
	ProviderCPU      Provider = "cpu"
	ProviderCUDA     Provider = "cuda"
	ProviderROCm     Provider = "rocm"
	ProviderDirectML Provider = "directml"
)

// DetectProvider picks the preferred execution provider for this host:
// DirectML on Windows, CUDA/ROCm on Linux when the driver is present,
// otherwise CPU.
func DetectProvider() Provider {
	return detectProvider(runtime.GOOS, pathExists)
}

// detectProvider is the testable core of DetectProvider.
func detectProvider(goos string, exists func(string) bool) Provider {
	switch goos {
	case "windows":
		return ProviderDirectML
	case "linux":
		if exists("/proc/driver/nvidia/version") {
			return ProviderCUDA
		}
		if exists("/dev/kfd") {
			return ProviderROCm
		}
	}
	return ProviderCPU
}

func pathExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
