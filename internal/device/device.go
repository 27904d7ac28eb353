// Package device checks for the compute devices design runs need. Checks are
// run by the caller before a run is prepared.
package device

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"k8s.io/klog/v2"
)

// ErrNoGPU is returned when no GPU can be found
var ErrNoGPU = errors.New("no GPU available")

// nvidiaSMI is the executable used to list GPUs
var nvidiaSMI = "nvidia-smi"

// GPUs returns the names of the GPUs listed by nvidia-smi.
func GPUs() ([]string, error) {
	path, err := exec.LookPath(nvidiaSMI)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrNoGPU, nvidiaSMI)
	}

	output, err := exec.Command(path, "-L").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute %s: %s: %v", ErrNoGPU, nvidiaSMI, string(output), err)
	}

	gpus := parseGPUs(string(output))
	if len(gpus) == 0 {
		return nil, ErrNoGPU
	}
	return gpus, nil
}

// parseGPUs reads GPU names from nvidia-smi -L output, where each line is like:
//
//	GPU 0: NVIDIA A100-SXM4-80GB (UUID: GPU-...)
func parseGPUs(output string) []string {
	var gpus []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "GPU ") {
			continue
		}

		name := line
		if i := strings.Index(line, ": "); i >= 0 {
			name = line[i+2:]
		}
		if i := strings.LastIndex(name, " (UUID"); i >= 0 {
			name = name[:i]
		}
		gpus = append(gpus, name)
	}
	return gpus
}

// Check returns an error if there's no GPU, unless allowCPU is set in which
// case it only warns.
func Check(allowCPU bool) error {
	gpus, err := GPUs()
	if err == nil {
		klog.InfoS("Found GPUs", "count", len(gpus), "devices", gpus)
		return nil
	}

	if allowCPU {
		klog.Warningf("%v, continuing on CPU", err)
		return nil
	}
	return err
}
