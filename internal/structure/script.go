package structure

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/cytokineking/germinal/internal/hotspot"
)

// Script creates starting complexes by running an external executable, eg a
// python helper, as:
//
//	<Path> <out> <binder template> <target> <binder chain> <target chains>
//
// where target chains are comma separated.
type Script struct {
	// Path to the executable
	Path string
}

// Create runs the script and checks that it wrote the output file.
func (s Script) Create(out, binderTemplate, target, binderChain string, targetChains hotspot.Chains) error {
	cmd := exec.Command(
		s.Path,
		out,
		binderTemplate,
		target,
		binderChain,
		targetChains.String(),
	)

	// execute the script and wait on it to finish
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to execute %s: %s: %w", s.Path, string(output), err)
	}

	if _, err := os.Stat(out); err != nil {
		return fmt.Errorf("%s exited without writing %s: %w", s.Path, out, err)
	}

	return nil
}
