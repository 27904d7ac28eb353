package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns what it wrote to
// stdout and stderr. Settings and flags are reset first.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
	cfgFile = ""
	resetFlags(RootCmd)

	var stdout, stderr bytes.Buffer
	RootCmd.SetOut(&stdout)
	RootCmd.SetErr(&stderr)
	RootCmd.SetArgs(args)

	err := RootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// resetFlags puts every changed flag of c, and its subcommands, back to its default
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if s, ok := f.Value.(pflag.SliceValue); ok {
			_ = s.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// writeTarget writes a target with three residues in chain A and two in chain C
func writeTarget(t *testing.T, dir string) string {
	t.Helper()

	var b strings.Builder
	for i := 1; i <= 3; i++ {
		b.WriteString(atomLine(i, "GLY", "A", i))
	}
	for i := 1; i <= 2; i++ {
		b.WriteString(atomLine(3+i, "LYS", "C", i))
	}

	path := filepath.Join(dir, "target.pdb")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func atomLine(serial int, resName, chain string, resSeq int) string {
	return fmt.Sprintf(
		"ATOM  %5d  CA  %3s %1s%4d    %8.3f%8.3f%8.3f%6.2f%6.2f           C\n",
		serial, resName, chain, resSeq, 0.0, 0.0, 0.0, 1.0, 0.0,
	)
}
