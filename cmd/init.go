package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cytokineking/germinal/config"
	"github.com/cytokineking/germinal/internal/device"
	"github.com/cytokineking/germinal/internal/germinal"
	"github.com/cytokineking/germinal/internal/layout"
	"github.com/cytokineking/germinal/internal/structure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Prepare a design run: its dirs, starting complex, CDRs and hotspots",
	Long: `Prepare a design run: its dirs, starting complex, CDRs and hotspots

"germinal init" sets up everything later design stages start from. It:

1. Creates the run's dirs under <project_dir>/<results_dir>/<experiment_name>/<run_config>
   and saves the settings it was given to the run's config dir
2. Builds the starting complex of the binder template and the target, unless it's
   already in "pdb_dir"
3. Finds the CDR positions in the binder from the CDR and framework lengths
4. Concatenates multi-chain targets into chain A, separating chains by a 50
   residue gap, and shifts the hotspots into the concatenated numbering
5. Saves the enriched settings over the first ones

With "--resume", the run and target settings saved in the run's config dir are
prepared again instead of the ones given. Hotspots already shifted into the
concatenated numbering aren't shifted again.

A GPU is required unless "--allow-cpu" is set.`,
	Example: `  germinal init --config germinal.yaml
  germinal init --target-chain A,B --hotspots "B23,A10-20" --allow-cpu
  germinal init --resume`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"creator":      "structure_creator",
			"target-pdb":   "target.target_pdb_path",
			"target-chain": "target.target_chain",
			"hotspots":     "target.target_hotspots",
		})
	},
	RunE: initExec,
}

func init() {
	initCmd.Flags().Bool("allow-cpu", false, "continue without a GPU")
	initCmd.Flags().Bool("resume", false, "prepare the settings saved in the run's config dir")
	initCmd.Flags().String("creator", "native", `how to build starting complexes: "native" or the path to an executable`)
	initCmd.Flags().String("target-pdb", "", "path to the target's PDB file")
	initCmd.Flags().StringSlice("target-chain", nil, "target chains, ex: A,B")
	initCmd.Flags().String("hotspots", "", `target hotspots, ex: "B23,A10-20"`)

	RootCmd.AddCommand(initCmd)
}

// initExec prepares the run described by the settings.
func initExec(cmd *cobra.Command, args []string) error {
	conf, err := config.New(viper.GetViper())
	if err != nil {
		return err
	}

	allowCPU, err := cmd.Flags().GetBool("allow-cpu")
	if err != nil {
		return err
	}
	if err := device.Check(allowCPU); err != nil {
		return err
	}

	run, target, err := germinal.NewParameters(conf)
	if err != nil {
		return err
	}

	l, err := layout.Create(layout.Path(run.ProjectDir, run.ResultsDir, run.ExperimentName, run.RunConfig))
	if err != nil {
		return err
	}
	resume, err := cmd.Flags().GetBool("resume")
	if err != nil {
		return err
	}
	if resume {
		if run, target, err = load(l); err != nil {
			return err
		}
		klog.InfoS("Resuming run", "dir", l.Root)
	} else {
		if err := l.Save(run, target); err != nil {
			return err
		}
		klog.InfoS("Created run", "dir", l.Root)
	}

	p := germinal.NewPreparer(newCreator(conf.Run.StructureCreator), structure.PDB{})
	run, target, err = p.Prepare(run, target)
	if err != nil {
		return err
	}
	if err := l.Save(run, target); err != nil {
		return err
	}

	printRun(cmd.OutOrStdout(), l, run, target)
	return nil
}

// load reads the run and target settings saved in a run's config dir.
func load(l *layout.Layout) (germinal.RunParameters, germinal.TargetParameters, error) {
	var run germinal.RunParameters
	var target germinal.TargetParameters
	if err := l.Load(layout.RunFile, &run); err != nil {
		return run, target, fmt.Errorf("failed to resume run in %s: %w", l.Root, err)
	}
	if err := l.Load(layout.TargetFile, &target); err != nil {
		return run, target, fmt.Errorf("failed to resume run in %s: %w", l.Root, err)
	}
	return run, target, nil
}

// newCreator returns the structure creator named in settings.
func newCreator(name string) structure.Creator {
	if name == "" || name == "native" {
		return structure.PDB{}
	}
	return structure.Script{Path: name}
}

// printRun writes a summary of a prepared run.
func printRun(out io.Writer, l *layout.Layout, run germinal.RunParameters, target germinal.TargetParameters) {
	cdrs := make([]string, len(run.CDRPositions))
	for i, r := range run.CDRPositions {
		cdrs[i] = r.String()
	}

	w := tabwriter.NewWriter(out, 0, 4, 3, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", l.Root)
	fmt.Fprintf(w, "complex\t%s\n", run.StartingComplexPath)
	fmt.Fprintf(w, "binder\t%s\n", run.StartingBinderSeq)
	fmt.Fprintf(w, "cdrs\t%s\n", strings.Join(cdrs, ","))
	fmt.Fprintf(w, "target chain\t%s\n", target.TargetChains)
	fmt.Fprintf(w, "hotspots\t%s\n", target.Hotspots)
	fmt.Fprintf(w, "design models\t%v\n", run.DesignModels)
	w.Flush()
}
