package cmd

import (
	"fmt"

	"github.com/cytokineking/germinal/config"
	"github.com/cytokineking/germinal/internal/hotspot"
	"github.com/cytokineking/germinal/internal/structure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// remapCmd represents the remap command
var remapCmd = &cobra.Command{
	Use:   "remap [hotspots]",
	Short: "Shift hotspots into the numbering of a concatenated target",
	Long: `Shift hotspots into the numbering of a concatenated target

Chains of a multi-chain target are joined, in the order given, into a single
chain A with a 50 residue gap after each. Hotspots like "B23" or "A10-20" are
rewritten for that chain, ex: "A173" and "A10-A20" when chain A has 100 residues.
Hotspots that can't be read are kept as they are.

The hotspots default to "target.target_hotspots" in the settings.`,
	Example: `  germinal remap --chains A,B --pdb target.pdb "B23,A10-20"`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"chains": "target.target_chain",
			"pdb":    "target.target_pdb_path",
		})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.New(viper.GetViper())
		if err != nil {
			return err
		}

		hotspots := conf.Target.Hotspots
		if len(args) > 0 {
			hotspots = args[0]
		}

		order := hotspot.Chains(conf.Target.TargetChain).Normalize()
		if !order.Multi() {
			fmt.Fprintln(cmd.OutOrStdout(), hotspots)
			return nil
		}

		seqs, err := structure.PDB{}.Sequences(conf.Target.StructurePath)
		if err != nil {
			return err
		}
		offsets, err := hotspot.NewOffsets(order, seqs)
		if err != nil {
			return err
		}

		result := hotspot.Remap(hotspots, order, offsets)
		for _, token := range result.Unchanged {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: kept hotspot %q as is\n", token)
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.Hotspots)
		return nil
	},
}

func init() {
	remapCmd.Flags().StringSlice("chains", nil, "target chains in the order they're joined, ex: A,B")
	remapCmd.Flags().String("pdb", "", "path to the target's PDB file")

	RootCmd.AddCommand(remapCmd)
}
