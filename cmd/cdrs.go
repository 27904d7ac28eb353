package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/cytokineking/germinal/config"
	"github.com/cytokineking/germinal/internal/cdr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cdrsCmd represents the cdrs command
var cdrsCmd = &cobra.Command{
	Use:   "cdrs",
	Short: "Find the CDR positions in a binder from CDR and framework lengths",
	Long: `Find the CDR positions in a binder from CDR and framework lengths

A binder is read as framework, CDR, framework, CDR, ..., framework, so there's
one more framework length than CDR lengths. Positions are 1-based and inclusive.`,
	Example: `  germinal cdrs --cdr 5,7 --fw 10,15,8`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"cdr": "cdr_lengths",
			"fw":  "fw_lengths",
		})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.New(viper.GetViper())
		if err != nil {
			return err
		}

		ranges, err := cdr.Positions(conf.Run.CDRLengths, conf.Run.FWLengths)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 3, ' ', 0)
		fmt.Fprintf(w, "cdr\tstart\tend\tlength\n")
		for i, r := range ranges {
			fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", i+1, r.Start, r.End, r.Len())
		}
		if err := w.Flush(); err != nil {
			return err
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "\nbinder length: %d\n", cdr.Total(conf.Run.CDRLengths, conf.Run.FWLengths))
		return err
	},
}

func init() {
	cdrsCmd.Flags().IntSlice("cdr", nil, "CDR lengths, ex: 5,7")
	cdrsCmd.Flags().IntSlice("fw", nil, "framework lengths, ex: 10,15,8")

	RootCmd.AddCommand(cdrsCmd)
}
