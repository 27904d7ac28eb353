// Package cmd is for command line interactions with the germinal application
package cmd

import (
	"flag"
	"os"

	"github.com/cytokineking/germinal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"
)

var cfgFile string

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use: "germinal",
	Short: `Prepare antibody and nanobody design runs against a protein target.
Build the starting complex, locate the CDRs and remap target hotspots`,
	Version:      "0.1.0",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.Read(viper.GetViper(), cfgFile)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		klog.ErrorS(err, "germinal failed")
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}

func init() {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	RootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	RootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./"+config.DefaultFile+")")
}

// bindFlags binds a command's flags to their settings keys. It's done when the
// command runs, rather than in init, because commands share keys.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for name, key := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}
