package cmd

import (
	"github.com/cytokineking/germinal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the run, target and filter settings as later stages see them",
	Long: `Print the run, target and filter settings as later stages see them

Settings are merged from defaults, the config file, a .env file next to it and
GERMINAL_ environment variables, then split into four sections: "run", "target",
"filters_initial" and "filters_final".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(config.Process(viper.GetViper()))
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	RootCmd.AddCommand(configCmd)
}
