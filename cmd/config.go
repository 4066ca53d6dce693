package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/maratig/gcpause/app"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration of the run command as yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags())
		if err != nil {
			return err
		}

		return printConfig(cmd, cfg)
	},
}

func initConfigCmdFlags() {
	addConfigFlags(configCmd.Flags())
}

func printConfig(cmd *cobra.Command, cfg app.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config; %w", err)
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}
