package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gcpause",
	Short: "gcpause measures garbage collection pauses of Go programs",
}

func init() {
	rootCmd.AddCommand(versionCmd)
	initRunCmdFlags()
	rootCmd.AddCommand(runCmd)
	initExtTestAppCmdFlags()
	rootCmd.AddCommand(extTestAppCmd)
	initConfigCmdFlags()
	rootCmd.AddCommand(configCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
