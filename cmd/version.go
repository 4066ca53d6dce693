package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version number of gcpause",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "gcpause version", version)
		},
	}
)
