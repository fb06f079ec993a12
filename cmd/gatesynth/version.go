package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the gatesynth release
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of gatesynth",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gatesynth version %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
