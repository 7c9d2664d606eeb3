package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// set at build time through `-ldflags "-X main.version=..."`.
var (
	version = "dev"
	commit  = "dev"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the version of this exporter",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "htmlcoin-exporter %s (%s)\n",
			version, commit)
	},
}
