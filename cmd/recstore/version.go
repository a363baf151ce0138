package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newthinker/recstore/internal/id"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "recstore %s\n", Version)
		fmt.Fprintf(cmd.OutOrStdout(), "  Git commit:   %s\n", GitCommit)
		fmt.Fprintf(cmd.OutOrStdout(), "  Build time:   %s\n", BuildTime)
		fmt.Fprintf(cmd.OutOrStdout(), "  ID namespace: %s\n", id.Namespace)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
