package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newthinker/recstore/internal/storage"
)

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize <name>",
	Short: "Print a name converted to a safe file name",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), storageFilename(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(sanitizeCmd)
}

func storageFilename(name string) string {
	return storage.GetValidFilename(name)
}
