package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newthinker/recstore/internal/id"
)

var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Generate item ids",
}

var idNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Print a random unique id",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), id.NewUniqueID())
	},
}

var idFromCmd = &cobra.Command{
	Use:   "from <string>",
	Short: "Print the deterministic id derived from a string",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), id.UniqueIDFromString(args[0]))
	},
}

func init() {
	idCmd.AddCommand(idNewCmd)
	idCmd.AddCommand(idFromCmd)
	rootCmd.AddCommand(idCmd)
}
