package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <recording_dir> <recording_uuid>",
	Short: "Load the offline data of a recording and persist it again",
	Long: `Opens every storage of a recording the way the player does, then closes
the recording so each storage is saved once. A recording without
calibrations gets its default calibration written.`,
	Args: cobra.ExactArgs(2),
	RunE: runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	a, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()
	rec, err := a.OpenRecording(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "reference locations: %d\n", rec.References.Len())
	fmt.Fprintf(out, "calibrations: %d\n", rec.Calibrations.Len())

	return rec.Close(ctx)
}
