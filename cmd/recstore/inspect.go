package main

import (
	"context"
	"fmt"
	"path"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/recstore/internal/storage"
	"github.com/newthinker/recstore/internal/storage/single"
)

var (
	inspectLimit   int
	inspectVersion int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <recording_dir> <storage_file>",
	Short: "Print the version and items of a storage file",
	Args:  cobra.ExactArgs(2),
	RunE:  runInspect,
}

var purgeCmd = &cobra.Command{
	Use:   "purge <recording_dir> <storage_file>",
	Short: "Delete a storage file so the plugin starts empty",
	Args:  cobra.ExactArgs(2),
	RunE:  runPurge,
}

func init() {
	inspectCmd.Flags().IntVarP(&inspectLimit, "limit", "n", 20, "maximum number of items to print (0 for all)")
	inspectCmd.Flags().IntVar(&inspectVersion, "expect-version", 0, "report whether a reader of this version would load the file")
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(purgeCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	a, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	recDir, fileName := args[0], storageFilename(args[1])
	payload, err := a.Envelope(recDir, inspectVersion).Inspect(context.Background(), path.Join(single.FolderName, fileName))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if payload.Outcome == storage.Absent {
		fmt.Fprintf(out, "%s: no stored data\n", fileName)
		return nil
	}
	if payload.Found != nil {
		fmt.Fprintf(out, "%s: version %d, %d items\n", fileName, *payload.Found, len(payload.Data))
	} else {
		fmt.Fprintf(out, "%s: no version, %d items\n", fileName, len(payload.Data))
	}
	if cmd.Flags().Changed("expect-version") {
		fmt.Fprintf(out, "  version %d would see: %s\n", inspectVersion, payload.Outcome)
	}
	for i, tup := range payload.Data {
		if inspectLimit > 0 && i >= inspectLimit {
			fmt.Fprintf(out, "  ... %d more\n", len(payload.Data)-i)
			break
		}
		fmt.Fprintf(out, "  %4d %v\n", i, []any(tup))
	}
	log.Debug("inspected storage file", zap.String("rec_dir", recDir), zap.String("file", fileName))
	return nil
}

func runPurge(cmd *cobra.Command, args []string) error {
	a, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	recDir, fileName := args[0], storageFilename(args[1])
	removed, err := a.Envelope(recDir, 0).Remove(context.Background(), path.Join(single.FolderName, fileName))
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: nothing to delete\n", fileName)
		return nil
	}
	log.Info("storage file deleted", zap.String("rec_dir", recDir), zap.String("file", fileName))
	fmt.Fprintf(cmd.OutOrStdout(), "%s: deleted\n", fileName)
	return nil
}
