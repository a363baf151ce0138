package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/recstore/internal/app"
	"github.com/newthinker/recstore/internal/config"
	"github.com/newthinker/recstore/internal/id"
	"github.com/newthinker/recstore/internal/logger"
)

var (
	cfgFile     string
	debug       bool
	metricsFile string

	// current is the app built by the running command, if any.
	current *app.App
)

var rootCmd = &cobra.Command{
	Use:   "recstore",
	Short: "recstore - versioned offline data of recordings",
	Long: `recstore manages the offline data plugins keep next to a recording:
reference locations, calibrations and other versioned item collections
stored under <recording>/offline_data.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		current = nil
		return id.VerifyNamespace()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return writeMetrics()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write storage metrics in Prometheus text format to this file on exit")
}

// writeMetrics dumps the registry of the command's app for a node exporter
// textfile collector.
func writeMetrics() error {
	if metricsFile == "" || current == nil || current.Metrics() == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(metricsFile, current.Metrics()); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// setup loads the configuration and builds the app.
func setup() (*app.App, *zap.Logger, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
	}

	log, err := logger.New(debug || cfg.Log.Development, cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}
	current = a
	return a, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
