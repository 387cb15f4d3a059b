package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tierq/internal/logging"
	"tierq/internal/sched"
)

var (
	flagConfig    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	cfg    sched.Config
	logger *log.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tiersched",
		Short: "Three-tier feedback scheduler simulator",
		Long:  "tiersched runs thread workloads on a simulated single-CPU kernel with an L1/L2/L3 ready queue and aging.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = sched.Load(flagConfig)
			if err != nil {
				return err
			}
			// flags win over the config file when set explicitly
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = flagLogLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.LogFormat = flagLogFormat
			}
			if flagDebug {
				cfg.LogLevel = "debug"
			}
			logger = logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "config.yml", "Scheduler config file (YAML)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(newRunCmd())
	return root
}
