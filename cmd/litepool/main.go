package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jirevwe/litepool"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd := &cobra.Command{
		Use:   "litepool",
		Short: "A static file server backed by a fixed-size worker pool",
	}
	rootCmd.AddCommand(newServeCommand())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCommand() *cobra.Command {
	var configFile string
	flagCfg := litepool.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve files from the static directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := litepool.DefaultConfig()
			if configFile != "" {
				loaded, err := litepool.LoadConfig(configFile)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			// flags given on the command line win over the file
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Addr = flagCfg.Addr
			}
			if flags.Changed("workers") {
				cfg.Workers = flagCfg.Workers
			}
			if flags.Changed("static-dir") {
				cfg.StaticDir = flagCfg.StaticDir
			}
			if flags.Changed("sleep-delay") {
				cfg.SleepDelay = flagCfg.SleepDelay
			}
			if flags.Changed("log-level") {
				cfg.Log.Level = flagCfg.Log.Level
			}
			if flags.Changed("log-file") {
				cfg.Log.File = flagCfg.Log.File
			}
			if flags.Changed("access-log") {
				cfg.AccessLog.DBPath = flagCfg.AccessLog.DBPath
			}
			if flags.Changed("stats-interval") {
				cfg.StatsInterval = flagCfg.StatsInterval
			}

			return litepool.Run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&flagCfg.Addr, "addr", flagCfg.Addr, "Address to listen on")
	cmd.Flags().IntVar(&flagCfg.Workers, "workers", flagCfg.Workers, "Number of workers serving connections")
	cmd.Flags().StringVar(&flagCfg.StaticDir, "static-dir", flagCfg.StaticDir, "Directory to serve files from")
	cmd.Flags().DurationVar(&flagCfg.SleepDelay, "sleep-delay", flagCfg.SleepDelay, "How long GET /sleep holds a worker")
	cmd.Flags().StringVar(&flagCfg.Log.Level, "log-level", flagCfg.Log.Level, "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&flagCfg.Log.File, "log-file", "", "Write logs to this file, rotated")
	cmd.Flags().StringVar(&flagCfg.AccessLog.DBPath, "access-log", "", "SQLite database to record requests in")
	cmd.Flags().DurationVar(&flagCfg.StatsInterval, "stats-interval", 0, "Log server stats at this interval")

	return cmd
}
