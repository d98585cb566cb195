package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "sweatshop",
	Short: "Orchestrator for autonomous development workers",
	Long: `Sweatshop dispatches a backlog of directives to a pool of autonomous
coding workers (conscripts). Each conscript works on its own branch in an
isolated git worktree, leases a resource camp while it runs, and hands its
work back for human QA before it is merged.

Directives can depend on each other; the dispatcher schedules them in
dependency order and never starts a directive before everything it depends
on has merged.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if flagVerbose {
			level = zerolog.DebugLevel
		}
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).
			With().Timestamp().Logger()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a config file (overrides discovery)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(campsCmd)
	rootCmd.AddCommand(versionCmd)
}
