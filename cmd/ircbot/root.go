package main

import (
	"github.com/spf13/cobra"

	"github.com/danmuck/ircbot/internal/config"
	"github.com/danmuck/ircbot/internal/logging"
)

type rootOptions struct {
	configPath  string
	runtimePath string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "ircbot",
		Short: "Chat bot that runs operator commands from a channel",
		Long: `ircbot keeps a TLS connection to a line-oriented chat server, joins one
channel and answers commands addressed to it, reporting back to the owner.

Running 'ircbot' without a subcommand is equivalent to 'ircbot run'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.ConfigureRuntime()
			if opts.logLevel != "" {
				logging.SetLevel(opts.logLevel)
			}
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "bot configuration file (.json, .toml, .yaml)")
	root.PersistentFlags().StringVarP(&opts.runtimePath, "runtime", "r", "", "optional runtime overlay (TOML)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (trace|debug|info|warn|error|off)")

	runCmd := newRunCmd(opts)
	root.RunE = runCmd.RunE
	root.AddCommand(runCmd)
	root.AddCommand(newCheckCmd(opts))
	root.AddCommand(newInitCmd(opts))
	root.AddCommand(newConsoleCmd(opts))
	return root
}
