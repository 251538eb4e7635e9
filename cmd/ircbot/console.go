package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/danmuck/ircbot/internal/bot"
	"github.com/danmuck/ircbot/internal/config"
	"github.com/danmuck/ircbot/internal/console"
)

const historyFileName = ".ircbot_history"

func newConsoleCmd(opts *rootOptions) *cobra.Command {
	var sender string
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Evaluate commands locally without connecting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			botCfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if sender == "" {
				sender = botCfg.Master
			}

			var repl *console.Console
			reg, p, err := bot.BuildCommandStack(botCfg, nil, func() {
				if repl != nil {
					repl.Stop()
				}
			})
			if err != nil {
				return err
			}
			repl, err = console.New(console.Config{
				Parser:   p,
				Commands: reg,
				Nickname: botCfg.IRC.Username,
				Channel:  botCfg.IRC.Channel,
				Sender:   sender,
			})
			if err != nil {
				return err
			}

			editor := console.NewLineEditor(historyPath())
			return repl.Run(cmd.Context(), editor, editor.Output())
		},
	}
	cmd.Flags().StringVar(&sender, "as", "", "identity to run commands as (default: master)")
	return cmd
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFileName)
}
