package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danmuck/ircbot/internal/bot"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and command table without connecting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svcCfg, err := loadServiceConfig(opts)
			if err != nil {
				return err
			}
			svc, err := bot.NewService(svcCfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			irc := svcCfg.Bot.IRC
			fmt.Fprintf(out, "Validated %s: %s@%s:%d %s (security=%s tls=%t)\n",
				opts.configPath, irc.Username, irc.Host, irc.Port, irc.Channel,
				svcCfg.Session.SecurityMode, svcCfg.Session.TLS.Enabled)
			for _, spec := range svc.Commands() {
				restricted := ""
				if spec.OwnerOnly {
					restricted = " (owner only)"
				}
				fmt.Fprintf(out, "  %-12s %-14s %s%s\n", spec.Name, spec.Method, spec.Help, restricted)
			}
			return nil
		},
	}
}
