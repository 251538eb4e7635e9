package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danmuck/ircbot/internal/bot"
	"github.com/danmuck/ircbot/internal/config"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect and serve commands until interrupted",
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
			return svc.Run()
		},
	}
}

// loadServiceConfig reads the bot file and applies the runtime overlay on
// top of the service defaults.
func loadServiceConfig(opts *rootOptions) (bot.ServiceConfig, error) {
	botCfg, err := config.Load(opts.configPath)
	if err != nil {
		return bot.ServiceConfig{}, err
	}
	svcCfg := bot.DefaultServiceConfig()
	if opts.runtimePath != "" {
		svcCfg, err = loadRuntimeConfig(opts.runtimePath, svcCfg)
		if err != nil {
			return bot.ServiceConfig{}, err
		}
	}
	svcCfg.Bot = botCfg
	log.Debug().Msgf("ircbot.loadServiceConfig config=%s runtime=%q", opts.configPath, opts.runtimePath)
	return svcCfg, nil
}
