package config

import (
	"sort"
	"strconv"

	"github.com/danmuck/ircbot/internal/commands"
	"github.com/danmuck/ircbot/internal/tools"
)

// CommandSpecs lists the configured commands sorted by name.
func (c BotConfig) CommandSpecs() []commands.Spec {
	out := make([]commands.Spec, 0, len(c.Commands))
	for name, cmd := range c.Commands {
		out = append(out, commands.Spec{
			Name:      name,
			Method:    cmd.Method,
			Help:      cmd.Help,
			OwnerOnly: cmd.OwnerOnly,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Runner returns the command runner selected by exec.mode.
func (c BotConfig) Runner() tools.CommandRunner {
	if c.Exec.Mode != ExecModeSSH {
		return tools.ExecRunner{}
	}
	ssh := c.Exec.SSH
	return tools.SSHRunner{
		Host:                        ssh.Host,
		Port:                        strconv.Itoa(ssh.Port),
		User:                        ssh.User,
		KeyPath:                     ssh.KeyPath,
		KnownHostsPath:              ssh.KnownHostsPath,
		InsecureSkipHostKeyChecking: ssh.InsecureSkipHostKeyCheck,
		Timeout:                     ssh.TimeoutDuration(),
	}
}
