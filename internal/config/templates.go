package config

import (
	"fmt"
	"os"
)

// Template returns a starter configuration in format ("toml", "yaml" or
// "json").
func Template(format string) (string, error) {
	switch format {
	case "toml":
		return tomlTemplate, nil
	case "yaml":
		return yamlTemplate, nil
	case "json":
		return jsonTemplate, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// WriteTemplate writes the template matching path's extension.
func WriteTemplate(path string, overwrite bool) error {
	template, err := Template(Format(path))
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const jsonTemplate = `{
  "irc": {
    "host": "irc.example.net",
    "port": 6697,
    "channel": "#ops",
    "username": "opsbot",
    "password": "change-me"
  },
  "master": "admin",
  "character_blacklist": ["*", "_", "` + "`" + `"],
  "commands": {
    "hello": {"method": "sayHello", "help": "Says hello back."},
    "help": {"method": "getHelp", "help": "Shows help for a command: help <command>."},
    "commands": {"method": "listCommands", "help": "Lists every command."},
    "dig": {"method": "domainLookup", "help": "Resolves a domain: dig <domain>."},
    "hostname": {"method": "getHostname", "help": "Prints the host name."},
    "disk": {"method": "diskStatus", "help": "Shows root filesystem usage."},
    "uptime": {"method": "getUptime", "help": "Shows system uptime."},
    "reboot": {"method": "doReboot", "help": "Schedules a reboot in 2 minutes.", "owner_only": true},
    "cancel": {"method": "undoReboot", "help": "Cancels a scheduled reboot.", "owner_only": true},
    "kill": {"method": "killClient", "help": "Shuts the bot down.", "owner_only": true}
  }
}
`

const tomlTemplate = `master = "admin"
character_blacklist = ["*", "_", "` + "`" + `"]
auth_retry_limit = 0

[irc]
host = "irc.example.net"
port = 6697
channel = "#ops"
username = "opsbot"
password = "change-me"

[exec]
mode = "local"

[commands.hello]
method = "sayHello"
help = "Says hello back."

[commands.help]
method = "getHelp"
help = "Shows help for a command: help <command>."

[commands.commands]
method = "listCommands"
help = "Lists every command."

[commands.dig]
method = "domainLookup"
help = "Resolves a domain: dig <domain>."

[commands.hostname]
method = "getHostname"
help = "Prints the host name."

[commands.disk]
method = "diskStatus"
help = "Shows root filesystem usage."

[commands.uptime]
method = "getUptime"
help = "Shows system uptime."

[commands.reboot]
method = "doReboot"
help = "Schedules a reboot in 2 minutes."
owner_only = true

[commands.cancel]
method = "undoReboot"
help = "Cancels a scheduled reboot."
owner_only = true

[commands.kill]
method = "killClient"
help = "Shuts the bot down."
owner_only = true
`

const yamlTemplate = `irc:
  host: irc.example.net
  port: 6697
  channel: "#ops"
  username: opsbot
  password: change-me
master: admin
character_blacklist: ["*", "_", "` + "`" + `"]
auth_retry_limit: 0
exec:
  mode: local
commands:
  hello: {method: sayHello, help: Says hello back.}
  help: {method: getHelp, help: "Shows help for a command: help <command>."}
  commands: {method: listCommands, help: Lists every command.}
  dig: {method: domainLookup, help: "Resolves a domain: dig <domain>."}
  hostname: {method: getHostname, help: Prints the host name.}
  disk: {method: diskStatus, help: Shows root filesystem usage.}
  uptime: {method: getUptime, help: Shows system uptime.}
  reboot: {method: doReboot, help: Schedules a reboot in 2 minutes., owner_only: true}
  cancel: {method: undoReboot, help: Cancels a scheduled reboot., owner_only: true}
  kill: {method: killClient, help: Shuts the bot down., owner_only: true}
`
