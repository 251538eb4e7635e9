package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component derives a child of the global logger tagged with name. Call it
// after logging is configured so the child picks up the process settings.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}
