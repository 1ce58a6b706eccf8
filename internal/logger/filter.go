package logger

import (
	"strings"

	"github.com/rs/zerolog"
)

// DefaultNoise lists messages that are expected while developing against
// the local frontend and carry no signal.
var DefaultNoise = []string{
	"Text content did not match",
	"Expected server HTML",
	"Hydration failed",
	"server rendered text didn't match",
	"fdprocessedid",
}

type noiseFilter struct {
	patterns []string
}

// DevFilter returns a hook that drops warn and error events whose message
// contains any of the given patterns. Never install it outside development.
func DevFilter(patterns ...string) zerolog.Hook {
	return noiseFilter{patterns: patterns}
}

func (f noiseFilter) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if level < zerolog.WarnLevel || level > zerolog.ErrorLevel {
		return
	}
	for _, p := range f.patterns {
		if strings.Contains(msg, p) {
			e.Discard()
			return
		}
	}
}
