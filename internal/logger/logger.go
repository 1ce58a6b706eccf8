package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	std = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// New builds a JSON logger writing to w. Development builds log at debug
// level, everything else at info. Hooks run on every event.
func New(w io.Writer, env string, hooks ...zerolog.Hook) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	l := zerolog.New(w).With().Timestamp().Logger()
	if isDevelopment(env) {
		l = l.Level(zerolog.DebugLevel)
	} else {
		l = l.Level(zerolog.InfoLevel)
	}
	for _, h := range hooks {
		l = l.Hook(h)
	}
	return l
}

// Init installs the process-wide logger. The noise filter is attached
// only for development.
func Init(env string) {
	var hooks []zerolog.Hook
	if isDevelopment(env) {
		hooks = append(hooks, DevFilter(DefaultNoise...))
	}
	Set(New(os.Stdout, env, hooks...))
	Info("logger initialized", map[string]any{"env": env})
}

// Set replaces the process-wide logger.
func Set(l zerolog.Logger) {
	mu.Lock()
	std = l
	mu.Unlock()
}

// L returns the process-wide logger.
func L() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

func Debug(msg string, fields map[string]any) {
	l := L()
	l.Debug().Fields(fields).Msg(msg)
}

func Info(msg string, fields map[string]any) {
	l := L()
	l.Info().Fields(fields).Msg(msg)
}

func Warn(msg string, fields map[string]any) {
	l := L()
	l.Warn().Fields(fields).Msg(msg)
}

func Error(msg string, fields map[string]any) {
	l := L()
	l.Error().Fields(fields).Msg(msg)
}

func Fatal(msg string, fields map[string]any) {
	l := L()
	l.Fatal().Fields(fields).Msg(msg)
}

func isDevelopment(env string) bool {
	return env == "development" || env == "dev"
}
