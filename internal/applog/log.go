// Package applog wires the process-wide zerolog logger from the two
// startup environment variables (LOG_LEVEL, LOG_FILE) and hands out
// component-scoped child loggers, mirroring the teacher's
// pkg/llms/registry.go Initialize() convention of a package-level Logger
// derived once at startup.
package applog

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	root     zerolog.Logger
	rootOnce sync.Once
)

// Init sets up the root logger from environment variables. Safe to call
// multiple times; only the first call takes effect.
func Init() zerolog.Logger {
	rootOnce.Do(func() {
		level := parseLevel(os.Getenv("LOG_LEVEL"))

		var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
		if path := os.Getenv("LOG_FILE"); path != "" {
			f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err == nil {
				out = io.MultiWriter(out, f)
			}
		}

		root = zerolog.New(out).Level(level).With().Timestamp().Logger()
	})
	return root
}

// For returns a child logger tagged with the given component name. It
// triggers Init lazily so packages that import applog don't need to
// sequence their own startup after main's explicit Init call.
func For(component string) zerolog.Logger {
	return Init().With().Str("component", component).Logger()
}

func parseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "":
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}
