package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const EnvLogLevel = "LUMIWAVE_LOG_LEVEL"

// Configure installs a console logger on the global zerolog logger and
// returns a child tagged with component.
func Configure(component string) zerolog.Logger {
	return configure(os.Stdout, component, zerolog.InfoLevel)
}

// ConfigureTests logs to stderr at debug level unless overridden.
func ConfigureTests(component string) zerolog.Logger {
	return configure(os.Stderr, component, zerolog.DebugLevel)
}

func configure(out io.Writer, component string, def zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, ok := ParseLevel(os.Getenv(EnvLogLevel))
	if !ok {
		lvl = def
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen})
	return log.With().Str("component", component).Logger()
}

func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	}
	return zerolog.InfoLevel, false
}
