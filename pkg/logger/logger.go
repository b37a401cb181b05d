package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration.
type Config struct {
	Level   string // debug, info, warn, error
	Pretty  bool   // Enable pretty console output
	Service string // tags every line with service=<name>; defaults to "openalpha"
}

// defaultService is the service tag applied when Config.Service is unset, so
// every job's logs are identifiable once multiple pipelines share an
// aggregator.
const defaultService = "openalpha"

// New creates a new structured logger, every line carrying a service tag on
// top of the teacher's timestamp+caller baseline.
func New(cfg Config) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stdout
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	}

	service := cfg.Service
	if service == "" {
		service = defaultService
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Str("service", service).
		Logger()
}

// SetGlobalLogger sets the package-level logger used by zerolog's global
// log.* helpers.
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}
