// Package logger wraps zerolog with the sink/level conventions used
// throughout tradeforge: a single shared logger facade imported by
// every package in the module.
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
	log zerolog.Logger
)

func init() {
	Configure(Config{Level: "info", Pretty: true, Output: os.Stdout})
}

// Config controls the global logger sink.
type Config struct {
	Level  string // trace, debug, info, warn, error
	Pretty bool   // human-readable console writer vs. raw JSON
	Output io.Writer
}

// Configure (re)initializes the global logger. Call once at startup;
// safe to call again from tests that need a captured writer.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var w io.Writer = cfg.Output
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.RFC3339}
	}

	log = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// L returns the global logger for call sites that want the full zerolog API
// (e.g. structured fields via .With()).
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &log
}

func Debugf(format string, args ...interface{}) { L().Debug().Msgf(format, args...) }
func Infof(format string, args ...interface{})  { L().Info().Msgf(format, args...) }
func Warnf(format string, args ...interface{})  { L().Warn().Msgf(format, args...) }
func Errorf(format string, args ...interface{}) { L().Error().Msgf(format, args...) }

// Component returns a child logger tagged with a "component" field, used
// at the top of each package's constructor.
func Component(name string) zerolog.Logger {
	return L().With().Str("component", name).Logger()
}
