package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"liveedit/pkg/color"
)

type settings struct {
	level  string
	prefix string
	caller bool
}

type Option func(*settings)

// WithLevel sets the level by name (debug, info, warn, error)
func WithLevel(level string) Option {
	return func(s *settings) { s.level = level }
}

func WithPrefix(prefix string) Option {
	return func(s *settings) { s.prefix = prefix }
}

// WithCaller reports the calling file and line on every entry
func WithCaller(caller bool) Option {
	return func(s *settings) { s.caller = caller }
}

// Init initializes the default logger. verbose forces the debug level.
func Init(verbose, noColor bool, opts ...Option) error {
	s := settings{level: "warn", prefix: "LIVEEDIT"}
	for _, o := range opts {
		o(&s)
	}

	level, err := log.ParseLevel(s.level)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if verbose {
		level = log.DebugLevel
	}

	log.SetDefault(log.NewWithOptions(os.Stderr,
		log.Options{
			Level:           level,
			ReportCaller:    s.caller,
			ReportTimestamp: false,
			TimeFormat:      time.RFC3339,
			Prefix:          s.prefix,
		}))

	if noColor {
		color.EnableColor(false)
	}
	log.SetColorProfile(color.Profile())
	return nil
}
