package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger creates the root logger based on the configuration. Every
// component derives a child logger from it.
func NewLogger(cfg LoggerConfig, serviceName string) zerolog.Logger {
	return newLogger(cfg, serviceName, os.Stdout)
}

func newLogger(cfg LoggerConfig, serviceName string, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if serviceName != "" {
		ctx = ctx.Str("app", serviceName)
	}

	return ctx.Logger()
}
