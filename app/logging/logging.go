// Package logging builds the process loggers from configuration
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/amirphl/infobip-sms-bridge/config"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns the application logger described by cfg
func New(cfg config.LoggingConfig) zerolog.Logger {
	var writers []io.Writer
	switch cfg.Output {
	case "file":
		writers = append(writers, rotatingFile(cfg, cfg.FilePath))
	case "both":
		writers = append(writers, consoleWriter(cfg, os.Stdout), rotatingFile(cfg, cfg.FilePath))
	default:
		writers = append(writers, consoleWriter(cfg, os.Stdout))
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp()
	if cfg.EnableCaller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// NewRequestLog returns a logger dedicated to outbound vendor requests
func NewRequestLog(logging config.LoggingConfig, infobip config.InfoBipConfig) zerolog.Logger {
	if !infobip.RequestLogEnabled {
		return zerolog.Nop()
	}
	return zerolog.New(rotatingFile(logging, infobip.RequestLogPath)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func consoleWriter(cfg config.LoggingConfig, out io.Writer) io.Writer {
	if cfg.Format == "text" {
		return zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}
	return out
}

func rotatingFile(cfg config.LoggingConfig, path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}
