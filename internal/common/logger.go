package common

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/berrythewa/xselq/internal/config"
)

// LoggerOptions are command line overrides applied on top of the config
type LoggerOptions struct {
	Verbose bool
	Quiet   bool
}

// NewLogger creates a new logger instance writing to stderr, so that
// stdout only carries query results.
func NewLogger(cfg *config.Config, opts LoggerOptions) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = zapcore.WarnLevel
	}

	switch {
	case opts.Verbose:
		level = zapcore.DebugLevel
	case opts.Quiet:
		level = zapcore.ErrorLevel
	}

	encoding := cfg.Log.Format
	if encoding != "json" {
		encoding = "console"
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if encoding == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	zcfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       opts.Verbose,
		DisableStacktrace: !opts.Verbose,
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}

	return zcfg.Build()
}
