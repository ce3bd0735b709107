package cmd

import (
	"github.com/berrythewa/xselq/internal/config"
	"go.uber.org/zap"
)

// Shared variables across all commands
var (
	cfg       *config.Config
	zapLogger *zap.Logger

	// Output flags resolved by the root command
	useJSON   bool
	showAtoms bool
	colorMode string
)

// SetConfig sets the configuration for commands
func SetConfig(config *config.Config) {
	cfg = config
}

// GetConfig returns the configuration shared by commands
func GetConfig() *config.Config {
	return cfg
}

// SetZapLogger sets the logger for commands
func SetZapLogger(log *zap.Logger) {
	zapLogger = log
}

// GetZapLogger returns the logger, a no-op one if none was set
func GetZapLogger() *zap.Logger {
	if zapLogger == nil {
		return zap.NewNop()
	}
	return zapLogger
}

// OutputOptions are presentation flags shared by commands
type OutputOptions struct {
	JSON      bool
	ShowAtoms bool
	Color     string
}

// SetOutputOptions records the presentation flags
func SetOutputOptions(opts OutputOptions) {
	useJSON = opts.JSON
	showAtoms = opts.ShowAtoms
	colorMode = opts.Color
}
