// Package logger builds the zap logger shared by the client and the reference backend.
package logger

import (
	"fmt"

	"github.com/creasty/defaults"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config defines configuration options for the logger.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string `validate:"oneof=debug info warn error" default:"info"`
	// Encoding is json for machine-readable lines or console for humans.
	Encoding string `validate:"oneof=json console" default:"json"`
	// Disable returns a no-op logger. Useful in tests and quiet CLI runs.
	Disable bool
	// OutputPaths defaults to stderr so CLI output on stdout stays clean.
	OutputPaths []string
}

// New builds a *zap.Logger from cfg. Empty fields take their defaults.
func New(cfg Config) (*zap.Logger, error) {
	if cfg.Disable {
		return zap.NewNop(), nil
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("logger defaults: %w", err)
	}

	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("logger level: %w", err)
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	zapCfg := zap.Config{
		Level:            level,
		Encoding:         cfg.Encoding,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:     "msg",
			LevelKey:       "level",
			NameKey:        "logger",
			TimeKey:        "ts",
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeName:     zapcore.FullNameEncoder,
		},
	}
	if cfg.Encoding == "console" {
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return zapCfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
