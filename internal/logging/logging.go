// Package logging builds the zap logger shared by every component.
package logging

import (
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the encoder and level.
type Config struct {
	Level       string // debug, info, warn, error; empty means info
	Development bool   // console encoder, colored levels, debug default
}

// New returns a logger writing to stderr.
func New(cfg Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level, zc.Level.Level()))
	return zc.Build()
}

// NewWithWriter builds a logger on an arbitrary writer, used by tests and
// the CLI commands that print to stdout.
func NewWithWriter(cfg Config, w io.Writer) *zap.Logger {
	fallback := zapcore.InfoLevel
	if cfg.Development {
		fallback = zapcore.DebugLevel
	}

	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	if cfg.Development {
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(enc)
	} else {
		encoder = zapcore.NewJSONEncoder(enc)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(ParseLevel(cfg.Level, fallback)))
	return zap.New(core)
}

// ParseLevel maps a level name to a zap level, returning fallback for
// empty or unknown names.
func ParseLevel(name string, fallback zapcore.Level) zapcore.Level {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return fallback
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return fallback
	}
	return lvl
}
