// File: internal/platform/logger/zap.go
package logger

import (
	"strings"

	"wlm_backend/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New initializes a new Zap logger based on the application configuration.
func New(cfg *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config

	level := zapcore.InfoLevel
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn", "warning":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	case "dpanic":
		level = zapcore.DPanicLevel
	case "panic":
		level = zapcore.PanicLevel
	case "fatal":
		level = zapcore.FatalLevel
	}

	if cfg.GinMode == "release" {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig.Level = zap.NewAtomicLevelAt(level)

	if strings.ToLower(cfg.LogFormat) == "json" {
		zapConfig.Encoding = "json"
	} else {
		zapConfig.Encoding = "console"
	}

	logger, err := zapConfig.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// NewDefaultLogger is for tests or early startup where config is not loaded yet.
func NewDefaultLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}
