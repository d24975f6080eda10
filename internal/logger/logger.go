// Package logger builds the process-wide structured logger.
//
// Callers log through log/slog; records are encoded by zap so production
// output is zap's JSON and development output is the colored console format.
package logger

import (
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// New returns a slog logger backed by zap and the flush function to call on exit.
func New(isProd bool) (*slog.Logger, func() error) {
	var zapLogger *zap.Logger

	if isProd {
		zapLogger = zap.Must(zap.NewProduction())
	} else {
		config := zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapLogger = zap.Must(config.Build())
	}

	return slog.New(zapslog.NewHandler(zapLogger.Core())), zapLogger.Sync
}

// NewNop returns a logger that discards everything. Useful in tests.
func NewNop() *slog.Logger {
	return slog.New(zapslog.NewHandler(zapcore.NewNopCore()))
}
