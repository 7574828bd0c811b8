package logger

import (
	"os"

	"go.uber.org/zap"
)

// NewLogger builds the application logger. Console encoding to stdout plus a
// file sink so the on-prem deployment keeps local history.
func NewLogger() *zap.Logger {
	outputs := []string{"stdout"}
	if path := os.Getenv("LOG_FILE"); path != "" {
		outputs = append(outputs, path)
	}

	cfg := zap.Config{
		Encoding:         "console",
		Level:            zap.NewAtomicLevelAt(zap.InfoLevel),
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    zap.NewProductionEncoderConfig(),
	}
	if os.Getenv("LOG_DEBUG") == "1" {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return l
}
