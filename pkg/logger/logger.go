package logger

import (
	"go.uber.org/zap"
)

var log *zap.Logger = zap.NewNop()

// Init builds the process logger. mode follows gin conventions:
// anything except "release" gets the development config.
func Init(mode string) error {
	var (
		l   *zap.Logger
		err error
	)
	if mode == "release" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return err
	}
	log = l
	return nil
}

// L returns the process logger. Safe to call before Init (no-op logger).
func L() *zap.Logger {
	return log
}

// Sync flushes buffered entries. Call on shutdown.
func Sync() {
	_ = log.Sync()
}
