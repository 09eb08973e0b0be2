package main

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the watcher's logger: human-readable console output plus an
// append-only log file behind a buffered syncer, so file writes never stall a
// poll cycle. The returned func flushes buffered entries.
func NewLogger(logFile string, debug bool) (*zap.SugaredLogger, func(), error) {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleCfg),
		zapcore.Lock(os.Stdout),
		level,
	)

	cores := []zapcore.Core{consoleCore}

	var fileWS *zapcore.BufferedWriteSyncer
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, err
		}
		fileWS = &zapcore.BufferedWriteSyncer{
			WS:            zapcore.AddSync(f),
			FlushInterval: time.Second,
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileCfg),
			fileWS,
			level,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	flush := func() {
		_ = logger.Sync()
		if fileWS != nil {
			_ = fileWS.Stop()
		}
	}
	return logger.Sugar(), flush, nil
}
