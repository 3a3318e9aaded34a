package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// BuildLogger constructs the process logger: two console cores split by
// level (info/debug to stdout, warn/error+ to stderr, each colorized only
// when writing to an actual terminal) combined with an optional file core,
// matching the split-core/zapcore.NewTee shape the rest of this codebase's
// ambient logging follows.
func (l *Logging) BuildLogger() (*zap.Logger, error) {
	level := parseLevel(l.Level)

	lowEnc := consoleEncoder(l.Color && term.IsTerminal(int(os.Stdout.Fd())))
	highEnc := consoleEncoder(l.Color && term.IsTerminal(int(os.Stderr.Fd())))

	lowCore := zapcore.NewCore(lowEnc, zapcore.Lock(os.Stdout), zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= level && lvl < zapcore.WarnLevel
	}))
	highCore := zapcore.NewCore(highEnc, zapcore.Lock(os.Stderr), zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= level && lvl >= zapcore.WarnLevel
	}))

	cores := []zapcore.Core{lowCore, highCore}
	if l.File != "" {
		f, err := os.OpenFile(l.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", l.File, err)
		}
		fileEnc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEnc, zapcore.Lock(f), zap.NewAtomicLevelAt(level)))
	}

	return zap.New(zapcore.NewTee(cores...)).Named("porcula"), nil
}

func consoleEncoder(color bool) zapcore.Encoder {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	if color {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zapcore.NewConsoleEncoder(ec)
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
