// Package logging builds the application's zap logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultLevel keeps the console quiet unless asked otherwise.
const DefaultLevel = "warn"

// Options configures the logger.
type Options struct {
	// Level is a zap level name: debug, info, warn or error.
	Level string
	// File, when set, receives JSON logs through a rotating writer.
	File string
	// Console enables the human-readable core. Turn it off while a
	// full-screen UI owns the terminal.
	Console bool
	// ConsoleOut defaults to stderr.
	ConsoleOut io.Writer
}

// New builds a logger from opts. With neither core enabled it returns a
// no-op logger. The returned close function flushes and releases the file.
func New(opts Options) (*zap.Logger, func() error, error) {
	if opts.Level == "" {
		opts.Level = DefaultLevel
	}
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	var cores []zapcore.Core
	var file *lumberjack.Logger
	if opts.Console {
		out := opts.ConsoleOut
		if out == nil {
			out = os.Stderr
		}
		cores = append(cores, newConsoleCore(out, level))
	}
	if opts.File != "" {
		core, lj, err := newFileCore(opts.File, level)
		if err != nil {
			return nil, nil, err
		}
		file = lj
		cores = append(cores, core)
	}
	if len(cores) == 0 {
		return zap.NewNop(), func() error { return nil }, nil
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	closeFn := func() error {
		_ = logger.Sync()
		if file != nil {
			return file.Close()
		}
		return nil
	}
	return logger, closeFn, nil
}

func newFileCore(path string, level zapcore.Level) (zapcore.Core, *lumberjack.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("could not create log directory: %w", err)
	}
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(lj), level)
	return core, lj, nil
}

func newConsoleCore(out io.Writer, level zapcore.Level) zapcore.Core {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if f, ok := out.(*os.File); !ok || f != os.Stderr {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(out), level)
}
