/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package log provides the structured logger used by the flow-control primitives
// to report outcomes (e.g. an exhausted retry chain or a purged semaphore).
package log

import (
	"fmt"
	"io"
	"os"

	"github.com/ssgreg/logf"
	"github.com/ssgreg/logftext"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Field is a single key/value pair of a log entry.
type Field = logf.Field

// LogFunc writes a message at a level bound beforehand (see FieldLogger.AtLevel).
// nolint: revive
type LogFunc = logf.LogFunc

// CloseFunc flushes buffered entries and stops the background writer.
type CloseFunc logf.ChannelWriterCloseFunc

// Field constructors.
var (
	Error      = logf.Error
	NamedError = logf.NamedError
	String     = logf.String
	Strings    = logf.Strings
	Bytes      = logf.Bytes
	Int        = logf.Int
	Int64      = logf.Int64
	Duration   = logf.Duration
	Bool       = logf.Bool
	Any        = logf.Any
)

// FieldLogger writes structured log entries.
type FieldLogger interface {
	With(...Field) FieldLogger
	WithLevel(level Level) FieldLogger

	Debug(string, ...Field)
	Info(string, ...Field)
	Warn(string, ...Field)
	Error(string, ...Field)

	// Log writes msg at the given level. LevelSuccess is written at "info" level.
	Log(level Level, msg string, fs ...Field)

	// AtLevel calls fn only if the level is enabled.
	AtLevel(Level, func(LogFunc))
}

// LogfAdapter is a FieldLogger on top of logf.Logger.
type LogfAdapter struct {
	Logger *logf.Logger
}

var _ FieldLogger = (*LogfAdapter)(nil)

// NewDisabledLogger returns a FieldLogger that drops everything.
func NewDisabledLogger() FieldLogger {
	return &LogfAdapter{logf.NewDisabledLogger()}
}

// NewLogger builds a FieldLogger writing asynchronously to the output described by cfg.
// The returned CloseFunc must be called before exit, otherwise the last entries may be lost.
// It panics if masking is enabled with invalid rules; Config.Set never lets such rules through.
func NewLogger(cfg *Config) (FieldLogger, CloseFunc) {
	var masker *Masker
	if cfg.Masking.Enabled {
		var err error
		if masker, err = NewMasker(cfg.Masking.AllRules()); err != nil {
			panic(fmt.Errorf("log masking: %w", err))
		}
	}
	channel, closeFn := logf.NewChannelWriter(logf.ChannelWriterConfig{
		Appender:          newAppender(cfg, newOutputWriter(cfg)),
		EnableSyncOnError: true,
	})
	logger := logf.NewLogger(toLogfLevel(cfg.Level), channel).With(logf.Int("pid", os.Getpid()))
	if cfg.AddCaller {
		logger = logger.WithCaller().WithCallerSkip(1) // adapter's frame
	}
	if masker != nil {
		return NewMaskingLogger(&LogfAdapter{logger}, masker), CloseFunc(closeFn)
	}
	return &LogfAdapter{logger}, CloseFunc(closeFn)
}

// With returns a logger that adds fs to every entry.
func (l *LogfAdapter) With(fs ...Field) FieldLogger {
	return &LogfAdapter{l.Logger.With(fs...)}
}

// WithLevel returns a logger that additionally drops entries below level.
func (l *LogfAdapter) WithLevel(level Level) FieldLogger {
	return &LogfAdapter{l.Logger.WithLevel(toLogfLevel(level))}
}

// Debug implements FieldLogger.
func (l *LogfAdapter) Debug(msg string, fs ...Field) { l.Logger.Debug(msg, fs...) }

// Info implements FieldLogger.
func (l *LogfAdapter) Info(msg string, fs ...Field) { l.Logger.Info(msg, fs...) }

// Warn implements FieldLogger.
func (l *LogfAdapter) Warn(msg string, fs ...Field) { l.Logger.Warn(msg, fs...) }

// Error implements FieldLogger.
func (l *LogfAdapter) Error(msg string, fs ...Field) { l.Logger.Error(msg, fs...) }

// Log implements FieldLogger.
func (l *LogfAdapter) Log(level Level, msg string, fs ...Field) {
	l.Logger.AtLevel(toLogfLevel(level), func(write logf.LogFunc) {
		write(msg, fs...)
	})
}

// AtLevel implements FieldLogger.
func (l *LogfAdapter) AtLevel(level Level, fn func(LogFunc)) {
	l.Logger.AtLevel(toLogfLevel(level), fn)
}

func toLogfLevel(level Level) logf.Level {
	switch level {
	case LevelError:
		return logf.LevelError
	case LevelWarn:
		return logf.LevelWarn
	case LevelDebug:
		return logf.LevelDebug
	default: // info, success and unknown
		return logf.LevelInfo
	}
}

func newOutputWriter(cfg *Config) io.Writer {
	switch cfg.Output {
	case OutputFile:
		return &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    int(uint64(cfg.File.Rotation.MaxSize) / 1024 / 1024), // megabytes
			MaxBackups: cfg.File.Rotation.MaxBackups,
			Compress:   cfg.File.Rotation.Compress,
		}
	case OutputStderr:
		return os.Stderr
	default:
		return os.Stdout
	}
}

func newAppender(cfg *Config, w io.Writer) logf.Appender {
	if cfg.Format == FormatText {
		noColor := cfg.NoColor
		return logftext.NewAppender(w, logftext.EncoderConfig{NoColor: &noColor, EncodeTime: logf.RFC3339NanoTimeEncoder})
	}
	return logf.NewWriteAppender(w, logf.NewJSONEncoder(logf.JSONEncoderConfig{
		FieldKeyTime: "time",
		EncodeTime:   logf.RFC3339NanoTimeEncoder,
	}))
}
