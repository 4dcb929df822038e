/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/ssgreg/logf"
)

// StringMasker hides secrets in a string.
type StringMasker interface {
	Mask(s string) string
}

// MaskingLogger hides secrets in messages and in string, bytes, string slice and error fields
// before passing them to the wrapped logger. Fields of other types are passed as is.
type MaskingLogger struct {
	log    FieldLogger
	masker StringMasker
}

var _ FieldLogger = MaskingLogger{}

// NewMaskingLogger wraps l.
func NewMaskingLogger(l FieldLogger, m StringMasker) FieldLogger {
	return MaskingLogger{l, m}
}

// With implements FieldLogger.
func (l MaskingLogger) With(fs ...Field) FieldLogger {
	return MaskingLogger{l.log.With(l.maskFields(fs)...), l.masker}
}

// WithLevel implements FieldLogger.
func (l MaskingLogger) WithLevel(level Level) FieldLogger {
	return MaskingLogger{l.log.WithLevel(level), l.masker}
}

// Debug implements FieldLogger.
func (l MaskingLogger) Debug(msg string, fs ...Field) { l.Log(LevelDebug, msg, fs...) }

// Info implements FieldLogger.
func (l MaskingLogger) Info(msg string, fs ...Field) { l.Log(LevelInfo, msg, fs...) }

// Warn implements FieldLogger.
func (l MaskingLogger) Warn(msg string, fs ...Field) { l.Log(LevelWarn, msg, fs...) }

// Error implements FieldLogger.
func (l MaskingLogger) Error(msg string, fs ...Field) { l.Log(LevelError, msg, fs...) }

// Log implements FieldLogger.
func (l MaskingLogger) Log(level Level, msg string, fs ...Field) {
	l.log.Log(level, l.masker.Mask(msg), l.maskFields(fs)...)
}

// AtLevel implements FieldLogger.
func (l MaskingLogger) AtLevel(level Level, fn func(LogFunc)) {
	l.log.AtLevel(level, func(write LogFunc) {
		fn(func(msg string, fs ...Field) {
			write(l.masker.Mask(msg), l.maskFields(fs)...)
		})
	})
}

var stringSliceType = reflect.TypeOf([]string(nil))

// maskFields returns fs itself when nothing had to be masked, a masked copy otherwise.
func (l MaskingLogger) maskFields(fs []Field) []Field {
	var res []Field
	for i := range fs {
		masked, changed := l.maskField(fs[i])
		if !changed {
			continue
		}
		if res == nil {
			res = append([]Field(nil), fs...)
		}
		res[i] = masked
	}
	if res == nil {
		return fs
	}
	return res
}

func (l MaskingLogger) maskField(f Field) (Field, bool) {
	switch f.Type {
	case logf.FieldTypeBytesToString:
		s := string(f.Bytes)
		if masked := l.masker.Mask(s); masked != s {
			return String(f.Key, masked), true
		}
	case logf.FieldTypeBytes, logf.FieldTypeRawBytes:
		s := string(f.Bytes)
		if masked := l.masker.Mask(s); masked != s {
			return logf.ConstBytes(f.Key, []byte(masked)), true
		}
	case logf.FieldTypeError:
		err, ok := f.Any.(error)
		if !ok || err == nil {
			break
		}
		s := err.Error()
		if masked := l.masker.Mask(s); masked != s {
			return NamedError(f.Key, l.newMaskedError(err, masked)), true
		}
	case logf.FieldTypeArray:
		v := reflect.ValueOf(f.Any)
		if !v.IsValid() || !v.CanConvert(stringSliceType) {
			break
		}
		ss := v.Convert(stringSliceType).Interface().([]string)
		var masked []string
		for i, s := range ss {
			if m := l.masker.Mask(s); m != s {
				if masked == nil {
					masked = append([]string(nil), ss...)
				}
				masked[i] = m
			}
		}
		if masked != nil {
			return Strings(f.Key, masked), true
		}
	}
	return f, false
}

func (l MaskingLogger) newMaskedError(err error, masked string) error {
	if _, ok := err.(fmt.Formatter); ok {
		return maskedError{s: masked, verbose: l.masker.Mask(fmt.Sprintf("%+v", err))}
	}
	return errors.New(masked)
}

// maskedError keeps a masked "%+v" form for the verbose error field of logf.
type maskedError struct {
	s       string
	verbose string
}

func (e maskedError) Error() string { return e.s }

func (e maskedError) Format(f fmt.State, _ rune) { _, _ = io.WriteString(f, e.verbose) }
