/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// DataType is a format of configuration data.
type DataType string

// Supported formats.
const (
	DataTypeYAML DataType = "yaml"
	DataTypeJSON DataType = "json"
)

// DataProvider gives typed access to configuration values collected from files, readers and environment variables.
// Typed getters return errors that already mention the key.
type DataProvider interface {
	UseEnvVars(prefix string)

	Set(key string, value interface{})
	SetDefault(key string, value interface{})

	SetFromFile(path string, dataType DataType) error
	SetFromReader(reader io.Reader, dataType DataType) error

	GetBool(key string) (bool, error)
	GetInt(key string) (int, error)
	GetString(key string) (string, error)
	GetStringFromSet(key string, set []string, ignoreCase bool) (string, error)
	GetDuration(key string) (time.Duration, error)
	GetSizeInBytes(key string) (uint64, error)

	// UnmarshalKey decodes the whole subtree under key into rawVal.
	UnmarshalKey(key string, rawVal interface{}, opts ...DecoderConfigOption) error

	WrapKeyErr(key string, err error) error
}

// DecoderConfigOption tunes mapstructure decoding done by UnmarshalKey.
type DecoderConfigOption func(*mapstructure.DecoderConfig)

// WithCustomTypesDecodeHook makes UnmarshalKey understand human-readable ByteSize and TimeDuration values.
func WithCustomTypesDecodeHook() DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		hook := mapstructure.DecodeHookFuncType(decodeCustomType)
		if dc.DecodeHook == nil {
			dc.DecodeHook = hook
			return
		}
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(dc.DecodeHook, hook)
	}
}

var (
	byteSizeType     = reflect.TypeOf(ByteSize(0))
	timeDurationType = reflect.TypeOf(TimeDuration(0))
)

func decodeCustomType(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	switch to {
	case byteSizeType:
		return parseByteSizeFromString(data.(string))
	case timeDurationType:
		return parseTimeDurationFromString(data.(string))
	}
	return data, nil
}

// WrapKeyErr prefixes err with the key it relates to.
func WrapKeyErr(key string, err error) error {
	return fmt.Errorf("%s: %w", key, err)
}

// WrapKeyErrIfNeeded is WrapKeyErr that keeps nil as is.
func WrapKeyErrIfNeeded(key string, err error) error {
	if err == nil {
		return nil
	}
	return WrapKeyErr(key, err)
}
