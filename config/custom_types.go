/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"gopkg.in/yaml.v3"
)

// ByteSize is a size in bytes. In JSON and YAML it may be written as an integer or as a human-readable
// string ("250M", "1Gi"). It is always written back as a human-readable string.
type ByteSize uint64

// String returns the size in human-readable form.
func (b ByteSize) String() string {
	return bytefmt.ByteSize(uint64(b))
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *ByteSize) UnmarshalJSON(data []byte) error {
	return unmarshalJSONScalar(data, func(s string) error {
		v, err := parseByteSizeFromString(s)
		*b = v
		return err
	})
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("invalid byte size at line %d: scalar expected", value.Line)
	}
	v, err := parseByteSizeFromString(value.Value)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (b ByteSize) MarshalJSON() ([]byte, error) { return json.Marshal(b.String()) }

// MarshalYAML implements yaml.Marshaler.
func (b ByteSize) MarshalYAML() (interface{}, error) { return b.String(), nil }

// TimeDuration is a time.Duration that may be written in JSON and YAML as an integer number of nanoseconds
// or as a duration string ("1h30m").
type TimeDuration time.Duration

// String returns the duration as time.Duration formats it.
func (d TimeDuration) String() string {
	return time.Duration(d).String()
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *TimeDuration) UnmarshalJSON(data []byte) error {
	return unmarshalJSONScalar(data, func(s string) error {
		v, err := parseTimeDurationFromString(s)
		*d = v
		return err
	})
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("invalid time duration at line %d: scalar expected", value.Line)
	}
	v, err := parseTimeDurationFromString(value.Value)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d TimeDuration) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

// MarshalYAML implements yaml.Marshaler.
func (d TimeDuration) MarshalYAML() (interface{}, error) { return d.String(), nil }

// unmarshalJSONScalar passes a JSON number or string to parse as text.
func unmarshalJSONScalar(data []byte, parse func(s string) error) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		return parse(v)
	case float64:
		return parse(string(data))
	}
	return fmt.Errorf("unexpected JSON value %s", data)
}

func parseByteSizeFromString(s string) (ByteSize, error) {
	v := strings.TrimSpace(s)
	if strings.HasPrefix(v, "-") {
		return 0, fmt.Errorf("negative byte size is not allowed: %s", s)
	}
	if num, err := strconv.ParseUint(v, 10, 64); err == nil {
		return ByteSize(num), nil
	}
	// bytefmt treats "K", "M", ... as powers of two already, so k8s-style "Ki", "Mi" just lose the "i".
	if len(v) > 2 && strings.HasSuffix(v, "i") && strings.ContainsAny(v[len(v)-2:len(v)-1], "KMGTPE") {
		v = v[:len(v)-1]
	}
	num, err := bytefmt.ToBytes(v)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	return ByteSize(num), nil
}

func parseTimeDurationFromString(s string) (TimeDuration, error) {
	v := strings.TrimSpace(s)
	if num, err := strconv.ParseInt(v, 10, 64); err == nil {
		if num < 0 {
			return 0, fmt.Errorf("negative time duration is not allowed: %s", s)
		}
		return TimeDuration(num), nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid time duration %q: %w", s, err)
	}
	return TimeDuration(dur), nil
}
